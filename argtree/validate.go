package argtree

import "slices"

// finalize fills absent flags from the environment and config file, checks
// mandatory rules against the merged values and injects defaults. Every node
// of the chain is visited once, root first, and each flag name is handled by
// the first node declaring it.
func (r *run) finalize(res *resolution) error {
	type absentFlag struct {
		flag *Flag
		lvl  *level
	}
	var absent []absentFlag
	seen := make(map[string]bool)

	for _, lvl := range res.levels {
		for _, f := range lvl.node.registry.Flags() {
			if f.Name == HelpFlagName || seen[f.Name] {
				continue
			}
			seen[f.Name] = true
			if res.merged.Has(f.Name) {
				continue
			}
			v, ok, err := r.fallback(f, lvl.chain, res.merged)
			if err != nil {
				return err
			}
			if ok && !emptySeq(v) {
				res.set(lvl, f.Name, v)
				continue
			}
			absent = append(absent, absentFlag{flag: f, lvl: lvl})
		}
	}

	var missing []MissingFlag
	for _, a := range absent {
		if a.flag.IsMandatory(res.merged) {
			missing = append(missing, MissingFlag{
				Flag:    a.flag.Name,
				Options: slices.Clone(a.flag.Options),
				Node:    a.lvl.node.name,
				Chain:   a.lvl.chain,
			})
		}
	}

	for _, a := range absent {
		if a.flag.HasDefault() {
			res.set(a.lvl, a.flag.Name, defaultValue(a.flag))
		}
	}

	if len(missing) > 0 {
		return &MissingMandatoryFlagsError{Missing: missing, Chain: res.chain}
	}
	return nil
}

// defaultValue returns a fresh copy of the declared default. AllowMultiple
// defaults are always sequences.
func defaultValue(f *Flag) any {
	d := f.Default
	if seq, ok := d.([]any); ok {
		return slices.Clone(seq)
	}
	if f.AllowMultiple {
		return []any{d}
	}
	return d
}

func emptySeq(v any) bool {
	seq, ok := v.([]any)
	return ok && len(seq) == 0
}
