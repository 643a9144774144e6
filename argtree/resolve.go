package argtree

import "slices"

// level is the part of a resolution owned by one node.
type level struct {
	node   *Node
	values Values
	chain  []string
}

type resolution struct {
	final  *Node
	chain  []string
	merged Values
	levels []*level
	help   bool
}

// set stores a fallback or default value on both the owning level and the
// merged view.
func (res *resolution) set(lvl *level, name string, v any) {
	lvl.values[name] = v
	res.merged[name] = v
}

// inherited merges the values of every level above the final one.
func (res *resolution) inherited() Values {
	out := Values{}
	for _, lvl := range res.levels[:len(res.levels)-1] {
		out = overlay(out, lvl.values)
	}
	return out
}

// resolve walks tokens down the tree starting at the parse root. The first
// token naming a child of the current node splits the stream: tokens before
// it belong to the current node, the rest to the child. Values are converted
// only once the walk is complete, so help requested at any level wins over
// conversion errors of its ancestors. The returned resolution is non-nil even
// on error and points at the node being matched.
func (r *run) resolve(tokens []string) (*resolution, error) {
	res := &resolution{merged: Values{}, final: r.root}
	node := r.root
	var (
		chain  []string
		walked []*level
		scans  []*levelMatch
	)

	for {
		if err := r.ctx.Err(); err != nil {
			return res, err
		}
		res.final, res.chain = node, chain

		split := -1
		var child *Node
		for i, tok := range tokens {
			if c, ok := node.children.Get(tok); ok {
				split, child = i, c
				break
			}
		}
		own := tokens
		if child != nil {
			own = tokens[:split]
		}

		m := r.scan(node.registry, own)
		if m.help {
			res.help = true
			return res, nil
		}
		walked = append(walked, &level{node: node, values: m.values, chain: chain})
		scans = append(scans, m)

		if len(m.unconsumed) > 0 {
			if child == nil {
				return res, &UnknownCommandError{Token: own[m.next], Chain: chain, Candidates: node.childNames()}
			}
			for _, i := range m.unconsumed {
				r.logger.Debug("ignoring token %q before sub-command %q", own[i], child.name)
			}
		}
		if child == nil {
			break
		}

		r.logger.Debug("entering sub-command %q", child.name)
		chain = append(slices.Clone(chain), child.name)
		tokens = tokens[split+1:]
		node = child
	}

	for i, lvl := range walked {
		res.final, res.chain = lvl.node, lvl.chain
		if err := r.convert(scans[i], lvl.chain); err != nil {
			return res, err
		}
		res.merged = overlay(res.merged, lvl.values)
		res.levels = append(res.levels, lvl)
	}
	return res, nil
}
