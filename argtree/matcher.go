package argtree

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dzonerzy/go-argtree/internal/pool"
)

// levelMatch is the outcome of matching one level's tokens.
type levelMatch struct {
	values Values
	// next is the index of the first unconsumed token, len(tokens) if none.
	next       int
	unconsumed []int
	help       bool

	flags []*Flag
	hits  map[string][]occurrence
}

type occurrence struct {
	index   int
	raw     string
	literal any
	// empty marks an option token with no usable value; it is consumed but
	// contributes nothing.
	empty bool
}

// scan assigns tokens to flags without converting them. Every token is
// consumed at most once. The help flag is reported through levelMatch.help so
// callers can skip conversion.
func (r *run) scan(reg *Registry, tokens []string) *levelMatch {
	marks := pool.GetMarks(len(tokens))
	defer pool.PutMarks(marks)
	consumed := *marks

	flags := reg.Flags()
	hits := make(map[string][]occurrence)

	for _, f := range flags {
		if !f.AllowLigature || f.FlagOnly {
			continue
		}
		for i, tok := range tokens {
			if consumed[i] {
				continue
			}
			raw, ok := ligatureValue(tok, f.Options)
			if !ok {
				continue
			}
			consumed[i] = true
			hits[f.Name] = append(hits[f.Name], occurrence{index: i, raw: raw})
			if !f.AllowMultiple {
				break
			}
		}
	}

	for _, f := range flags {
		if len(hits[f.Name]) > 0 && !f.AllowMultiple {
			continue
		}
		for i := 0; i < len(tokens); i++ {
			if consumed[i] || !slices.Contains(f.Options, tokens[i]) {
				continue
			}
			consumed[i] = true
			occ := occurrence{index: i}
			switch {
			case f.FlagOnly:
				occ.literal = true
			case i+1 < len(tokens) && !consumed[i+1] && !strings.HasPrefix(tokens[i+1], "-"):
				occ.raw = tokens[i+1]
				consumed[i+1] = true
				i++
			case IsBoolean(f.Type):
				occ.literal = true
			default:
				occ.empty = true
			}
			hits[f.Name] = append(hits[f.Name], occ)
			if !f.AllowMultiple {
				break
			}
		}
	}

	m := &levelMatch{values: Values{}, next: len(tokens), flags: flags, hits: hits}
	for i, c := range consumed {
		if !c {
			m.unconsumed = append(m.unconsumed, i)
		}
	}
	if len(m.unconsumed) > 0 {
		m.next = m.unconsumed[0]
	}
	m.help = len(hits[HelpFlagName]) > 0
	return m
}

// convert turns the occurrences recorded by scan into checked values, one
// flag at a time in declaration order.
func (r *run) convert(m *levelMatch, chain []string) error {
	for _, f := range m.flags {
		occs := slices.DeleteFunc(m.hits[f.Name], func(o occurrence) bool { return o.empty })
		if len(occs) == 0 {
			continue
		}
		slices.SortFunc(occs, func(a, b occurrence) int { return a.index - b.index })

		var v any
		if f.AllowMultiple {
			var seq []any
			for _, o := range occs {
				cv, err := r.convertOccurrence(f, o, chain)
				if err != nil {
					return err
				}
				seq = appendValue(seq, f.Type, cv)
			}
			v = seq
		} else {
			cv, err := r.convertOccurrence(f, occs[0], chain)
			if err != nil {
				return err
			}
			v = cv
		}

		v, err := r.check(f, v, chain, m.values)
		if err != nil {
			return err
		}
		m.values[f.Name] = v
	}
	return nil
}

func ligatureValue(tok string, options []string) (string, bool) {
	for _, o := range options {
		prefix := o + "="
		if len(tok) > len(prefix) && strings.HasPrefix(tok, prefix) {
			return tok[len(prefix):], true
		}
	}
	return "", false
}

func (r *run) convertOccurrence(f *Flag, o occurrence, chain []string) (any, error) {
	if o.literal != nil {
		return o.literal, nil
	}
	return r.convertOne(f, o.raw, chain)
}

// convertOne converts a raw string; conversions of one parse run serially.
func (r *run) convertOne(f *Flag, raw string, chain []string) (any, error) {
	v, err := convertRaw(r.ctx, f.Type, raw)
	if err != nil {
		return nil, &ValidationError{Flag: f.Name, Value: raw, Chain: chain, Message: fmt.Sprintf("cannot convert to %s", TypeName(f.Type)), Err: err}
	}
	return v, nil
}

// check applies enum membership and the validate function.
func (r *run) check(f *Flag, v any, chain []string, soFar Values) (any, error) {
	if len(f.Enum) > 0 {
		members := []any{v}
		if seq, ok := v.([]any); ok && (f.AllowMultiple || IsArray(f.Type)) {
			members = seq
		}
		for _, e := range members {
			if !slices.ContainsFunc(f.Enum, func(allowed any) bool { return valuesEqual(allowed, e) }) {
				return nil, &ValidationError{Flag: f.Name, Value: e, Chain: chain, Message: fmt.Sprintf("%s is not one of %s", formatValue(e), formatList(f.Enum))}
			}
		}
	}
	if f.Validate != nil {
		if err := f.Validate(v, soFar); err != nil {
			return nil, &ValidationError{Flag: f.Name, Value: v, Chain: chain, Message: "rejected", Err: err}
		}
	}
	return v, nil
}

// appendValue adds v to a multiple-occurrence sequence. Array values are
// flattened so repeated array flags build one list.
func appendValue(seq []any, t Type, v any) []any {
	if IsArray(t) {
		if inner, ok := v.([]any); ok {
			return append(seq, inner...)
		}
	}
	return append(seq, v)
}

// IsArray reports whether t is the Array primitive.
func IsArray(t Type) bool {
	p, ok := t.(Primitive)
	return ok && p == Array
}
