package argtree

import "maps"

// Values maps flag names to converted values. AllowMultiple flags hold []any.
type Values map[string]any

// Get returns the raw value of name.
func (v Values) Get(name string) (any, bool) {
	val, ok := v[name]
	return val, ok
}

// Has reports whether name is present. Empty sequences count as absent.
func (v Values) Has(name string) bool {
	val, ok := v[name]
	if !ok {
		return false
	}
	if seq, isSeq := val.([]any); isSeq {
		return len(seq) > 0
	}
	return true
}

// String returns a String value.
func (v Values) String(name string) (string, bool) {
	s, ok := v[name].(string)
	return s, ok
}

// Number returns a Number value.
func (v Values) Number(name string) (float64, bool) {
	f, ok := v[name].(float64)
	return f, ok
}

// Int returns a Number value truncated to int.
func (v Values) Int(name string) (int, bool) {
	f, ok := v[name].(float64)
	return int(f), ok
}

// Bool returns a Boolean value.
func (v Values) Bool(name string) (bool, bool) {
	b, ok := v[name].(bool)
	return b, ok
}

// List returns a sequence value.
func (v Values) List(name string) ([]any, bool) {
	l, ok := v[name].([]any)
	return l, ok
}

// Strings returns a sequence whose elements are all strings.
func (v Values) Strings(name string) ([]string, bool) {
	l, ok := v[name].([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(l))
	for _, e := range l {
		s, isStr := e.(string)
		if !isStr {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

// Map returns an Object or Composite object value.
func (v Values) Map(name string) (map[string]any, bool) {
	m, ok := v[name].(map[string]any)
	return m, ok
}

// Chain returns the command chain stored under CommandChainKey.
func (v Values) Chain() []string {
	c, _ := v[CommandChainKey].([]string)
	return c
}

// Clone returns a shallow copy.
func (v Values) Clone() Values {
	if v == nil {
		return Values{}
	}
	return maps.Clone(v)
}

// overlay returns a copy of base with every entry of top written over it.
func overlay(base, top Values) Values {
	out := make(Values, len(base)+len(top))
	maps.Copy(out, base)
	maps.Copy(out, top)
	return out
}
