package argtree

import (
	"fmt"
	"slices"
	"strings"

	"github.com/zclconf/go-cty/cty"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// DuplicatePolicy decides what registering an existing flag name does.
type DuplicatePolicy int

const (
	// DuplicateError rejects the second registration with a ConfigurationError.
	DuplicateError DuplicatePolicy = iota
	// DuplicateIgnore keeps the first declaration and logs a warning.
	DuplicateIgnore
)

// Registry holds the canonical flag declarations of one node in declaration
// order. It is read-only once parsing starts.
type Registry struct {
	owner   string
	flags   *orderedmap.OrderedMap[string, *Flag]
	options map[string]string
	policy  DuplicatePolicy
	warn    func(format string, args ...any)
}

// NewRegistry returns a registry holding only the synthetic help flag.
// warn receives duplicate notices under DuplicateIgnore and may be nil.
func NewRegistry(owner string, policy DuplicatePolicy, warn func(format string, args ...any)) *Registry {
	r := &Registry{
		owner:   owner,
		flags:   orderedmap.New[string, *Flag](),
		options: make(map[string]string),
		policy:  policy,
		warn:    warn,
	}
	help := &Flag{
		Name:        HelpFlagName,
		Options:     []string{"-h", "--help"},
		Type:        Boolean,
		Description: "Show help",
		FlagOnly:    true,
		Hidden:      true,
	}
	r.flags.Set(help.Name, help)
	for _, o := range help.Options {
		r.options[o] = help.Name
	}
	return r
}

// Register validates and normalizes f and stores a copy of it.
func (r *Registry) Register(f Flag) error {
	norm, err := r.normalize(f)
	if err != nil {
		return err
	}

	if _, exists := r.flags.Get(norm.Name); exists {
		if r.policy == DuplicateIgnore {
			if r.warn != nil {
				r.warn("flag %q already declared on %s; ignoring duplicate", norm.Name, r.label())
			}
			return nil
		}
		return r.configErr(norm.Name, "flag already declared")
	}

	var takeFromHelp []string
	for _, o := range norm.Options {
		owner, taken := r.options[o]
		switch {
		case !taken:
		case owner == HelpFlagName && o != "--help":
			takeFromHelp = append(takeFromHelp, o)
		default:
			return r.configErr(norm.Name, fmt.Sprintf("option %q already used by flag %q", o, owner))
		}
	}

	if len(takeFromHelp) > 0 {
		help, _ := r.flags.Get(HelpFlagName)
		help.Options = slices.DeleteFunc(slices.Clone(help.Options), func(o string) bool {
			return slices.Contains(takeFromHelp, o)
		})
	}
	for _, o := range norm.Options {
		r.options[o] = norm.Name
	}
	r.flags.Set(norm.Name, norm)
	return nil
}

func (r *Registry) normalize(f Flag) (*Flag, error) {
	if f.Name == "" {
		return nil, r.configErr("", "flag name must not be empty")
	}
	if f.Name == CommandChainKey {
		return nil, r.configErr(f.Name, "name is reserved for the command chain")
	}
	if len(f.Options) == 0 {
		return nil, r.configErr(f.Name, "at least one option spelling is required")
	}
	seen := make(map[string]bool, len(f.Options))
	for _, o := range f.Options {
		if o == "" || strings.ContainsAny(o, " \t\n=") {
			return nil, r.configErr(f.Name, fmt.Sprintf("invalid option spelling %q", o))
		}
		if seen[o] {
			return nil, r.configErr(f.Name, fmt.Sprintf("option %q listed twice", o))
		}
		seen[o] = true
	}

	if f.Type == nil {
		f.Type = String
		if f.FlagOnly {
			f.Type = Boolean
		}
	}
	switch t := f.Type.(type) {
	case Primitive:
		if !t.valid() {
			return nil, r.configErr(f.Name, fmt.Sprintf("unknown type %q", string(t)))
		}
	case Custom:
		if t.Fn == nil {
			return nil, r.configErr(f.Name, "custom type needs a conversion function")
		}
	case Composite:
		if t.Schema == cty.NilType {
			return nil, r.configErr(f.Name, "composite type needs a schema")
		}
	default:
		return nil, r.configErr(f.Name, fmt.Sprintf("unsupported type %T", f.Type))
	}
	if f.FlagOnly && !IsBoolean(f.Type) {
		return nil, r.configErr(f.Name, "flag-only flags must be boolean")
	}

	out := f
	out.Options = slices.Clone(f.Options)
	out.Env = slices.Clone(f.Env)
	if len(f.Enum) > 0 {
		out.Enum = make([]any, len(f.Enum))
		for i, e := range f.Enum {
			out.Enum[i] = normalizeNumber(e)
		}
	}
	if f.Default != nil {
		out.Default = normalizeDefault(f.Default)
	}
	return &out, nil
}

func normalizeDefault(v any) any {
	switch d := v.(type) {
	case []string:
		out := make([]any, len(d))
		for i, s := range d {
			out[i] = s
		}
		return out
	case []any:
		out := make([]any, len(d))
		for i, e := range d {
			out[i] = normalizeNumber(e)
		}
		return out
	}
	return normalizeNumber(v)
}

func (r *Registry) configErr(flag, msg string) error {
	return &ConfigurationError{Node: r.owner, Flag: flag, Message: msg}
}

func (r *Registry) label() string {
	if r.owner == "" {
		return "root"
	}
	return r.owner
}

// Get returns the declaration of name.
func (r *Registry) Get(name string) (*Flag, bool) {
	return r.flags.Get(name)
}

// Has reports whether name is declared.
func (r *Registry) Has(name string) bool {
	_, ok := r.flags.Get(name)
	return ok
}

// Lookup returns the flag spelled option.
func (r *Registry) Lookup(option string) (*Flag, bool) {
	name, ok := r.options[option]
	if !ok {
		return nil, false
	}
	return r.flags.Get(name)
}

// Flags returns all declarations, help included, in declaration order.
func (r *Registry) Flags() []*Flag {
	out := make([]*Flag, 0, r.flags.Len())
	for pair := r.flags.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// Len returns the number of declarations, help included.
func (r *Registry) Len() int { return r.flags.Len() }
