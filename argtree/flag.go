package argtree

import (
	"slices"

	"github.com/zclconf/go-cty/cty"
)

// CommandChainKey is the reserved Values key holding the command chain
// ([]string) of a parse. Flags cannot be named after it.
const CommandChainKey = "__command_chain"

// HelpFlagName is the name of the synthetic help flag every registry carries.
const HelpFlagName = "help"

// Flag declares a named, typed input. It is copied on registration and must
// not be changed afterwards.
type Flag struct {
	Name        string
	Options     []string
	Type        Type
	Description string

	// Mandatory makes the flag required. MandatoryIf, when set, replaces it
	// and is evaluated against the merged values of the whole chain.
	Mandatory   bool
	MandatoryIf func(Values) bool

	Default       any
	AllowMultiple bool
	AllowLigature bool
	FlagOnly      bool
	Enum          []any

	// Validate receives the converted value and the values parsed so far at
	// the same level. A non-nil error rejects the value.
	Validate func(value any, soFar Values) error

	// Env lists environment variables consulted, in order, when the flag is
	// absent from the command line.
	Env []string

	Hidden bool
}

// IsMandatory evaluates the mandatory rule against values.
func (f *Flag) IsMandatory(values Values) bool {
	if f.MandatoryIf != nil {
		return f.MandatoryIf(values)
	}
	return f.Mandatory
}

// HasDefault reports whether a default value was declared.
func (f *Flag) HasDefault() bool { return f.Default != nil }

// FlagBuilder declares a flag fluently and registers it on Back.
type FlagBuilder struct {
	node     *Node
	flag     Flag
	explicit bool
}

func (n *Node) newFlag(name, description string, t Type) *FlagBuilder {
	return &FlagBuilder{node: n, flag: Flag{Name: name, Description: description, Type: t}}
}

// StringFlag starts a String flag declaration.
func (n *Node) StringFlag(name, description string) *FlagBuilder {
	return n.newFlag(name, description, String)
}

// NumberFlag starts a Number flag declaration.
func (n *Node) NumberFlag(name, description string) *FlagBuilder {
	return n.newFlag(name, description, Number)
}

// BoolFlag starts a Boolean flag declaration.
func (n *Node) BoolFlag(name, description string) *FlagBuilder {
	return n.newFlag(name, description, Boolean)
}

// ArrayFlag starts an Array flag declaration.
func (n *Node) ArrayFlag(name, description string) *FlagBuilder {
	return n.newFlag(name, description, Array)
}

// ObjectFlag starts an Object flag declaration taking a JSON object.
func (n *Node) ObjectFlag(name, description string) *FlagBuilder {
	return n.newFlag(name, description, Object)
}

// CustomFlag starts a flag converted by fn; typeName labels it in help.
func (n *Node) CustomFlag(name, description, typeName string, fn ConvertFunc) *FlagBuilder {
	return n.newFlag(name, description, Custom{Name: typeName, Fn: fn})
}

// CompositeFlag starts a flag decoded from JSON against schema.
func (n *Node) CompositeFlag(name, description string, schema cty.Type) *FlagBuilder {
	return n.newFlag(name, description, Composite{Schema: schema})
}

// Options adds exact token spellings, e.g. Options("-p", "--port").
// The "--<name>" spelling is then no longer added implicitly.
func (b *FlagBuilder) Options(options ...string) *FlagBuilder {
	b.flag.Options = append(b.flag.Options, options...)
	b.explicit = true
	return b
}

// Short adds the "-c" spelling.
func (b *FlagBuilder) Short(c rune) *FlagBuilder {
	b.flag.Options = append(b.flag.Options, "-"+string(c))
	return b
}

// Long adds the "--name" spelling in place of the implicit "--<flag name>".
func (b *FlagBuilder) Long(name string) *FlagBuilder {
	b.flag.Options = append(b.flag.Options, "--"+name)
	b.explicit = true
	return b
}

// Required marks the flag as mandatory.
func (b *FlagBuilder) Required() *FlagBuilder {
	b.flag.Mandatory = true
	return b
}

// RequiredIf makes the flag mandatory when pred holds for the merged values.
func (b *FlagBuilder) RequiredIf(pred func(Values) bool) *FlagBuilder {
	b.flag.MandatoryIf = pred
	return b
}

// Default sets the value used when the flag is absent.
func (b *FlagBuilder) Default(v any) *FlagBuilder {
	b.flag.Default = v
	return b
}

// Multiple collects every occurrence into a sequence.
func (b *FlagBuilder) Multiple() *FlagBuilder {
	b.flag.AllowMultiple = true
	return b
}

// Ligature accepts the "--name=value" form.
func (b *FlagBuilder) Ligature() *FlagBuilder {
	b.flag.AllowLigature = true
	return b
}

// FlagOnly makes the flag a presence switch that never consumes a value.
func (b *FlagBuilder) FlagOnly() *FlagBuilder {
	b.flag.FlagOnly = true
	return b
}

// Enum restricts values to the given members.
func (b *FlagBuilder) Enum(values ...any) *FlagBuilder {
	b.flag.Enum = append(b.flag.Enum, values...)
	return b
}

// Validate sets a function that can reject converted values.
func (b *FlagBuilder) Validate(fn func(value any, soFar Values) error) *FlagBuilder {
	b.flag.Validate = fn
	return b
}

// Env adds environment variables consulted when the flag is absent.
func (b *FlagBuilder) Env(vars ...string) *FlagBuilder {
	b.flag.Env = append(b.flag.Env, vars...)
	return b
}

// Hidden omits the flag from help output.
func (b *FlagBuilder) Hidden() *FlagBuilder {
	b.flag.Hidden = true
	return b
}

// Register adds the flag to the node. Unless Options was used, "--<name>"
// is appended to the spellings.
func (b *FlagBuilder) Register() error {
	long := "--" + b.flag.Name
	if !b.explicit && b.flag.Name != "" && !slices.Contains(b.flag.Options, long) {
		b.flag.Options = append(b.flag.Options, long)
	}
	return b.node.AddFlag(b.flag)
}

// Back registers the flag and returns the node for chaining. It panics with
// a *ConfigurationError when the declaration is invalid.
func (b *FlagBuilder) Back() *Node {
	if err := b.Register(); err != nil {
		panic(err)
	}
	return b.node
}
