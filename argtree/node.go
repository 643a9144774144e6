package argtree

import (
	"fmt"
	"os"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/dzonerzy/go-argtree/argio"
	"github.com/dzonerzy/go-argtree/middleware"
)

// Handler runs synchronously for the node a parse resolves to.
type Handler func(ctx *Context) error

// AsyncHandler starts work and returns a pending result owned by the caller.
// The handler's context stays live until the pending result resolves, the
// parse context is canceled, or Result.Await returns. A pending result that
// never resolves under a background context must be awaited with a deadline
// or the handler context is held until process exit.
type AsyncHandler func(ctx *Context) *Pending[any]

// Node is one parser in the command tree. Nodes are configured before the
// first parse and must not be changed while a parse is running; concurrent
// parses of the same tree are safe.
type Node struct {
	name        string
	description string
	registry    *Registry
	children    *orderedmap.OrderedMap[string, *Node]
	parent      *Node

	handler      Handler
	asyncHandler AsyncHandler
	middleware   middleware.MiddlewareChain

	policy       DuplicatePolicy
	handleErrors bool
	io           *argio.IOManager
	logger       *argio.Logger
	exitCodes    *ExitCodeManager
	errorHandler *ErrorHandler
	exit         func(code int)
	lookupEnv    func(string) (string, bool)
	config       *configSource
}

// Option configures a Node at construction time.
type Option func(*Node)

// WithDuplicatePolicy sets how duplicate flag names are treated.
func WithDuplicatePolicy(p DuplicatePolicy) Option {
	return func(n *Node) { n.policy = p }
}

// WithIO sets the IO manager used for help, errors and logging.
func WithIO(io *argio.IOManager) Option {
	return func(n *Node) { n.io = io }
}

// WithLogger sets the logger.
func WithLogger(l *argio.Logger) Option {
	return func(n *Node) { n.logger = l }
}

// WithHandleErrors enables formatted error output and process exit.
func WithHandleErrors(enabled bool) Option {
	return func(n *Node) { n.handleErrors = enabled }
}

// WithExitFunc replaces os.Exit.
func WithExitFunc(fn func(code int)) Option {
	return func(n *Node) { n.exit = fn }
}

// WithEnvLookup replaces os.LookupEnv for Env fallbacks.
func WithEnvLookup(fn func(string) (string, bool)) Option {
	return func(n *Node) { n.lookupEnv = fn }
}

// New creates a root node.
func New(name, description string, opts ...Option) *Node {
	n := &Node{
		name:         name,
		description:  description,
		children:     orderedmap.New[string, *Node](),
		io:           argio.New(),
		exitCodes:    NewExitCodeManager(),
		errorHandler: NewErrorHandler(),
		exit:         os.Exit,
		lookupEnv:    os.LookupEnv,
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.logger == nil {
		n.logger = argio.NewLogger(n.io)
	}
	n.registry = NewRegistry(name, n.policy, n.logger.Warning)
	return n
}

// Name returns the node name; for children it is the sub-command token.
func (n *Node) Name() string { return n.name }

// Description returns the node description.
func (n *Node) Description() string { return n.description }

// Parent returns the node this one is attached to, or nil for a root.
func (n *Node) Parent() *Node { return n.parent }

// IsRoot reports whether n has no parent.
func (n *Node) IsRoot() bool { return n.parent == nil }

// Registry exposes the flag declarations of n.
func (n *Node) Registry() *Registry { return n.registry }

// Flags returns the non-hidden declarations of n in declaration order.
func (n *Node) Flags() []*Flag {
	var out []*Flag
	for _, f := range n.registry.Flags() {
		if !f.Hidden {
			out = append(out, f)
		}
	}
	return out
}

// Child returns the direct child called name.
func (n *Node) Child(name string) (*Node, bool) {
	return n.children.Get(name)
}

// Children returns the direct children in attachment order.
func (n *Node) Children() []*Node {
	out := make([]*Node, 0, n.children.Len())
	for pair := n.children.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

func (n *Node) childNames() []string {
	out := make([]string, 0, n.children.Len())
	for pair := n.children.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}

// Path returns the sub-command names from the root down to n.
func (n *Node) Path() []string {
	var path []string
	for cur := n; cur.parent != nil; cur = cur.parent {
		path = append([]string{cur.name}, path...)
	}
	return path
}

// AddFlag registers f on n.
func (n *Node) AddFlag(f Flag) error {
	for _, o := range f.Options {
		if _, clash := n.children.Get(o); clash {
			return &ConfigurationError{Node: n.name, Flag: f.Name, Message: fmt.Sprintf("option %q collides with sub-command %q", o, o)}
		}
	}
	return n.registry.Register(f)
}

// MustFlag registers f and panics with a *ConfigurationError on failure.
func (n *Node) MustFlag(f Flag) *Node {
	if err := n.AddFlag(f); err != nil {
		panic(err)
	}
	return n
}

// Attach makes child a sub-command of n. A node can be attached once.
func (n *Node) Attach(child *Node) error {
	switch {
	case child == nil:
		return &ConfigurationError{Node: n.name, Message: "cannot attach a nil node"}
	case child == n:
		return &ConfigurationError{Node: n.name, Message: "a node cannot be its own child"}
	case child.parent != nil:
		return &ConfigurationError{Node: child.name, Message: fmt.Sprintf("already attached to %q", child.parent.name)}
	case child.name == "" || strings.ContainsAny(child.name, " \t\n"):
		return &ConfigurationError{Node: n.name, Message: fmt.Sprintf("invalid sub-command name %q", child.name)}
	}
	for cur := n; cur != nil; cur = cur.parent {
		if cur == child {
			return &ConfigurationError{Node: child.name, Message: "attaching would create a cycle"}
		}
	}
	if _, exists := n.children.Get(child.name); exists {
		return &ConfigurationError{Node: n.name, Message: fmt.Sprintf("sub-command %q already exists", child.name)}
	}
	if f, clash := n.registry.Lookup(child.name); clash {
		return &ConfigurationError{Node: n.name, Flag: f.Name, Message: fmt.Sprintf("sub-command %q collides with an option spelling", child.name)}
	}
	child.parent = n
	n.children.Set(child.name, child)
	return nil
}

// Command creates and attaches a child inheriting the duplicate policy, IO
// and logger of n. It panics with a *ConfigurationError on failure.
func (n *Node) Command(name, description string) *Node {
	child := New(name, description,
		WithDuplicatePolicy(n.policy),
		WithIO(n.io),
		WithLogger(n.logger),
		WithExitFunc(n.exit),
		WithEnvLookup(n.lookupEnv),
	)
	if err := n.Attach(child); err != nil {
		panic(err)
	}
	return child
}

// Action sets the synchronous handler, replacing any async handler.
func (n *Node) Action(h Handler) *Node {
	n.handler = h
	n.asyncHandler = nil
	return n
}

// AsyncAction sets the asynchronous handler, replacing any sync handler.
func (n *Node) AsyncAction(h AsyncHandler) *Node {
	n.asyncHandler = h
	n.handler = nil
	return n
}

// Use appends middleware wrapping the sync handlers of n and its descendants.
func (n *Node) Use(mw ...middleware.Middleware) *Node {
	n.middleware = n.middleware.Use(mw...)
	return n
}

// HandleErrors switches between printing errors and exiting (true) and
// returning them to the caller (false, the default).
func (n *Node) HandleErrors(enabled bool) *Node {
	n.handleErrors = enabled
	return n
}

// IO returns the IO manager.
func (n *Node) IO() *argio.IOManager { return n.io }

// Logger returns the logger.
func (n *Node) Logger() *argio.Logger { return n.logger }

// ExitCodes returns the exit code manager for configuration.
func (n *Node) ExitCodes() *ExitCodeManager { return n.exitCodes }

// ErrorHandler returns the error handler for configuration.
func (n *Node) ErrorHandler() *ErrorHandler { return n.errorHandler }

// ExitFunc replaces the function called with the exit code when errors are
// handled.
func (n *Node) ExitFunc(fn func(code int)) *Node {
	n.exit = fn
	return n
}
