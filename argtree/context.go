package argtree

import (
	"context"
	"sync"

	"github.com/dzonerzy/go-argtree/argio"
)

// Context is passed to handlers. It carries the values of the resolved node,
// the values inherited from its ancestors, the command chain and the node.
type Context struct {
	ctx    context.Context
	cancel context.CancelFunc

	node   *Node
	chain  []string
	own    Values
	parent Values
	all    Values

	io     *argio.IOManager
	logger *argio.Logger

	mu       sync.RWMutex
	metadata map[string]any
}

// Context returns the Go context of the invocation.
func (c *Context) Context() context.Context { return c.ctx }

// Done is closed when the invocation is canceled.
func (c *Context) Done() <-chan struct{} { return c.ctx.Done() }

// Cancel cancels the invocation context.
func (c *Context) Cancel() { c.cancel() }

// Args returns the values matched, defaulted or filled at the handler's node.
func (c *Context) Args() Values { return c.own }

// ParentArgs returns the values of all ancestor nodes, deeper ones winning.
func (c *Context) ParentArgs() Values { return c.parent }

// All returns the merged values of the whole chain.
func (c *Context) All() Values { return c.all }

// Lookup returns the merged value of name.
func (c *Context) Lookup(name string) (any, bool) {
	v, ok := c.all[name]
	return v, ok
}

// Chain returns the command chain. The slice must not be modified.
func (c *Context) Chain() []string { return c.chain }

// Node returns the node whose handler is running.
func (c *Context) Node() *Node { return c.node }

// IO returns the IO manager of the parse root.
func (c *Context) IO() *argio.IOManager { return c.io }

// Logger returns the logger of the parse root.
func (c *Context) Logger() *argio.Logger { return c.logger }

// Set stores metadata for middleware and handlers.
func (c *Context) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.metadata == nil {
		c.metadata = make(map[string]any)
	}
	c.metadata[key] = value
}

// Get returns metadata stored via Set, or nil.
func (c *Context) Get(key string) any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.metadata[key]
}

// Exit returns an error that makes the process exit with code.
func (c *Context) Exit(code int, err error) error {
	return &ExitError{Code: code, Err: err}
}
