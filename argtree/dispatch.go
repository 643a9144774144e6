package argtree

import (
	"context"
	"errors"
	"slices"

	"github.com/dzonerzy/go-argtree/middleware"
)

// Result is the outcome of a successful parse.
type Result struct {
	// Values holds every flag of the chain plus CommandChainKey when the
	// chain is not empty.
	Values Values
	Chain  []string
	// Node is the node the tokens resolved to.
	Node *Node
	// Handled is true when a handler was invoked.
	Handled bool
	// HelpShown is true when help replaced validation and dispatch.
	HelpShown bool
	// Pending is set for async handlers. The caller owns it.
	Pending *Pending[any]

	cancel context.CancelFunc
}

// Await waits for an async handler. It returns immediately for sync and
// unhandled results. When Await returns, the handler's context is canceled,
// including when ctx expires before the handler finishes.
func (r *Result) Await(ctx context.Context) (any, error) {
	if r.Pending == nil {
		return nil, nil
	}
	if r.cancel != nil {
		defer r.cancel()
	}
	return r.Pending.Await(ctx)
}

var errNilPending = errors.New("async handler returned a nil pending result")

func (r *run) dispatch(res *resolution) (*Result, error) {
	values := res.merged.Clone()
	if len(res.chain) > 0 {
		values[CommandChainKey] = slices.Clone(res.chain)
	}
	result := &Result{Values: values, Chain: res.chain, Node: res.final}

	node := res.final
	if node.handler == nil && node.asyncHandler == nil {
		return result, nil
	}

	ctx, cancel := context.WithCancel(r.ctx)
	hctx := &Context{
		ctx:    ctx,
		cancel: cancel,
		node:   node,
		chain:  res.chain,
		own:    res.levels[len(res.levels)-1].values.Clone(),
		parent: res.inherited(),
		all:    values,
		io:     r.root.io,
		logger: r.logger,
	}
	result.Handled = true

	if node.asyncHandler != nil {
		p := node.asyncHandler(hctx)
		if p == nil {
			cancel()
			return nil, errNilPending
		}
		go func() {
			select {
			case <-p.Done():
			case <-ctx.Done():
			}
			cancel()
		}()
		result.Pending = p
		result.cancel = cancel
		return result, nil
	}

	defer cancel()
	h := node.handler
	action := middleware.ActionFunc(func(mc middleware.Context) error {
		return h(mc.(*Context))
	})
	if err := chainMiddleware(node, r.root).Apply(action)(hctx); err != nil {
		return nil, err
	}
	return result, nil
}

// Invoke runs the handler of the node reached by following chain from n with
// values supplied by another front end. Matching, fallbacks and mandatory
// checks are skipped; middleware still applies.
func (n *Node) Invoke(ctx context.Context, chain []string, values Values) (*Result, error) {
	node := n
	for i, name := range chain {
		child, ok := node.children.Get(name)
		if !ok {
			return nil, &UnknownCommandError{Token: name, Chain: slices.Clone(chain[:i]), Candidates: node.childNames()}
		}
		node = child
	}
	chain = slices.Clone(chain)
	merged := values.Clone()
	delete(merged, CommandChainKey)

	res := &resolution{
		final:  node,
		chain:  chain,
		merged: merged,
		levels: []*level{{node: node, values: merged.Clone(), chain: chain}},
	}
	r := &run{ctx: ctx, root: n, logger: n.logger, lookupEnv: n.lookupEnv}
	return r.dispatch(res)
}

// chainMiddleware collects middleware from root down to n.
func chainMiddleware(n, root *Node) middleware.MiddlewareChain {
	var nodes []*Node
	for cur := n; cur != nil; cur = cur.parent {
		nodes = append(nodes, cur)
		if cur == root {
			break
		}
	}
	var chain middleware.MiddlewareChain
	for i := len(nodes) - 1; i >= 0; i-- {
		chain = chain.Use(nodes[i].middleware...)
	}
	return chain
}
