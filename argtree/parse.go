package argtree

import (
	"context"
	"fmt"
	"os"

	"github.com/google/shlex"
	"github.com/zclconf/go-cty/cty"

	"github.com/dzonerzy/go-argtree/argio"
)

// run holds the state of one parse. The node tree is only read.
type run struct {
	ctx       context.Context
	root      *Node
	logger    *argio.Logger
	lookupEnv func(string) (string, bool)
	config    map[string]cty.Value
}

// Parse is ParseContext with a background context.
func (n *Node) Parse(args []string) (*Result, error) {
	return n.ParseContext(context.Background(), args)
}

// ParseLine splits line with shell quoting rules and parses the tokens.
func (n *Node) ParseLine(line string) (*Result, error) {
	args, err := shlex.Split(line)
	if err != nil {
		return nil, n.fail(fmt.Errorf("tokenize %q: %w", line, err), nil, n.exit)
	}
	return n.Parse(args)
}

// ParseContext resolves args against the tree rooted at n, validates and
// dispatches. When n handles errors they are printed to stderr and the exit
// function is called; the error is returned either way. Help output yields
// a Result with HelpShown set.
func (n *Node) ParseContext(ctx context.Context, args []string) (*Result, error) {
	return n.parse(ctx, args, n.exit)
}

func (n *Node) parse(ctx context.Context, args []string, exit func(int)) (*Result, error) {
	r := &run{
		ctx:       ctx,
		root:      n,
		logger:    n.logger,
		lookupEnv: n.lookupEnv,
	}

	res, err := r.resolve(args)
	if err != nil {
		return nil, n.fail(err, res, exit)
	}
	if res.help {
		renderHelp(res.final, n.name, res.chain, n.io.Width(), n.io.OutSink())
		if n.handleErrors {
			exit(n.exitCodes.Resolve(nil))
		}
		return &Result{Values: res.merged, Chain: res.chain, Node: res.final, HelpShown: true}, nil
	}

	if err := r.loadConfig(res.chain); err != nil {
		return nil, n.fail(err, res, exit)
	}
	if err := r.finalize(res); err != nil {
		return nil, n.fail(err, res, exit)
	}

	result, err := r.dispatch(res)
	if err != nil {
		return nil, n.fail(err, res, exit)
	}
	return result, nil
}

// fail reports err when n handles errors and returns it unchanged.
func (n *Node) fail(err error, res *resolution, exit func(int)) error {
	if !n.handleErrors {
		return err
	}
	n.report(err, res)
	exit(n.exitCodes.Resolve(err))
	return err
}

func (n *Node) report(err error, res *resolution) {
	sink := n.io.ErrSink()
	for _, line := range n.errorHandler.Format(err) {
		sink.WriteLine(line)
	}
	if n.errorHandler.showHelpOnError && res != nil {
		sink.WriteLine("")
		renderHelp(res.final, n.name, res.chain, n.io.Width(), sink)
	}
}

// Run parses os.Args[1:] and waits for async handlers.
func (n *Node) Run() error {
	return n.RunContext(context.Background(), os.Args[1:])
}

// RunContext parses args and waits for an async handler. It returns
// ErrHelpShown when help was printed instead of dispatching.
func (n *Node) RunContext(ctx context.Context, args []string) error {
	return n.runWith(ctx, args, n.exit)
}

// RunAndGetExitCode runs args and returns the exit code instead of exiting.
// Errors are still printed when n handles errors.
func (n *Node) RunAndGetExitCode(args []string) int {
	err := n.runWith(context.Background(), args, func(int) {})
	return n.exitCodes.Resolve(err)
}

func (n *Node) runWith(ctx context.Context, args []string, exit func(int)) error {
	result, err := n.parse(ctx, args, exit)
	if err != nil {
		return err
	}
	if result.HelpShown {
		return ErrHelpShown
	}
	if _, err := result.Await(ctx); err != nil {
		return n.fail(err, nil, exit)
	}
	return nil
}
