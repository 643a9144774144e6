// Package argtree parses command lines against a tree of sub-commands with
// typed flags.
//
// A parse splits the token list at the first token naming a child of the
// current node, matches the tokens before it against the node's flags
// (name=value ligatures first, then separated and flag-only spellings) and
// continues in the child with the remaining tokens. The node reached last
// owns the invocation: missing mandatory flags are collected across the whole
// chain, defaults are injected and the node's handler runs.
//
//	root := argtree.New("tool", "Example tool")
//	svc := root.Command("service", "Manage the service")
//	svc.Command("start", "Start it").
//		NumberFlag("port", "Port to listen on").Short('p').Default(3000).Back().
//		Action(func(ctx *argtree.Context) error {
//			port, _ := ctx.Args().Int("port")
//			ctx.Logger().Info("listening on %d", port)
//			return nil
//		})
//
//	res, err := root.Parse([]string{"service", "start", "-p", "8080"})
//
// Values absent from the command line fall back to the environment variables
// listed on the flag, then to an HCL config file attached with ConfigFile,
// then to the declared default.
package argtree
