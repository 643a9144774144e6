package argtree

import (
	"fmt"
	"strings"

	"github.com/dzonerzy/go-argtree/argio"
)

const maxFlagColumn = 36

// WriteHelp renders the help of n, as reached from its root, to sink.
func (n *Node) WriteHelp(sink argio.Sink) {
	root := n
	for root.parent != nil {
		root = root.parent
	}
	renderHelp(n, root.name, n.Path(), n.io.Width(), sink)
}

// renderHelp writes an indentation-based description of node: description,
// usage line, flags and sub-commands.
func renderHelp(node *Node, prog string, chain []string, width int, sink argio.Sink) {
	if node.description != "" {
		argio.WriteLines(sink, node.description)
		sink.WriteLine("")
	}

	flags := node.Flags()
	children := node.Children()

	usage := append([]string{prog}, chain...)
	if len(flags) > 0 {
		usage = append(usage, "[FLAGS]")
	}
	if len(children) > 0 {
		if node.handler != nil || node.asyncHandler != nil {
			usage = append(usage, "[COMMAND]")
		} else {
			usage = append(usage, "COMMAND")
		}
	}
	sink.WriteLine("Usage:")
	sink.WriteLine("  " + strings.TrimSpace(strings.Join(usage, " ")))

	if len(flags) > 0 {
		sink.WriteLine("")
		sink.WriteLine("Flags:")
		lefts := make([]string, len(flags))
		col := 0
		for i, f := range flags {
			lefts[i] = flagSpelling(f)
			if l := len(lefts[i]); l > col && l <= maxFlagColumn {
				col = l
			}
		}
		for i, f := range flags {
			writeEntry(sink, lefts[i], flagDetails(f), col, width)
		}
	}

	if len(children) > 0 {
		sink.WriteLine("")
		sink.WriteLine("Commands:")
		col := 0
		for _, c := range children {
			col = max(col, len(c.name))
		}
		for _, c := range children {
			writeEntry(sink, c.name, c.description, col, width)
		}
		sink.WriteLine("")
		sink.WriteLine(fmt.Sprintf("Use \"%s COMMAND --help\" for more information about a command.",
			strings.Join(append([]string{prog}, chain...), " ")))
	}
}

// writeEntry writes "  left  text", moving text to its own line when left
// is too wide or the line would exceed width.
func writeEntry(sink argio.Sink, left, text string, col, width int) {
	if text == "" {
		sink.WriteLine("  " + left)
		return
	}
	if len(left) > col || 4+col+len(text) > width {
		sink.WriteLine("  " + left)
		sink.WriteLine("      " + text)
		return
	}
	sink.WriteLine("  " + left + strings.Repeat(" ", col-len(left)+2) + text)
}

func flagSpelling(f *Flag) string {
	s := strings.Join(f.Options, ", ")
	if !f.FlagOnly {
		s += " <" + TypeName(f.Type) + ">"
	}
	return s
}

func flagDetails(f *Flag) string {
	parts := make([]string, 0, 5)
	if f.Description != "" {
		parts = append(parts, f.Description)
	}
	switch {
	case f.Mandatory && f.MandatoryIf == nil:
		parts = append(parts, "(required)")
	case f.MandatoryIf != nil:
		parts = append(parts, "(conditionally required)")
	}
	if f.AllowMultiple {
		parts = append(parts, "(repeatable)")
	}
	if f.HasDefault() {
		parts = append(parts, "[default: "+formatValue(f.Default)+"]")
	}
	if len(f.Enum) > 0 {
		parts = append(parts, "[choices: "+formatList(f.Enum)+"]")
	}
	if len(f.Env) > 0 {
		parts = append(parts, "[env: "+strings.Join(f.Env, ", ")+"]")
	}
	return strings.Join(parts, " ")
}

func formatValue(v any) string {
	switch t := v.(type) {
	case string:
		return fmt.Sprintf("%q", t)
	case []any:
		return "[" + formatList(t) + "]"
	default:
		return fmt.Sprintf("%v", t)
	}
}

func formatList(vals []any) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = formatValue(v)
	}
	return strings.Join(parts, ", ")
}
