// Package argio provides the output plumbing used by argtree: an IOManager
// bound to the process streams, a line-oriented Sink and a leveled Logger.
package argio

import (
	stdio "io"
	"os"
	"strconv"

	"golang.org/x/term"
)

// IOManager centralizes IO and terminal capabilities
type IOManager struct {
	in  stdio.Reader
	out stdio.Writer
	err stdio.Writer

	width int
}

// New returns a manager bound to process stdio
func New() *IOManager {
	return &IOManager{in: os.Stdin, out: os.Stdout, err: os.Stderr}
}

// WithIn sets the input reader used by the manager and returns the manager for chaining.
func (m *IOManager) WithIn(r stdio.Reader) *IOManager { m.in = r; return m }

// WithOut sets the standard output writer and returns the manager for chaining.
func (m *IOManager) WithOut(w stdio.Writer) *IOManager { m.out = w; return m }

// WithErr sets the standard error writer and returns the manager for chaining.
func (m *IOManager) WithErr(w stdio.Writer) *IOManager { m.err = w; return m }

// WithWidth pins the width reported by Width, bypassing terminal detection.
func (m *IOManager) WithWidth(width int) *IOManager { m.width = width; return m }

// In returns the configured input reader.
func (m *IOManager) In() stdio.Reader { return m.in }

// Out returns the configured standard output writer.
func (m *IOManager) Out() stdio.Writer { return m.out }

// Err returns the configured standard error writer.
func (m *IOManager) Err() stdio.Writer { return m.err }

// OutSink returns a Sink writing lines to the standard output writer.
func (m *IOManager) OutSink() Sink { return WriterSink(m.out) }

// ErrSink returns a Sink writing lines to the standard error writer.
func (m *IOManager) ErrSink() Sink { return WriterSink(m.err) }

// IsTTY reports whether the configured output writer is a terminal.
func (m *IOManager) IsTTY() bool {
	f, ok := m.out.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// IsInteractive reports whether input comes from a terminal outside of CI.
func (m *IOManager) IsInteractive() bool {
	f, ok := m.in.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd())) && os.Getenv("CI") == ""
}

// Width returns the output width in columns. Falls back to $COLUMNS, then 80.
func (m *IOManager) Width() int {
	if m.width > 0 {
		return m.width
	}
	if f, ok := m.out.(*os.File); ok {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			return w
		}
	}
	if c := os.Getenv("COLUMNS"); c != "" {
		if w, err := strconv.Atoi(c); err == nil && w > 0 {
			return w
		}
	}
	return 80
}
