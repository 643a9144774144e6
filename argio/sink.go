package argio

import (
	"fmt"
	stdio "io"
	"strings"
	"sync"
)

// Sink receives rendered output one line at a time.
type Sink interface {
	WriteLine(line string)
}

// SinkFunc adapts a plain function to the Sink interface.
type SinkFunc func(line string)

// WriteLine calls f(line).
func (f SinkFunc) WriteLine(line string) { f(line) }

type writerSink struct {
	w stdio.Writer
}

// WriterSink returns a Sink that writes each line followed by a newline to w.
// Write errors are dropped.
func WriterSink(w stdio.Writer) Sink {
	return writerSink{w: w}
}

func (s writerSink) WriteLine(line string) {
	_, _ = fmt.Fprintln(s.w, line)
}

// Lines is an in-memory Sink, safe for concurrent use.
type Lines struct {
	mu    sync.Mutex
	lines []string
}

// WriteLine appends line.
func (l *Lines) WriteLine(line string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, line)
}

// Lines returns a copy of the collected lines.
func (l *Lines) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lines...)
}

// String joins the collected lines with newlines.
func (l *Lines) String() string {
	return strings.Join(l.Lines(), "\n")
}

// WriteLines sends every line of text (split on '\n') to sink.
func WriteLines(sink Sink, text string) {
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		sink.WriteLine(line)
	}
}
