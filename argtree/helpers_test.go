package argtree

import (
	"bytes"
	"context"
	"testing"

	"github.com/dzonerzy/go-argtree/argio"
)

type testIO struct {
	io  *argio.IOManager
	out *bytes.Buffer
	err *bytes.Buffer
}

func newTestIO() *testIO {
	var out, errb bytes.Buffer
	return &testIO{
		io:  argio.New().WithOut(&out).WithErr(&errb).WithWidth(80),
		out: &out,
		err: &errb,
	}
}

func noEnv(string) (string, bool) { return "", false }

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

// newTestRoot returns a root writing to buffers and isolated from the
// process environment.
func newTestRoot(t *testing.T, name string, opts ...Option) (*Node, *testIO) {
	t.Helper()
	tio := newTestIO()
	base := []Option{WithIO(tio.io), WithEnvLookup(noEnv), WithExitFunc(func(code int) {
		t.Fatalf("unexpected exit(%d)", code)
	})}
	return New(name, "", append(base, opts...)...), tio
}

func testRun(n *Node) *run {
	return &run{ctx: context.Background(), root: n, logger: n.logger, lookupEnv: n.lookupEnv}
}

// match scans and converts one level the way resolve does.
func (r *run) match(reg *Registry, tokens []string, chain []string) (*levelMatch, error) {
	m := r.scan(reg, tokens)
	if m.help {
		return m, nil
	}
	if err := r.convert(m, chain); err != nil {
		return nil, err
	}
	return m, nil
}

func matchTokens(n *Node, tokens ...string) (*levelMatch, error) {
	return testRun(n).match(n.registry, tokens, nil)
}
