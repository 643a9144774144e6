package argtree

import (
	"errors"
	"io/fs"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// configSource locates an HCL file of flat `flag_name = value` attributes.
type configSource struct {
	path string
	src  []byte
}

// ConfigFile attaches an HCL file consulted for flags absent from the command
// line and environment. A missing file is ignored.
func (n *Node) ConfigFile(path string) *Node {
	n.config = &configSource{path: path}
	return n
}

// ConfigSource attaches in-memory HCL; filename is used in diagnostics.
func (n *Node) ConfigSource(filename string, src []byte) *Node {
	n.config = &configSource{path: filename, src: src}
	return n
}

// load returns the attribute values of the source; nil when the file does not
// exist.
func (c *configSource) load() (map[string]cty.Value, error) {
	parser := hclparse.NewParser()
	var (
		file  *hcl.File
		diags hcl.Diagnostics
	)
	if c.src != nil {
		file, diags = parser.ParseHCL(c.src, c.path)
	} else {
		if _, err := os.Stat(c.path); errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		file, diags = parser.ParseHCLFile(c.path)
	}
	if diags.HasErrors() {
		return nil, diags
	}

	attrs, diags := file.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, diags
	}
	out := make(map[string]cty.Value, len(attrs))
	for name, attr := range attrs {
		v, vd := attr.Expr.Value(nil)
		if vd.HasErrors() {
			return nil, vd
		}
		out[name] = v
	}
	return out, nil
}

// fallback looks up a value for an absent flag: environment first, then the
// config file. ok is false when neither source has one.
func (r *run) fallback(f *Flag, chain []string, soFar Values) (value any, ok bool, err error) {
	for _, name := range f.Env {
		raw, found := r.lookupEnv(name)
		if !found || raw == "" {
			continue
		}
		v, err := r.convertOne(f, raw, chain)
		if err != nil {
			return nil, false, err
		}
		if f.AllowMultiple {
			v = appendValue(nil, f.Type, v)
		}
		v, err = r.check(f, v, chain, soFar)
		return v, err == nil, err
	}

	cv, found := r.config[f.Name]
	if !found {
		return nil, false, nil
	}
	v, err := r.convertConfig(f, cv)
	if err != nil {
		return nil, false, &ValidationError{Flag: f.Name, Value: cv.GoString(), Chain: chain, Message: "bad config value", Err: err}
	}
	v, err = r.check(f, v, chain, soFar)
	return v, err == nil, err
}

func (r *run) convertConfig(f *Flag, cv cty.Value) (any, error) {
	ty := cv.Type()
	if !f.AllowMultiple {
		return convertCty(r.ctx, f.Type, cv)
	}
	if !ty.IsListType() && !ty.IsTupleType() && !ty.IsSetType() {
		v, err := convertCty(r.ctx, f.Type, cv)
		if err != nil {
			return nil, err
		}
		return appendValue(nil, f.Type, v), nil
	}
	var out []any
	for it := cv.ElementIterator(); it.Next(); {
		_, ev := it.Element()
		v, err := convertCty(r.ctx, f.Type, ev)
		if err != nil {
			return nil, err
		}
		out = appendValue(out, f.Type, v)
	}
	return out, nil
}

func (r *run) loadConfig(chain []string) error {
	if r.root.config == nil {
		return nil
	}
	values, err := r.root.config.load()
	if err != nil {
		return &ConfigFileError{Path: r.root.config.path, Chain: chain, Err: err}
	}
	r.config = values
	return nil
}
