package flagset

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dzonerzy/go-argtree/argio"
	"github.com/dzonerzy/go-argtree/argtree"
)

func testNode() *argtree.Node {
	var out bytes.Buffer
	root := argtree.New("tool", "", argtree.WithIO(argio.New().WithOut(&out).WithErr(&out)))
	root.NumberFlag("port", "Port").Short('p').Default(3000).Back().
		BoolFlag("verbose", "Verbose").Short('v').FlagOnly().Back().
		StringFlag("tag", "Tag").Multiple().Enum("a", "b").Back().
		StringFlag("name", "Name").Required().Env("NAME").Back().
		StringFlag("secret", "").Hidden().Back()
	root.MustFlag(argtree.Flag{Name: "mode", Options: []string{"-m"}, Default: "fast"})
	return root
}

func TestFromNode(t *testing.T) {
	fs, err := FromNode(testNode())
	require.NoError(t, err)

	port := fs.Lookup("port")
	require.NotNil(t, port)
	assert.Equal(t, "p", port.Shorthand)
	assert.Equal(t, "float64", port.Value.Type())
	assert.Equal(t, "3000", port.DefValue)

	assert.Equal(t, "bool", fs.Lookup("verbose").Value.Type())
	assert.Equal(t, "stringArray", fs.Lookup("tag").Value.Type())
	assert.Equal(t, []string{"a", "b"}, fs.Lookup("tag").Annotations[AnnotationChoices])

	name := fs.Lookup("name")
	assert.Equal(t, []string{"true"}, name.Annotations[AnnotationRequired])
	assert.Equal(t, []string{"NAME"}, name.Annotations[AnnotationEnv])

	mode := fs.Lookup("mode")
	require.NotNil(t, mode, "flags without a long spelling use their name")
	assert.Equal(t, "m", mode.Shorthand)
	assert.Equal(t, "fast", mode.DefValue)

	assert.Nil(t, fs.Lookup("secret"))
	assert.Nil(t, fs.Lookup("help"))
}

func TestAddRejectsDuplicates(t *testing.T) {
	fs := pflag.NewFlagSet("x", pflag.ContinueOnError)
	f := &argtree.Flag{Name: "a", Options: []string{"--a", "-a"}, Type: argtree.String}
	require.NoError(t, Add(fs, f))
	assert.Error(t, Add(fs, f))

	// a taken shorthand is dropped rather than redefined
	require.NoError(t, Add(fs, &argtree.Flag{Name: "b", Options: []string{"--b", "-a"}, Type: argtree.String}))
	assert.Equal(t, "", fs.Lookup("b").Shorthand)
}

func TestCollectAndInvoke(t *testing.T) {
	root := testNode()
	var got argtree.Values
	root.Action(func(c *argtree.Context) error {
		got = c.Args()
		return nil
	})

	fs, err := FromNode(root)
	require.NoError(t, err)
	require.NoError(t, fs.Parse([]string{"-p", "8080", "-v", "--tag", "a", "--tag", "b", "--name", "api"}))

	values, err := Collect(fs, root)
	require.NoError(t, err)
	assert.Equal(t, argtree.Values{
		"port":    8080.0,
		"verbose": true,
		"tag":     []any{"a", "b"},
		"name":    "api",
	}, values)

	res, err := root.Invoke(context.Background(), nil, values)
	require.NoError(t, err)
	assert.True(t, res.Handled)
	assert.Equal(t, values, got)
}

func TestCollectConvertsRepeatedAndTypedValues(t *testing.T) {
	root := argtree.New("tool", "")
	root.NumberFlag("weight", "").Multiple().Back().
		ArrayFlag("item", "").Multiple().Back().
		ObjectFlag("meta", "").Back()

	var got argtree.Values
	root.Action(func(c *argtree.Context) error {
		got = c.Args()
		return nil
	})

	fs, err := FromNode(root)
	require.NoError(t, err)
	assert.Equal(t, "stringArray", fs.Lookup("weight").Value.Type())
	require.NoError(t, fs.Parse([]string{"--weight", "1.5", "--weight", "2", "--item", "x", "--item", "y", "--meta", `{"a":1}`}))

	values, err := Collect(fs, root)
	require.NoError(t, err)
	want := argtree.Values{
		"weight": []any{1.5, 2.0},
		"item":   []any{"x", "y"},
		"meta":   map[string]any{"a": 1.0},
	}
	assert.Equal(t, want, values)

	_, err = root.Invoke(context.Background(), nil, values)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, fs.Parse([]string{"--weight", "heavy"}))
	_, err = Collect(fs, root)
	assert.ErrorContains(t, err, "flagset: weight")
}

func TestInvokeUnknownChain(t *testing.T) {
	root := testNode()
	root.Command("run", "")

	_, err := root.Invoke(context.Background(), []string{"run", "fast"}, nil)
	var ue *argtree.UnknownCommandError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "fast", ue.Token)
	assert.Equal(t, []string{"run"}, ue.Chain)
}
