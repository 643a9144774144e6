package argtree

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func phaseTree(t *testing.T) *Node {
	t.Helper()
	root, _ := newTestRoot(t, "pipeline")
	root.StringFlag("phase", "Pipeline phase").Back()
	root.NumberFlag("batch", "Batch size").
		RequiredIf(func(v Values) bool { return v["phase"] != "analysis" }).
		Back()
	return root
}

func TestMandatoryPredicate(t *testing.T) {
	root := phaseTree(t)

	res, err := root.Parse([]string{"--phase", "analysis"})
	require.NoError(t, err)
	assert.False(t, res.Values.Has("batch"))

	_, err = root.Parse([]string{"--phase", "chunking"})
	var me *MissingMandatoryFlagsError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, []string{"batch"}, me.Names())
	assert.Equal(t, ErrorTypeMissingRequired, me.Kind())

	_, err = root.Parse([]string{"--phase", "chunking", "--batch", "10"})
	require.NoError(t, err)
}

func TestMandatoryPredicateSeesWholeChain(t *testing.T) {
	root, _ := newTestRoot(t, "tool")
	root.StringFlag("mode", "").Back()
	root.Command("deploy", "").
		StringFlag("target", "").
		RequiredIf(func(v Values) bool { return v["mode"] == "remote" }).
		Back()

	_, err := root.Parse([]string{"--mode", "local", "deploy"})
	require.NoError(t, err)

	_, err = root.Parse([]string{"--mode", "remote", "deploy"})
	var me *MissingMandatoryFlagsError
	require.ErrorAs(t, err, &me)
	require.Len(t, me.Missing, 1)
	assert.Equal(t, MissingFlag{Flag: "target", Options: []string{"--target"}, Node: "deploy", Chain: []string{"deploy"}}, me.Missing[0])
}

func TestValuelessMandatoryOptionIsMissing(t *testing.T) {
	root, _ := newTestRoot(t, "tool")
	root.StringFlag("name", "").Required().Back()

	_, err := root.Parse([]string{"--name"})
	var me *MissingMandatoryFlagsError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, []string{"name"}, me.Names())
}

func TestMissingMandatoryAggregatesAcrossLevels(t *testing.T) {
	root, _ := newTestRoot(t, "tool")
	root.StringFlag("token", "").Short('t').Required().Back()
	svc := root.Command("svc", "")
	svc.StringFlag("name", "").Required().Back()
	svc.StringFlag("zone", "").Required().Back()

	_, err := root.Parse([]string{"svc", "--zone", "eu"})
	var me *MissingMandatoryFlagsError
	require.ErrorAs(t, err, &me)
	want := []MissingFlag{
		{Flag: "token", Options: []string{"-t", "--token"}, Node: "tool"},
		{Flag: "name", Options: []string{"--name"}, Node: "svc", Chain: []string{"svc"}},
	}
	if diff := cmp.Diff(want, me.Missing); diff != "" {
		t.Errorf("missing mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"svc"}, me.CommandChain())
	assert.EqualError(t, err, "missing mandatory flags: token, name (in svc)")
}

func TestSameNameCheckedOnceByFirstDeclaringNode(t *testing.T) {
	root, _ := newTestRoot(t, "tool")
	root.StringFlag("region", "").Default("eu").Back()
	root.Command("svc", "").StringFlag("region", "").Required().Back()

	// the root declaration owns the name, so its default applies
	res, err := root.Parse([]string{"svc"})
	require.NoError(t, err)
	assert.Equal(t, "eu", res.Values["region"])
}

func TestDefaults(t *testing.T) {
	root, _ := newTestRoot(t, "tool")
	root.NumberFlag("port", "").Default(3000).Back()
	root.StringFlag("tag", "").Multiple().Default("latest").Back()
	root.StringFlag("include", "").Multiple().Default([]string{"a", "b"}).Back()
	root.BoolFlag("verbose", "").FlagOnly().Back()

	res, err := root.Parse(nil)
	require.NoError(t, err)
	want := Values{
		"port":    3000.0,
		"tag":     []any{"latest"},
		"include": []any{"a", "b"},
	}
	if diff := cmp.Diff(want, res.Values); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}

	// defaults are copied per parse
	res.Values["include"].([]any)[0] = "mutated"
	res, err = root.Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, res.Values["include"])
}

func TestDefaultRoundTrip(t *testing.T) {
	root, _ := newTestRoot(t, "tool")
	root.NumberFlag("port", "").Default(3000).Back()
	root.StringFlag("tag", "").Multiple().Default("latest").Back()

	implicit, err := root.Parse(nil)
	require.NoError(t, err)
	explicit, err := root.Parse([]string{"--port", "3000", "--tag", "latest"})
	require.NoError(t, err)
	if diff := cmp.Diff(implicit.Values, explicit.Values); diff != "" {
		t.Errorf("default differs from explicit value (-implicit +explicit):\n%s", diff)
	}
}

func TestRequiredFlagWithDefaultStillRequired(t *testing.T) {
	root, _ := newTestRoot(t, "tool")
	root.NumberFlag("workers", "").Required().Default(4).Back()

	_, err := root.Parse(nil)
	var me *MissingMandatoryFlagsError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, []string{"workers"}, me.Names())
}

func TestEnvFallback(t *testing.T) {
	env := envMap(map[string]string{
		"APP_PORT":  "9090",
		"APP_EMPTY": "",
		"APP_TOKEN": "secret",
		"APP_TAGS":  "x",
		"APP_BAD":   "abc",
	})
	root, _ := newTestRoot(t, "tool", WithEnvLookup(env))
	root.NumberFlag("port", "").Env("APP_PORT").Default(80).Back()
	root.StringFlag("token", "").Env("APP_MISSING", "APP_EMPTY", "APP_TOKEN").Required().Back()
	root.StringFlag("tag", "").Multiple().Env("APP_TAGS").Back()

	res, err := root.Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, 9090.0, res.Values["port"])
	assert.Equal(t, "secret", res.Values["token"])
	assert.Equal(t, []any{"x"}, res.Values["tag"])

	res, err = root.Parse([]string{"--port", "1"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Values["port"])

	bad, _ := newTestRoot(t, "tool", WithEnvLookup(env))
	bad.NumberFlag("size", "").Env("APP_BAD").Back()
	_, err = bad.Parse(nil)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "size", ve.Flag)
	assert.Equal(t, "abc", ve.Value)
}

func TestEnvFallbackChecksEnum(t *testing.T) {
	root, _ := newTestRoot(t, "tool", WithEnvLookup(envMap(map[string]string{"STAGE": "qa"})))
	root.StringFlag("stage", "").Multiple().Enum("dev", "prod").Env("STAGE").Back()

	_, err := root.Parse(nil)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.EqualError(t, err, `invalid value for flag "stage": "qa" is not one of "dev", "prod"`)
}

func configTree(t *testing.T, opts ...Option) *Node {
	t.Helper()
	root, _ := newTestRoot(t, "tool", opts...)
	root.NumberFlag("port", "").Default(80).Back()
	root.StringFlag("tag", "").Multiple().Back()
	root.BoolFlag("verbose", "").FlagOnly().Back()
	root.StringFlag("name", "").Back()
	return root
}

func TestConfigSource(t *testing.T) {
	root := configTree(t)
	root.ConfigSource("tool.hcl", []byte(`
port    = 8080
tag     = ["a", "b"]
verbose = true
name    = 42
unused  = "ignored"
`))

	res, err := root.Parse(nil)
	require.NoError(t, err)
	want := Values{
		"port":    8080.0,
		"tag":     []any{"a", "b"},
		"verbose": true,
		"name":    "42",
	}
	if diff := cmp.Diff(want, res.Values); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}

	res, err = root.Parse([]string{"--port", "1", "--tag", "c"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Values["port"])
	assert.Equal(t, []any{"c"}, res.Values["tag"])
}

func TestEnvBeatsConfig(t *testing.T) {
	root, _ := newTestRoot(t, "tool", WithEnvLookup(envMap(map[string]string{"PORT": "9"})))
	root.NumberFlag("port", "").Env("PORT").Back()
	root.StringFlag("name", "").Env("NAME").Back()
	root.ConfigSource("tool.hcl", []byte("port = 8080\nname = \"cfg\"\n"))

	res, err := root.Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, 9.0, res.Values["port"])
	assert.Equal(t, "cfg", res.Values["name"])
}

func TestConfigSourceSatisfiesMandatory(t *testing.T) {
	root, _ := newTestRoot(t, "tool")
	root.StringFlag("token", "").Required().Back()
	root.ConfigSource("tool.hcl", []byte(`token = "abc"`))

	res, err := root.Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, "abc", res.Values["token"])
}

func TestEmptyConfigSequenceCountsAsAbsent(t *testing.T) {
	root, _ := newTestRoot(t, "tool")
	root.StringFlag("tag", "").Multiple().Required().Back()
	root.ConfigSource("tool.hcl", []byte(`tag = []`))

	_, err := root.Parse(nil)
	var me *MissingMandatoryFlagsError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, []string{"tag"}, me.Names())
}

func TestMalformedConfig(t *testing.T) {
	root := configTree(t)
	root.ConfigSource("broken.hcl", []byte(`port = `))

	_, err := root.Parse(nil)
	var ce *ConfigFileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "broken.hcl", ce.Path)
	assert.Equal(t, ErrorTypeConfigFile, ce.Kind())
}

func TestBadConfigValue(t *testing.T) {
	root := configTree(t)
	root.ConfigSource("tool.hcl", []byte(`port = "eighty"`))

	_, err := root.Parse(nil)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "port", ve.Flag)
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()

	root := configTree(t)
	root.ConfigFile(filepath.Join(dir, "missing.hcl"))
	res, err := root.Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, 80.0, res.Values["port"])

	path := filepath.Join(dir, "tool.hcl")
	require.NoError(t, os.WriteFile(path, []byte("port = 5432\n"), 0o600))
	root.ConfigFile(path)
	res, err = root.Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, 5432.0, res.Values["port"])
}
