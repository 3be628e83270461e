package document

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

func keysOf(t *testing.T, v any) []string {
	t.Helper()
	m, ok := v.(*orderedmap.OrderedMap[string, any])
	require.True(t, ok, "got %T", v)
	var keys []string
	for p := m.Oldest(); p != nil; p = p.Next() {
		keys = append(keys, p.Key)
	}
	return keys
}

func TestFormatOf(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"a.json", FormatJSON},
		{"dir/a.JSONC", FormatJSONC},
		{"a.yml", FormatYAML},
		{"a.yaml", FormatYAML},
		{"a.toml", FormatTOML},
	}
	for _, tt := range tests {
		got, err := FormatOf(tt.path)
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.want, got, tt.path)
	}

	_, err := FormatOf("Makefile")
	assert.ErrorIs(t, err, ErrUnknownFormat)
	_, err = FormatOf("a.txt")
	assert.ErrorIs(t, err, ErrUnknownFormat)

	assert.Equal(t, "yaml", FormatYAML.String())
	assert.Equal(t, "unknown", Format(99).String())
}

func TestDecode_JSON(t *testing.T) {
	v, err := Decode([]byte(`{"z":1,"a":[true,null,"s"],"m":{"k":2.5}}`), FormatJSON, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "a", "m"}, keysOf(t, v))

	m := v.(*orderedmap.OrderedMap[string, any])
	z, _ := m.Get("z")
	assert.Equal(t, float64(1), z)
	a, _ := m.Get("a")
	assert.Equal(t, []any{true, nil, "s"}, a)
}

func TestDecode_JSONSelector(t *testing.T) {
	data := []byte(`{"users":[{"name":"ada"},{"name":"grace"}]}`)

	v, err := Decode(data, FormatJSON, "users.1")
	require.NoError(t, err)
	assert.Equal(t, []string{"name"}, keysOf(t, v))

	v, err = Decode(data, FormatJSON, "users.#.name")
	require.NoError(t, err)
	assert.Equal(t, []any{"ada", "grace"}, v)

	_, err = Decode(data, FormatJSON, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDecode_InvalidJSON(t *testing.T) {
	_, err := Decode([]byte(`{"a":`), FormatJSON, "")
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, FormatJSON, pe.Format)
}

func TestDecode_JSONC(t *testing.T) {
	data := []byte(`{
		// comment
		"a": 1, /* block */
		"b": [1, 2,],
	}`)
	v, err := Decode(data, FormatJSONC, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keysOf(t, v))
}

func TestDecode_YAML(t *testing.T) {
	data := []byte(`
zeta: 1
alpha:
  list: [a, b]
  shared: &s {x: 1}
  again: *s
`)
	v, err := Decode(data, FormatYAML, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "alpha"}, keysOf(t, v))

	alpha, err := Select(v, "alpha")
	require.NoError(t, err)
	shared, _ := alpha.(*orderedmap.OrderedMap[string, any]).Get("shared")
	again, _ := alpha.(*orderedmap.OrderedMap[string, any]).Get("again")
	assert.Same(t, shared, again, "aliases share one value")

	item, err := Decode(data, FormatYAML, "alpha.list.1")
	require.NoError(t, err)
	assert.Equal(t, "b", item)

	_, err = Decode(data, FormatYAML, "alpha.list.9")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = Decode([]byte("a: [1"), FormatYAML, "")
	var pe *ParseError
	assert.ErrorAs(t, err, &pe)
}

func TestDecode_TOML(t *testing.T) {
	data := []byte(`
title = "x"

[server]
port = 8080
`)
	v, err := Decode(data, FormatTOML, "")
	require.NoError(t, err)
	m, ok := v.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "x", m["title"])

	port, err := Decode(data, FormatTOML, "server.port")
	require.NoError(t, err)
	assert.Equal(t, int64(8080), port)

	_, err = Decode([]byte("a = \nb = 1"), FormatTOML, "")
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Positive(t, pe.Line)
}

func TestLoader(t *testing.T) {
	fsys := FS{FS: fstest.MapFS{
		"doc.json":  {Data: []byte(`{"a":{"b":1}}`)},
		"doc.yaml":  {Data: []byte("a:\n  b: 2\n")},
		"plain.txt": {Data: []byte(`{"a":3}`)},
	}}

	v, err := NewLoader(WithFS(fsys), WithSelect("a.b")).Load("doc.json")
	require.NoError(t, err)
	assert.Equal(t, float64(1), v)

	v, err = NewLoader(WithFS(fsys), WithSelect("a.b")).Load("doc.yaml")
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	_, err = NewLoader(WithFS(fsys)).Load("plain.txt")
	assert.ErrorIs(t, err, ErrUnknownFormat)

	v, err = NewLoader(WithFS(fsys), WithFormat(FormatJSON), WithSelect("a")).Load("plain.txt")
	require.NoError(t, err)
	assert.Equal(t, float64(3), v)

	_, err = NewLoader(WithFS(fsys)).Load("missing.json")
	assert.Error(t, err)
}

func TestEncode(t *testing.T) {
	doc, err := Decode([]byte(`{"z":1,"a":{"b":[1,2]}}`), FormatJSON, "")
	require.NoError(t, err)

	data, err := Encode(doc, FormatJSON, EncodeOptions{})
	require.NoError(t, err)
	assert.Equal(t, `{"z":1,"a":{"b":[1,2]}}`, string(data))

	data, err = Encode(doc, FormatJSON, EncodeOptions{Pretty: true})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "{\n  \"z\": 1,"))

	data, err = Encode(doc, FormatYAML, EncodeOptions{})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "z: 1\na:\n"), string(data))
	back, err := Decode(data, FormatYAML, "a.b")
	require.NoError(t, err)
	assert.Equal(t, []any{1, 2}, back)

	data, err = Encode(doc, FormatTOML, EncodeOptions{})
	require.NoError(t, err)
	back, err = Decode(data, FormatTOML, "a.b")
	require.NoError(t, err)
	assert.Equal(t, []any{float64(1), float64(2)}, back, "JSON numbers are floats")

	_, err = Encode([]any{1}, FormatTOML, EncodeOptions{})
	assert.ErrorIs(t, err, ErrUnsupported)
}
