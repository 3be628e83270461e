package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(append([]string{"--config", "", "--color", "never"}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestMatchCommand(t *testing.T) {
	out, _, err := execute(t, "match", "users.*.name", "users.1.name", "users.1.email", "users.name")
	require.NoError(t, err)
	assert.Equal(t, "true\tusers.1.name\nfalse\tusers.1.email\nfalse\tusers.name\n", out)

	_, _, err = execute(t, "match", "**.x.**", "a")
	assert.Error(t, err)

	_, _, err = execute(t, "match", "a")
	assert.Error(t, err)
}

func TestDumpCommand(t *testing.T) {
	path := writeFile(t, "doc.yaml", "b: 1\na:\n  c: [x, y]\n")

	out, _, err := execute(t, "dump", path)
	require.NoError(t, err)
	assert.Equal(t, "y", gjson.Get(out, "a.c.1").String())
	assert.Less(t, strings.Index(out, `"b"`), strings.Index(out, `"a"`), "key order is kept")

	out, _, err = execute(t, "--select", "a", "--format", "yaml", "dump", path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "c:"), out)

	_, _, err = execute(t, "dump", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, _, err = execute(t, "--format", "xml", "dump", path)
	assert.Error(t, err)
}

func TestRunCommand(t *testing.T) {
	doc := writeFile(t, "doc.json", `{"list":[3,1,2],"name":"a"}`)
	script := writeFile(t, "edit.lua", `
		pathtree.sort("list")
		pathtree.set("name", "b")
		print("done")
	`)

	out, stderr, err := execute(t, "run", "--pattern", "name", "--print", doc, script)
	require.NoError(t, err)
	assert.Contains(t, stderr, "done")

	lines := strings.SplitN(out, "\n", 2)
	require.Len(t, lines, 2)
	assert.Equal(t, `{"seq":1,"op":"set","path":"name","value":"b"}`, lines[0])
	assert.Equal(t, []any{1.0, 2.0, 3.0}, gjson.Get(lines[1], "list").Value())
}

func TestRunCommand_Batched(t *testing.T) {
	doc := writeFile(t, "doc.json", `{"list":[3,1,2]}`)
	script := writeFile(t, "sort.lua", `pathtree.sort("list")`)

	out, _, err := execute(t, "run", "-P", "list.*", "--batched", doc, script)
	require.NoError(t, err)
	assert.Equal(t, `{"seq":1,"op":"batch","pattern":"list.*"}`+"\n", out)
}

func TestRunCommand_ScriptError(t *testing.T) {
	doc := writeFile(t, "doc.json", `{}`)
	script := writeFile(t, "bad.lua", `pathtree.set("a.b", 1)`)

	_, _, err := execute(t, "run", doc, script)
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "--version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "pathtree dev"), out)
}
