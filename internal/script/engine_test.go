package script

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/pathtree/internal/pattern"
	"github.com/dshills/pathtree/internal/store"
)

func newTestEngine(t *testing.T, root any) (*Engine, *store.Store, *bytes.Buffer) {
	t.Helper()
	s, err := store.New(root)
	require.NoError(t, err)
	var out bytes.Buffer
	e := New(s, WithOutput(&out))
	t.Cleanup(e.Close)
	return e, s, &out
}

func run(t *testing.T, e *Engine, code string) {
	t.Helper()
	require.NoError(t, e.DoString(context.Background(), code))
}

func TestEngine_GetSet(t *testing.T) {
	e, s, out := newTestEngine(t, map[string]any{"user": map[string]any{"name": "ada"}})

	run(t, e, `
		print(pathtree.get("user.name"))
		pathtree.set("user.age", 36)
		pathtree.set("user.tags", {"a", "b"})
		pathtree.set("user.meta", {x = 1.5})
		print(pathtree.get("missing"))
	`)
	assert.Equal(t, "ada\nnil\n", out.String())

	v, _ := s.Get(pattern.ParsePath("user.age"))
	assert.Equal(t, int64(36), v)
	v, _ = s.Get(pattern.ParsePath("user.tags.1"))
	assert.Equal(t, "b", v)
	v, _ = s.Get(pattern.ParsePath("user.meta.x"))
	assert.Equal(t, 1.5, v)
}

func TestEngine_Containers(t *testing.T) {
	e, _, out := newTestEngine(t, map[string]any{"list": []any{3, 1, 2}})

	run(t, e, `
		local t = pathtree.get("list")
		print(#t, t[1])
		print(pathtree.push("list", 4, 5))
		print(pathtree.pop("list"))
		pathtree.sort("list")
		print(table.concat(pathtree.get("list"), ","))
		pathtree.sort("list", function(a, b) return a > b end)
		print(table.concat(pathtree.get("list"), ","))
		print(pathtree.len("list"), table.concat(pathtree.keys(""), ","))
	`)
	assert.Equal(t, "3\t3\n5\n5\n1,2,3,4\n4,3,2,1\n4\tlist\n", out.String())
}

func TestEngine_Listeners(t *testing.T) {
	e, s, out := newTestEngine(t, map[string]any{})

	run(t, e, `
		id = pathtree.on("*", function(path, ...)
			if select("#", ...) == 0 then
				print("delete", path)
			else
				print("set", path, ...)
			end
		end)
		batched = pathtree.on_batched("**", function(p) print("batch", p) end)

		pathtree.set("x", 1)
		pathtree.delete("x")
	`)
	assert.Equal(t, "set\tx\t1\ndelete\tx\n", out.String())
	assert.Equal(t, 2, e.Listeners())

	out.Reset()
	assert.Equal(t, 1, s.Tick())
	assert.Equal(t, "batch\t**\n", out.String())

	out.Reset()
	run(t, e, `
		print(pathtree.off(id), pathtree.off(id))
		pathtree.set("y", 2)
		print(pathtree.flush())
	`)
	assert.Equal(t, "true\tfalse\nbatch\t**\n1\n", out.String())
	assert.Equal(t, 1, e.Listeners())
}

func TestEngine_PatternTable(t *testing.T) {
	e, _, out := newTestEngine(t, map[string]any{"list": []any{1}})

	run(t, e, `
		pathtree.on({"list", 0}, function(path, v) print(path, v) end)
		pathtree.set("list.0", 7)
	`)
	assert.Equal(t, "list.0\t7\n", out.String())
}

func TestEngine_Errors(t *testing.T) {
	e, _, _ := newTestEngine(t, map[string]any{"n": 1})

	assert.Error(t, e.DoString(context.Background(), `pathtree.set("a.b", 1)`))
	assert.Error(t, e.DoString(context.Background(), `pathtree.push("n", 1)`))
	assert.Error(t, e.DoString(context.Background(), `pathtree.on("**.x.**", print)`))
	assert.Error(t, e.DoString(context.Background(), `pathtree.on(1, print)`))

}

func TestEngine_CallbackErrors(t *testing.T) {
	e, s, out := newTestEngine(t, map[string]any{"n": 1})

	run(t, e, `
		pathtree.on("n", function() error("boom") end)
		pathtree.on("n", function(path) print("second", path) end)
	`)

	err := e.DoString(context.Background(), `
		pathtree.set("n", 2)
		print("not reached")
	`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Empty(t, out.String(), "the failing listener aborts the pass and the script")
	require.Len(t, e.Errors(), 1)
	assert.ErrorIs(t, e.Errors()[0], ErrCallback)

	// Outside a script the error is only collected.
	require.NoError(t, s.Root().Set("n", 3))
	require.Len(t, e.Errors(), 2)
	assert.Equal(t, "second\tn\n", out.String())
}

func TestEngine_Sandbox(t *testing.T) {
	e, _, _ := newTestEngine(t, map[string]any{})

	for _, code := range []string{
		`os.exit(1)`,
		`io.open("/etc/passwd")`,
		`dofile("x.lua")`,
		`load("return 1")`,
		`require("os")`,
	} {
		assert.Error(t, e.DoString(context.Background(), code), code)
	}
	run(t, e, `assert(string.upper("a") == "A" and math.floor(1.5) == 1)`)
}

func TestEngine_Timeout(t *testing.T) {
	s, err := store.New(map[string]any{})
	require.NoError(t, err)
	e := New(s, WithTimeout(50*time.Millisecond))
	defer e.Close()

	assert.Error(t, e.DoString(context.Background(), `while true do end`))
}

func TestEngine_Closed(t *testing.T) {
	s, err := store.New(map[string]any{})
	require.NoError(t, err)
	e := New(s)

	run(t, e, `pathtree.on("x", print)`)
	e.Close()
	e.Close()

	assert.Equal(t, 0, e.Listeners())
	assert.Equal(t, 0, s.Registry().Stats().Listeners)
	assert.ErrorIs(t, e.DoString(context.Background(), `x = 1`), ErrClosed)
}
