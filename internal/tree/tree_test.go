package tree

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/pathtree/internal/pattern"
)

type event struct {
	path string
	args []any
}

type recorder struct {
	events []event
}

func (r *recorder) Publish(path pattern.Path, args ...any) {
	r.events = append(r.events, event{path: path.String(), args: args})
}

func (r *recorder) reset() {
	r.events = nil
}

func set(path string, v any) event {
	return event{path: path, args: []any{v}}
}

func del(path string) event {
	return event{path: path}
}

func newTestTree(t *testing.T, v any, opts ...Option) (*Node, *recorder) {
	t.Helper()
	rec := &recorder{}
	root, err := New(rec, opts...).Wrap(v)
	require.NoError(t, err)
	return root, rec
}

func TestWrap(t *testing.T) {
	root, rec := newTestTree(t, map[string]any{
		"a": map[string]any{"b": []any{1, map[string]any{"c": true}}},
		"n": 1,
	})

	assert.Equal(t, KindObject, root.Kind())
	assert.Empty(t, root.Path())
	assert.Empty(t, rec.events, "wrapping publishes nothing")

	v, ok := root.Lookup(pattern.ParsePath("a.b.1"))
	require.True(t, ok)
	n, ok := v.(*Node)
	require.True(t, ok)
	assert.Equal(t, pattern.Path{"a", "b", "1"}, n.Path())
	assert.Equal(t, root, n.Parent().Parent().Parent())

	v, ok = root.Lookup(pattern.ParsePath("a.b.1.c"))
	require.True(t, ok)
	assert.Equal(t, true, v)

	_, ok = root.Lookup(pattern.ParsePath("n.x"))
	assert.False(t, ok)
}

func TestWrap_Errors(t *testing.T) {
	tr := New(nil)
	_, err := tr.Wrap(42)
	assert.ErrorIs(t, err, ErrNotContainer)

	_, err = tr.Wrap(map[string]int{"a": 1})
	assert.ErrorIs(t, err, ErrNotContainer)
}

func TestWrap_Idempotent(t *testing.T) {
	tr := New(nil)
	root, err := tr.Wrap(map[string]any{})
	require.NoError(t, err)

	again, err := tr.Wrap(root)
	require.NoError(t, err)
	assert.Same(t, root, again)
}

func TestWrap_Cycle(t *testing.T) {
	m := map[string]any{"x": 1}
	m["self"] = m

	root, _ := newTestTree(t, m)
	self, ok := root.Child("self")
	require.True(t, ok)
	assert.Same(t, root, self)

	snap, ok := root.Snapshot().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 1, snap["x"])
}

func TestWrap_SharedSubtree(t *testing.T) {
	shared := map[string]any{"v": 1}
	root, _ := newTestTree(t, map[string]any{"a": shared, "b": shared})

	a, _ := root.Child("a")
	b, _ := root.Child("b")
	assert.Same(t, a, b)
}

func TestNode_SetPublishes(t *testing.T) {
	root, rec := newTestTree(t, map[string]any{"a": map[string]any{}})
	a, _ := root.Child("a")

	require.NoError(t, root.Set("x", 8))
	require.NoError(t, a.Set("y", "z"))

	assert.Equal(t, []event{set("x", 8), set("a.y", "z")}, rec.events)
	assert.Equal(t, []string{"a", "x"}, root.Keys())
}

func TestNode_SetWrapsContainers(t *testing.T) {
	root, rec := newTestTree(t, map[string]any{})

	require.NoError(t, root.Set("obj", map[string]any{"k": []any{1}}))
	require.Len(t, rec.events, 1)

	n, ok := rec.events[0].args[0].(*Node)
	require.True(t, ok, "the published value is the stored node")
	assert.Equal(t, pattern.Path{"obj"}, n.Path())

	v, ok := root.Lookup(pattern.ParsePath("obj.k.0"))
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestNode_Delete(t *testing.T) {
	root, rec := newTestTree(t, map[string]any{"a": 1, "b": []any{1, 2}})

	require.NoError(t, root.Delete("a"))
	require.NoError(t, root.Delete("missing"))
	assert.Equal(t, []event{del("a"), del("missing")}, rec.events)
	assert.False(t, root.Has("a"))

	rec.reset()
	b, _ := root.Child("b")
	require.NoError(t, b.Delete("0"))
	assert.Equal(t, []event{del("b.0")}, rec.events)
	assert.Equal(t, 2, b.Len(), "deleting an index leaves a hole")
	v, ok := b.Index(0)
	assert.True(t, ok)
	assert.Nil(t, v)

	assert.ErrorIs(t, b.Delete("x"), ErrInvalidKey)
}

func TestNode_Reparent(t *testing.T) {
	root, rec := newTestTree(t, map[string]any{
		"a": map[string]any{"b": map[string]any{"c": 1}},
	})
	a, _ := root.Child("a")
	b, _ := a.Child("b")

	require.NoError(t, root.Set("moved", b))
	assert.Same(t, root, b.Parent())
	assert.Equal(t, pattern.Path{"moved"}, b.Path())

	require.NoError(t, b.Set("c", 2))
	assert.Equal(t, set("moved.c", 2), rec.events[len(rec.events)-1])
}

func TestNode_ReparentUnderDescendant(t *testing.T) {
	root, _ := newTestTree(t, map[string]any{"a": map[string]any{"b": map[string]any{}}})
	a, _ := root.Child("a")
	b, _ := a.Child("b")

	require.NoError(t, b.Set("loop", a))
	assert.Same(t, root, a.Parent(), "an ancestor keeps its location")
	assert.Equal(t, pattern.Path{"a", "b"}, b.Path())

	got, ok := b.Child("loop")
	require.True(t, ok)
	assert.Same(t, a, got)
}

func TestNode_OtherTreeIsCopied(t *testing.T) {
	other, _ := newTestTree(t, map[string]any{"v": 1})
	root, _ := newTestTree(t, map[string]any{})

	require.NoError(t, root.Set("copy", other))
	c, ok := root.Child("copy")
	require.True(t, ok)
	assert.NotSame(t, other, c)
	assert.Same(t, root.Tree(), c.Tree())
	assert.True(t, c.Equal(map[string]any{"v": 1}))
}

func TestNode_SuppressUnchanged(t *testing.T) {
	root, rec := newTestTree(t, map[string]any{"a": 1}, WithSuppressUnchanged(true))

	require.NoError(t, root.Set("a", 1))
	assert.Empty(t, rec.events)

	require.NoError(t, root.Set("a", 2))
	assert.Equal(t, []event{set("a", 2)}, rec.events)

	plain, rec2 := newTestTree(t, map[string]any{"a": 1})
	require.NoError(t, plain.Set("a", 1))
	assert.Len(t, rec2.events, 1, "every write publishes by default")
}

func TestNode_ArrayKeys(t *testing.T) {
	root, rec := newTestTree(t, []any{1, 2, 3})

	assert.ErrorIs(t, root.Set("01", 1), ErrInvalidKey)
	assert.ErrorIs(t, root.Set("-1", 1), ErrInvalidKey)
	assert.ErrorIs(t, root.SetIndex(-1, 1), ErrInvalidKey)

	v, ok := root.Get(LengthKey)
	require.True(t, ok)
	assert.Equal(t, 3, v)

	require.NoError(t, root.Set("5", "x"))
	assert.Equal(t, 6, root.Len())

	require.NoError(t, root.Set(LengthKey, "2"))
	assert.Equal(t, []any{1, 2}, root.Snapshot())
	assert.Equal(t, []event{set("5", "x"), set("length", 2)}, rec.events)

	assert.ErrorIs(t, root.Set(LengthKey, -1), ErrInvalidKey)
}

func TestNode_MarshalJSON(t *testing.T) {
	root, _ := newTestTree(t, map[string]any{})
	require.NoError(t, root.Set("z", 1))
	require.NoError(t, root.Set("a", []any{true, nil}))
	require.NoError(t, root.Set("m", map[string]any{}))

	data, err := root.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"z":1,"a":[true,null],"m":{}}`, string(data))
	assert.Equal(t, `{"z":1,"a":[true,null],"m":{}}`, string(data), "insertion order is kept")
}

func TestNode_MarshalJSONShared(t *testing.T) {
	shared := map[string]any{"v": 1}
	root, _ := newTestTree(t, map[string]any{"a": shared, "b": shared, "e": []any{}})

	data, err := json.Marshal(root)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":{"v":1},"b":{"v":1},"e":[]}`, string(data))
}

func TestNode_MarshalJSONCycle(t *testing.T) {
	m := map[string]any{"x": 1}
	m["self"] = m
	root, _ := newTestTree(t, map[string]any{})
	require.NoError(t, root.Set("x", m))

	_, err := root.MarshalJSON()
	assert.ErrorIs(t, err, ErrCycle)

	_, err = json.Marshal(root)
	assert.ErrorIs(t, err, ErrCycle)

	// An ancestor stored under its descendant is a cycle as well.
	root, _ = newTestTree(t, map[string]any{"b": map[string]any{}})
	b, _ := root.Child("b")
	require.NoError(t, b.Set("up", root))
	_, err = root.MarshalJSON()
	assert.ErrorIs(t, err, ErrCycle)
}

func TestNode_EqualCycle(t *testing.T) {
	root, _ := newTestTree(t, map[string]any{"b": map[string]any{}})
	b, _ := root.Child("b")
	require.NoError(t, b.Set("up", root))
	assert.True(t, root.Equal(root))

	m := map[string]any{"x": 1}
	m["self"] = m
	cyclic, _ := newTestTree(t, m)

	other := map[string]any{"x": 1}
	other["self"] = other
	assert.True(t, cyclic.Equal(other))
	assert.False(t, cyclic.Equal(map[string]any{"x": 1, "self": map[string]any{"x": 1}}))

	list := make([]any, 2)
	list[0] = 1
	list[1] = list
	arr, _ := newTestTree(t, list)
	assert.True(t, arr.Equal(list))
	assert.False(t, cyclic.Equal(list))
}

func TestIsNodeAndPathOf(t *testing.T) {
	root, _ := newTestTree(t, map[string]any{"a": []any{}})
	a, _ := root.Child("a")

	assert.True(t, IsNode(a))
	assert.False(t, IsNode(map[string]any{}))

	p, ok := PathOf(a)
	require.True(t, ok)
	assert.Equal(t, pattern.Path{"a"}, p)

	_, ok = PathOf(1)
	assert.False(t, ok)
}
