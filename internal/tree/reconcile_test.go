package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

func TestReconcile(t *testing.T) {
	root, rec := newTestTree(t, map[string]any{
		"a": 1,
		"b": map[string]any{"c": 2, "gone": true},
		"d": []any{1, 2},
		"x": "old",
	})
	b, _ := root.Child("b")

	want := map[string]any{
		"a": 1,
		"b": map[string]any{"c": 3},
		"d": []any{1},
		"e": true,
	}
	require.NoError(t, root.Reconcile(want))

	assert.Equal(t, []event{
		del("x"),
		del("b.gone"),
		set("b.c", 3),
		set("d.length", 1),
		set("e", true),
	}, rec.events)
	assert.True(t, root.Equal(want))

	same, _ := root.Child("b")
	assert.Same(t, b, same, "matching containers are updated in place")
}

func TestReconcile_GrowsArrays(t *testing.T) {
	root, rec := newTestTree(t, []any{1})

	require.NoError(t, root.Reconcile([]any{1, 2, []any{3}}))
	require.Len(t, rec.events, 3)
	assert.Equal(t, set("1", 2), rec.events[0])
	assert.Equal(t, "2", rec.events[1].path)
	assert.Equal(t, set("length", 3), rec.events[2])
	assert.True(t, root.Equal([]any{1, 2, []any{3}}))
}

func TestReconcile_ReplacesDifferentKinds(t *testing.T) {
	root, rec := newTestTree(t, map[string]any{"v": []any{1}})

	require.NoError(t, root.Reconcile(map[string]any{"v": map[string]any{"k": 1}}))
	require.Len(t, rec.events, 1)
	assert.Equal(t, "v", rec.events[0].path)

	v, _ := root.Child("v")
	assert.Equal(t, KindObject, v.Kind())
}

func TestReconcile_OrderedInput(t *testing.T) {
	root, rec := newTestTree(t, map[string]any{})

	om := orderedmap.New[string, any]()
	om.Set("z", 1)
	om.Set("a", 2)
	require.NoError(t, root.Reconcile(om))

	assert.Equal(t, []event{set("z", 1), set("a", 2)}, rec.events)
	assert.Equal(t, []string{"z", "a"}, root.Keys())
}

func TestReconcile_Errors(t *testing.T) {
	root, _ := newTestTree(t, map[string]any{})

	assert.ErrorIs(t, root.Reconcile(1), ErrNotContainer)
	assert.ErrorIs(t, root.Reconcile([]any{}), ErrKindMismatch)
}

func TestReconcile_CyclicDocument(t *testing.T) {
	m := map[string]any{"x": 1}
	m["self"] = m
	root, rec := newTestTree(t, m)

	doc := map[string]any{"x": 2}
	doc["self"] = doc
	require.NoError(t, root.Reconcile(doc))

	assert.Equal(t, []event{set("x", 2)}, rec.events)
	self, _ := root.Child("self")
	assert.Same(t, root, self)
}
