package tree

import (
	"fmt"
	"maps"
	"reflect"
	"slices"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Reconcile updates n in place until it holds the same content as doc,
// publishing only the changes. Keys missing from doc are deleted first, then
// doc's keys are visited in order: nested containers of the same kind are
// reconciled recursively and every other differing value is overwritten.
// Arrays are matched by index and then resized through their length.
func (n *Node) Reconcile(doc any) error {
	doc = plainOf(doc)
	if !IsContainer(doc) {
		return fmt.Errorf("reconcile %T: %w", doc, ErrNotContainer)
	}
	if kindOf(doc) != n.kind {
		return fmt.Errorf("reconcile %s with %s: %w", n.kind, kindOf(doc), ErrKindMismatch)
	}
	n.reconcile(doc, make(map[reconciled]bool))
	return nil
}

// reconciled identifies a node already brought in line with a document
// container, so cyclic documents are visited once.
type reconciled struct {
	node *Node
	doc  uintptr
	len  int
}

func (n *Node) reconcile(doc any, seen map[reconciled]bool) {
	dv := reflect.ValueOf(doc)
	k := reconciled{node: n, doc: dv.Pointer()}
	if dv.Kind() == reflect.Slice {
		k.len = dv.Len()
	}
	if seen[k] {
		return
	}
	seen[k] = true

	if n.kind == KindArray {
		n.reconcileArray(doc.([]any), seen)
		return
	}

	keys, values := entries(doc)
	want := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		want[k] = struct{}{}
	}
	for _, k := range n.Keys() {
		if _, ok := want[k]; !ok {
			n.remove(k)
		}
	}
	for i, k := range keys {
		n.reconcileKey(k, values[i], seen)
	}
}

func (n *Node) reconcileArray(doc []any, seen map[reconciled]bool) {
	common := min(len(n.array), len(doc))
	for i := 0; i < common; i++ {
		n.reconcileKey(indexKey(i), doc[i], seen)
	}
	for i := common; i < len(doc); i++ {
		n.write(indexKey(i), doc[i])
	}
	if len(doc) != len(n.array) {
		n.setLength(len(doc))
	}
}

func (n *Node) reconcileKey(key string, want any, seen map[reconciled]bool) {
	cur, ok := n.Get(key)
	if ok {
		if c, isNode := cur.(*Node); isNode && IsContainer(want) && kindOf(want) == c.kind {
			c.reconcile(want, seen)
			return
		}
		if !IsContainer(want) && sameValue(cur, want) {
			return
		}
	}
	n.write(key, want)
}

func kindOf(v any) Kind {
	if _, ok := v.([]any); ok {
		return KindArray
	}
	return KindObject
}

// entries returns an object's keys in visiting order: insertion order for
// ordered maps and sorted order for plain maps.
func entries(doc any) ([]string, []any) {
	switch m := doc.(type) {
	case map[string]any:
		keys := slices.Sorted(maps.Keys(m))
		values := make([]any, len(keys))
		for i, k := range keys {
			values[i] = m[k]
		}
		return keys, values
	case *orderedmap.OrderedMap[string, any]:
		keys := make([]string, 0, m.Len())
		values := make([]any, 0, m.Len())
		for p := m.Oldest(); p != nil; p = p.Next() {
			keys = append(keys, p.Key)
			values = append(values, p.Value)
		}
		return keys, values
	}
	return nil, nil
}
