package tree

import (
	"fmt"
	"reflect"
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/dshills/pathtree/internal/pattern"
)

// Kind is the container type of a node.
type Kind int

const (
	// KindObject is a string-keyed, insertion-ordered container.
	KindObject Kind = iota

	// KindArray is an index-keyed container.
	KindArray
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	default:
		return "unknown"
	}
}

// LengthKey is the pseudo-key that reports and changes an array's length.
const LengthKey = "length"

// Node is the instrumented wrapper around one container.
type Node struct {
	tree   *Tree
	parent *Node
	key    string
	kind   Kind

	object *orderedmap.OrderedMap[string, any]
	array  []any
}

// Kind returns the container kind.
func (n *Node) Kind() Kind {
	return n.kind
}

// IsArray returns true for array nodes.
func (n *Node) IsArray() bool {
	return n.kind == KindArray
}

// Parent returns the parent node, or nil for the root and detached nodes.
func (n *Node) Parent() *Node {
	return n.parent
}

// Key returns the node's key in its parent.
func (n *Node) Key() string {
	return n.key
}

// Tree returns the tree the node belongs to.
func (n *Node) Tree() *Tree {
	return n.tree
}

// Path returns the absolute path of the node. The root has an empty path.
func (n *Node) Path() pattern.Path {
	depth := 0
	for p := n; p.parent != nil; p = p.parent {
		depth++
	}
	path := make(pattern.Path, depth)
	for p := n; p.parent != nil; p = p.parent {
		depth--
		path[depth] = p.key
	}
	return path
}

// isAncestorOf reports whether n is other or one of its ancestors.
func (n *Node) isAncestorOf(other *Node) bool {
	for p := other; p != nil; p = p.parent {
		if p == n {
			return true
		}
	}
	return false
}

// Len returns the number of keys of an object or the length of an array.
func (n *Node) Len() int {
	if n.kind == KindArray {
		return len(n.array)
	}
	return n.object.Len()
}

// Keys returns the object keys in insertion order, or the array indices.
func (n *Node) Keys() []string {
	keys := make([]string, 0, n.Len())
	n.Range(func(key string, _ any) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}

// Range calls fn for every key and value in order until fn returns false.
func (n *Node) Range(fn func(key string, v any) bool) {
	if n.kind == KindArray {
		for i, v := range n.array {
			if !fn(indexKey(i), v) {
				return
			}
		}
		return
	}
	for p := n.object.Oldest(); p != nil; p = p.Next() {
		if !fn(p.Key, p.Value) {
			return
		}
	}
}

// Get returns the value stored at key. Nested containers are returned as
// *Node. For arrays, key is a decimal index or "length".
func (n *Node) Get(key string) (any, bool) {
	if n.kind == KindObject {
		return n.object.Get(key)
	}
	if key == LengthKey {
		return len(n.array), true
	}
	i, ok := parseIndex(key)
	if !ok {
		return nil, false
	}
	return n.Index(i)
}

// Has reports whether key is present.
func (n *Node) Has(key string) bool {
	_, ok := n.Get(key)
	return ok
}

// Index returns the array element at i.
func (n *Node) Index(i int) (any, bool) {
	if n.kind != KindArray || i < 0 || i >= len(n.array) {
		return nil, false
	}
	return n.array[i], true
}

// Child returns the node stored at key, if the value there is a container.
func (n *Node) Child(key string) (*Node, bool) {
	v, ok := n.Get(key)
	if !ok {
		return nil, false
	}
	c, ok := v.(*Node)
	return c, ok
}

// Lookup resolves a path relative to n. An empty path returns n itself.
func (n *Node) Lookup(path pattern.Path) (any, bool) {
	var cur any = n
	for _, key := range path {
		node, ok := cur.(*Node)
		if !ok {
			return nil, false
		}
		if cur, ok = node.Get(key); !ok {
			return nil, false
		}
	}
	return cur, true
}

// Set writes value at key and publishes the change.
//
// A *Node value of the same tree is reparented to this location; plain
// containers are wrapped recursively; anything else is stored as is. For
// arrays, key must be a decimal index or "length", and an index past the end
// extends the array with nil holes.
func (n *Node) Set(key string, value any) error {
	if n.kind == KindObject {
		n.write(key, value)
		return nil
	}

	if key == LengthKey {
		length, err := toLength(value)
		if err != nil {
			return err
		}
		if err := n.checkLength(length); err != nil {
			return err
		}
		n.setLength(length)
		return nil
	}

	i, ok := parseIndex(key)
	if !ok {
		return fmt.Errorf("array key %q: %w", key, ErrInvalidKey)
	}
	if err := n.checkLength(i + 1); err != nil {
		return err
	}
	n.write(indexKey(i), value)
	return nil
}

// SetIndex writes value at array index i.
func (n *Node) SetIndex(i int, value any) error {
	if n.kind != KindArray {
		return ErrNotArray
	}
	if i < 0 {
		return fmt.Errorf("array index %d: %w", i, ErrInvalidKey)
	}
	if err := n.checkLength(i + 1); err != nil {
		return err
	}
	n.write(indexKey(i), value)
	return nil
}

// Delete publishes the removal of key and then removes it. Deleting an array
// index leaves a nil hole. Deleting a missing key still publishes.
func (n *Node) Delete(key string) error {
	if n.kind == KindArray {
		i, ok := parseIndex(key)
		if !ok {
			return fmt.Errorf("array key %q: %w", key, ErrInvalidKey)
		}
		key = indexKey(i)
	}
	n.remove(key)
	return nil
}

// write stores value at a validated key and publishes it.
func (n *Node) write(key string, value any) {
	if n.tree.suppressUnchanged {
		if old, ok := n.Get(key); ok && sameValue(old, value) {
			return
		}
	}

	stored := n.adopt(key, value)
	n.put(key, stored)
	n.tree.publisher.Publish(n.Path().Child(key), stored)
}

// remove publishes the removal of a validated key and then removes it.
func (n *Node) remove(key string) {
	n.tree.publisher.Publish(n.Path().Child(key))

	if n.kind == KindObject {
		n.object.Delete(key)
		return
	}
	i, _ := parseIndex(key)
	if i < len(n.array) {
		n.array[i] = nil
	}
}

// adopt returns the value to store for value at key.
func (n *Node) adopt(key string, value any) any {
	c, ok := value.(*Node)
	if !ok || c.tree != n.tree {
		return newWrapper(n.tree).wrap(value, n, key)
	}

	// Reparenting an ancestor under one of its descendants would make the
	// parent links cyclic; keep its current location instead.
	if c.isAncestorOf(n) {
		return c
	}
	c.parent = n
	c.key = key
	return c
}

// put stores an already adopted value.
func (n *Node) put(key string, stored any) {
	if n.kind == KindObject {
		n.object.Set(key, stored)
		return
	}
	i, _ := parseIndex(key)
	if i >= len(n.array) {
		n.array = append(n.array, make([]any, i+1-len(n.array))...)
	}
	n.array[i] = stored
}

// checkLength rejects array lengths above the tree limit. A length that
// overflowed int is negative and rejected as well.
func (n *Node) checkLength(length int) error {
	if length < 0 || length > n.tree.maxArrayLen {
		return fmt.Errorf("array length %d exceeds limit %d: %w", length, n.tree.maxArrayLen, ErrInvalidKey)
	}
	return nil
}

// setLength truncates or extends an array and publishes the new length.
func (n *Node) setLength(length int) {
	switch {
	case length < len(n.array):
		clear(n.array[length:])
		n.array = n.array[:length]
	case length > len(n.array):
		n.array = append(n.array, make([]any, length-len(n.array))...)
	}
	n.tree.publisher.Publish(n.Path().Child(LengthKey), length)
}

// sameValue reports whether a write of b over a changes nothing.
func sameValue(a, b any) bool {
	if an, ok := a.(*Node); ok {
		bn, ok := b.(*Node)
		return ok && an == bn
	}
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}

func indexKey(i int) string {
	return strconv.Itoa(i)
}

// parseIndex accepts canonical non-negative decimal indices only.
func parseIndex(key string) (int, bool) {
	i, err := strconv.Atoi(key)
	if err != nil || i < 0 || strconv.Itoa(i) != key {
		return 0, false
	}
	return i, true
}

func toLength(v any) (int, error) {
	switch n := v.(type) {
	case int:
		if n >= 0 {
			return n, nil
		}
	case int64:
		if n >= 0 {
			return int(n), nil
		}
	case float64:
		if n >= 0 && n <= 1<<53 && n == float64(int(n)) {
			return int(n), nil
		}
	case string:
		if i, ok := parseIndex(n); ok {
			return i, nil
		}
	}
	return 0, fmt.Errorf("array length %v: %w", v, ErrInvalidKey)
}
