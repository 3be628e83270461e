package tree

import (
	"fmt"
	"maps"
	"reflect"
	"slices"

	"github.com/rs/zerolog"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/dshills/pathtree/internal/pattern"
)

// Publisher receives change events from a tree.
// An empty args means the value at path was removed.
type Publisher interface {
	Publish(path pattern.Path, args ...any)
}

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc func(path pattern.Path, args ...any)

// Publish calls f(path, args...).
func (f PublisherFunc) Publish(path pattern.Path, args ...any) {
	f(path, args...)
}

// Tree holds the state shared by every node of one tree.
type Tree struct {
	publisher         Publisher
	suppressUnchanged bool
	maxArrayLen       int
	logger            zerolog.Logger
}

// DefaultMaxArrayLen is the largest array length a tree accepts unless
// WithMaxArrayLen sets another limit.
const DefaultMaxArrayLen = 1 << 24

// Option configures a Tree.
type Option func(*Tree)

// WithSuppressUnchanged controls whether a write of a value equal to the
// current one is dropped instead of published. Off by default.
func WithSuppressUnchanged(on bool) Option {
	return func(t *Tree) {
		t.suppressUnchanged = on
	}
}

// WithMaxArrayLen sets the largest length an array may reach through Set,
// SetIndex or the array operations. Non-positive values keep the default.
func WithMaxArrayLen(n int) Option {
	return func(t *Tree) {
		if n > 0 {
			t.maxArrayLen = n
		}
	}
}

// WithLogger sets the logger used for tree diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(t *Tree) {
		t.logger = logger
	}
}

// New creates a tree that reports changes to pub.
// A nil pub discards all events.
func New(pub Publisher, opts ...Option) *Tree {
	if pub == nil {
		pub = PublisherFunc(func(pattern.Path, ...any) {})
	}
	t := &Tree{
		publisher:   pub,
		maxArrayLen: DefaultMaxArrayLen,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Wrap builds the root node for v, wrapping every nested container up front.
// Wrapping a node of this tree returns it unchanged.
func (t *Tree) Wrap(v any) (*Node, error) {
	if n, ok := v.(*Node); ok && n.tree == t {
		return n, nil
	}
	if !IsContainer(v) {
		return nil, fmt.Errorf("wrap %T: %w", v, ErrNotContainer)
	}

	w := newWrapper(t)
	root := w.wrap(v, nil, "").(*Node)
	t.logger.Debug().Int("nodes", w.created).Stringer("kind", root.kind).Msg("tree wrapped")
	return root, nil
}

// IsContainer reports whether v is a value the tree wraps.
func IsContainer(v any) bool {
	switch v.(type) {
	case *Node, map[string]any, []any, *orderedmap.OrderedMap[string, any]:
		return true
	default:
		return false
	}
}

// identity identifies a raw container during one wrap pass so that aliased
// and cyclic inputs map to a single node.
type identity struct {
	ptr uintptr
	n   int
}

// wrapper converts raw containers into nodes.
type wrapper struct {
	tree    *Tree
	seen    map[identity]*Node
	created int
}

func newWrapper(t *Tree) *wrapper {
	return &wrapper{tree: t, seen: make(map[identity]*Node)}
}

// wrap returns the value to store for v at key under parent.
func (w *wrapper) wrap(v any, parent *Node, key string) any {
	switch c := v.(type) {
	case *Node:
		if c.tree == w.tree {
			return c
		}
		// Nodes of another tree are copied.
		return w.wrap(c.Snapshot(), parent, key)

	case map[string]any:
		id := identity{ptr: reflect.ValueOf(c).Pointer(), n: -1}
		if n, ok := w.seen[id]; ok {
			return n
		}
		n := w.newNode(KindObject, parent, key)
		w.seen[id] = n
		for _, k := range slices.Sorted(maps.Keys(c)) {
			n.object.Set(k, w.wrap(c[k], n, k))
		}
		return n

	case *orderedmap.OrderedMap[string, any]:
		id := identity{ptr: reflect.ValueOf(c).Pointer(), n: -2}
		if n, ok := w.seen[id]; ok {
			return n
		}
		n := w.newNode(KindObject, parent, key)
		w.seen[id] = n
		for p := c.Oldest(); p != nil; p = p.Next() {
			n.object.Set(p.Key, w.wrap(p.Value, n, p.Key))
		}
		return n

	case []any:
		var id identity
		if len(c) > 0 {
			id = identity{ptr: reflect.ValueOf(c).Pointer(), n: len(c)}
			if n, ok := w.seen[id]; ok {
				return n
			}
		}
		n := w.newNode(KindArray, parent, key)
		if len(c) > 0 {
			w.seen[id] = n
		}
		n.array = make([]any, len(c))
		for i, elem := range c {
			n.array[i] = w.wrap(elem, n, indexKey(i))
		}
		return n

	default:
		return v
	}
}

func (w *wrapper) newNode(kind Kind, parent *Node, key string) *Node {
	w.created++
	n := &Node{
		tree:   w.tree,
		parent: parent,
		key:    key,
		kind:   kind,
	}
	if kind == KindObject {
		n.object = orderedmap.New[string, any]()
	}
	return n
}

// IsNode reports whether v is a wrapped container.
func IsNode(v any) bool {
	_, ok := v.(*Node)
	return ok
}

// PathOf returns the absolute path of v if it is a wrapped container.
func PathOf(v any) (pattern.Path, bool) {
	n, ok := v.(*Node)
	if !ok {
		return nil, false
	}
	return n.Path(), true
}
