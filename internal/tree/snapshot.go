package tree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
)

// Snapshot returns a deep plain copy of the node: objects become
// map[string]any and arrays []any. Shared and cyclic subtrees stay shared in
// the copy.
func (n *Node) Snapshot() any {
	return snapshot(n, make(map[*Node]any))
}

func snapshot(n *Node, seen map[*Node]any) any {
	if v, ok := seen[n]; ok {
		return v
	}

	if n.kind == KindArray {
		out := make([]any, len(n.array))
		seen[n] = out
		for i, v := range n.array {
			out[i] = plain(v, seen)
		}
		return out
	}

	out := make(map[string]any, n.object.Len())
	seen[n] = out
	for p := n.object.Oldest(); p != nil; p = p.Next() {
		out[p.Key] = plain(p.Value, seen)
	}
	return out
}

func plain(v any, seen map[*Node]any) any {
	if c, ok := v.(*Node); ok {
		return snapshot(c, seen)
	}
	return v
}

// MarshalJSON encodes the node, keeping object key order. Shared subtrees
// are encoded at every place they appear; a node that contains itself makes
// the encoding fail with ErrCycle.
func (n *Node) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeNode(&buf, n, make(map[*Node]bool)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// encodeNode writes n as JSON. active holds the nodes being encoded on the
// current branch.
func encodeNode(buf *bytes.Buffer, n *Node, active map[*Node]bool) error {
	if active[n] {
		return fmt.Errorf("encode %q: %w", n.Path().String(), ErrCycle)
	}
	active[n] = true
	defer delete(active, n)

	if n.kind == KindArray {
		buf.WriteByte('[')
		for i, v := range n.array {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeValue(buf, v, active); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	}

	buf.WriteByte('{')
	for p := n.object.Oldest(); p != nil; p = p.Next() {
		if p != n.object.Oldest() {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(p.Key)
		if err != nil {
			return err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if err := encodeValue(buf, p.Value, active); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func encodeValue(buf *bytes.Buffer, v any, active map[*Node]bool) error {
	if c, ok := v.(*Node); ok {
		return encodeNode(buf, c, active)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(data)
	return nil
}

// Equal reports whether the node holds the same content as the plain value v,
// comparing objects without regard to key order. Cyclic values compare equal
// when they have the same shape.
func (n *Node) Equal(v any) bool {
	return equalPlain(n.Snapshot(), plainOf(v), make(map[visit]bool))
}

func plainOf(v any) any {
	if c, ok := v.(*Node); ok {
		return c.Snapshot()
	}
	return v
}

// visit identifies a pair of containers under comparison.
type visit struct {
	a, b uintptr
	len  int
}

// entered marks the pair a, b as under comparison and reports whether it
// already was. A pair met again is assumed equal.
func entered(a, b any, seen map[visit]bool) bool {
	av, bv := reflect.ValueOf(a), reflect.ValueOf(b)
	k := visit{a: av.Pointer(), b: bv.Pointer(), len: av.Len()}
	if seen[k] {
		return true
	}
	seen[k] = true
	return false
}

func equalPlain(a, b any, seen map[visit]bool) bool {
	switch av := a.(type) {
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		if entered(av, bv, seen) {
			return true
		}
		for k, x := range av {
			y, ok := bv[k]
			if !ok || !equalPlain(x, y, seen) {
				return false
			}
		}
		return true
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		if len(av) == 0 || entered(av, bv, seen) {
			return true
		}
		return slices.EqualFunc(av, bv, func(x, y any) bool {
			return equalPlain(x, y, seen)
		})
	default:
		return sameValue(a, b)
	}
}
