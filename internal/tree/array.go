package tree

import (
	"fmt"
	"sort"

	"github.com/spf13/cast"
)

// Push appends values and returns the new length.
func (n *Node) Push(values ...any) (int, error) {
	if n.kind != KindArray {
		return 0, ErrNotArray
	}
	length := len(n.array)
	if err := n.checkLength(length + len(values)); err != nil {
		return 0, err
	}
	for i, v := range values {
		n.write(indexKey(length+i), v)
	}
	n.setLength(length + len(values))
	return len(n.array), nil
}

// Pop removes and returns the last element.
func (n *Node) Pop() (any, bool, error) {
	if n.kind != KindArray {
		return nil, false, ErrNotArray
	}
	length := len(n.array)
	if length == 0 {
		n.setLength(0)
		return nil, false, nil
	}
	last := n.array[length-1]
	n.remove(indexKey(length - 1))
	n.setLength(length - 1)
	return last, true, nil
}

// Shift removes and returns the first element, moving the rest down.
func (n *Node) Shift() (any, bool, error) {
	if n.kind != KindArray {
		return nil, false, ErrNotArray
	}
	length := len(n.array)
	if length == 0 {
		n.setLength(0)
		return nil, false, nil
	}
	first := n.array[0]
	for k := 1; k < length; k++ {
		n.write(indexKey(k-1), n.array[k])
	}
	n.remove(indexKey(length - 1))
	n.setLength(length - 1)
	return first, true, nil
}

// Unshift inserts values at the front and returns the new length.
func (n *Node) Unshift(values ...any) (int, error) {
	if n.kind != KindArray {
		return 0, ErrNotArray
	}
	length := len(n.array)
	count := len(values)
	if err := n.checkLength(length + count); err != nil {
		return 0, err
	}
	if count > 0 {
		for k := length; k > 0; k-- {
			n.write(indexKey(k+count-1), n.array[k-1])
		}
		for j, v := range values {
			n.write(indexKey(j), v)
		}
	}
	n.setLength(length + count)
	return len(n.array), nil
}

// Splice removes deleteCount elements starting at start, inserts items in
// their place and returns the removed elements. A negative start counts from
// the end; both arguments are clamped to the array bounds.
func (n *Node) Splice(start, deleteCount int, items ...any) ([]any, error) {
	if n.kind != KindArray {
		return nil, ErrNotArray
	}
	length := len(n.array)

	switch {
	case start < 0:
		start = max(length+start, 0)
	case start > length:
		start = length
	}
	deleteCount = min(max(deleteCount, 0), length-start)
	count := len(items)
	if err := n.checkLength(length - deleteCount + count); err != nil {
		return nil, err
	}

	removed := make([]any, deleteCount)
	copy(removed, n.array[start:start+deleteCount])

	switch {
	case count < deleteCount:
		for k := start; k < length-deleteCount; k++ {
			n.write(indexKey(k+count), n.array[k+deleteCount])
		}
		for k := length; k > length-deleteCount+count; k-- {
			n.remove(indexKey(k - 1))
		}
	case count > deleteCount:
		for k := length - deleteCount; k > start; k-- {
			n.write(indexKey(k+count-1), n.array[k+deleteCount-1])
		}
	}
	for j, v := range items {
		n.write(indexKey(start+j), v)
	}
	n.setLength(length - deleteCount + count)
	return removed, nil
}

// Sort sorts the array in place with less and writes every index back in
// order. A nil less uses DefaultLess.
func (n *Node) Sort(less func(a, b any) bool) error {
	if n.kind != KindArray {
		return ErrNotArray
	}
	if less == nil {
		less = DefaultLess
	}
	sorted := make([]any, len(n.array))
	copy(sorted, n.array)
	sort.SliceStable(sorted, func(i, j int) bool {
		return less(sorted[i], sorted[j])
	})
	for i, v := range sorted {
		n.write(indexKey(i), v)
	}
	return nil
}

// Reverse reverses the array in place, swapping from the outside in.
func (n *Node) Reverse() error {
	if n.kind != KindArray {
		return ErrNotArray
	}
	length := len(n.array)
	for lower := 0; lower < length/2; lower++ {
		upper := length - lower - 1
		lowerValue, upperValue := n.array[lower], n.array[upper]
		n.write(indexKey(lower), upperValue)
		n.write(indexKey(upper), lowerValue)
	}
	return nil
}

// DefaultLess orders numbers numerically before everything else, and
// everything else by its string form. Nil values sort last.
func DefaultLess(a, b any) bool {
	if a == nil || b == nil {
		return a != nil && b == nil
	}
	af, aNum := number(a)
	bf, bNum := number(b)
	switch {
	case aNum && bNum:
		return af < bf
	case aNum != bNum:
		return aNum
	}
	return fmt.Sprint(a) < fmt.Sprint(b)
}

func number(v any) (float64, bool) {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		f, err := cast.ToFloat64E(v)
		return f, err == nil
	default:
		return 0, false
	}
}
