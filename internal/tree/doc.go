// Package tree implements the change-instrumented data tree.
//
// Every container in the tree (objects and arrays) is wrapped in a *Node. A
// node knows its parent and its key in that parent, so it can compute its
// absolute path from the root. All mutation goes through node methods, and
// every write or delete is reported to the tree's Publisher with the absolute
// path of the changed key.
//
// # Containers
//
// Plain containers are map[string]any, []any and
// *orderedmap.OrderedMap[string, any]. They are wrapped recursively when a
// tree is built and whenever one is written into a node. Any other value,
// including structs, typed maps and typed slices, is stored verbatim.
//
// Objects keep key insertion order. Arrays are []any; deleting an index
// leaves a nil hole and does not shift later elements.
//
// # Moving Subtrees
//
// Writing a *Node into another location reparents it in place: its parent
// link and key change, the subtree is not copied, and every descendant path
// follows automatically. Writing a node under one of its own descendants is
// allowed but keeps the node's current parent, so parent links never form a
// cycle even though the data graph may.
//
// # Array Operations
//
// Push, Pop, Shift, Unshift, Splice, Sort and Reverse report one event per
// index they write and one event for the "length" key, in the same order as
// the equivalent JavaScript array methods.
//
// A tree is not safe for concurrent use.
package tree
