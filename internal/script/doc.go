// Package script runs Lua scripts against a store.
//
// Scripts see a global table named pathtree:
//
//	pathtree.get(path)              value at path; tables for containers
//	pathtree.set(path, value)       write; the parent must exist
//	pathtree.delete(path)           delete
//	pathtree.push(path, ...)        append to an array, returns the new length
//	pathtree.pop(path)              remove the last element of an array
//	pathtree.sort(path)             sort an array in place
//	pathtree.keys(path)             keys of an object or indices of an array
//	pathtree.len(path)              number of keys or elements
//	pathtree.on(pattern, fn)        fn(path, value) on every match, returns an id
//	pathtree.on_batched(pattern, fn) fn(pattern) once per flush, returns an id
//	pathtree.off(id)                unsubscribe
//	pathtree.flush()                deliver the pending batch now
//	pathtree.tick()                 run one scheduler turn
//
// Paths and patterns are dot-delimited strings; patterns may also be given
// as tables of segments. For deletions fn receives the path only, so
// select("#", ...) tells the two cases apart.
//
// An error raised by a listener fails the script that caused the change and
// skips the listeners after it. Listeners called from Go, for example by a
// scheduled flush, cannot fail a script; their errors are collected by
// Engine.Errors.
//
// The state is sandboxed: only the base, table, string and math libraries are
// opened, and the loaders (dofile, loadfile, load, loadstring) are removed.
package script
