// Package pattern provides path and pattern types and the path matcher used by
// the listener registry.
//
// # Path Format
//
// A path is the ordered list of keys from the root of a tree to a value.
// Array indices are written as decimal strings. The string form joins the
// segments with dots:
//
//	users.0.name
//	settings.theme
//
// # Wildcards
//
// Two wildcard tokens are supported in patterns:
//
//   - "*" matches exactly one segment
//   - "**" matches zero or more segments
//
// Examples:
//
//	users.*           matches users.0, users.1 (not users.0.name)
//	users.**          matches users, users.0, users.0.name
//	*.name            matches a.name, b.name
//	users.*.**.id     matches users.0.id, users.0.roles.3.id
//	**                matches every non-empty path
//
// A pattern may hold at most one "**". Validate reports ErrMultipleGlobstar for
// anything else so registries can reject such patterns up front.
//
// # Usage
//
//	p := pattern.Parse("users.*.name")
//	pattern.Match(p, pattern.Path{"users", "3", "name"}) // true
package pattern
