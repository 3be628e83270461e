// Package document loads structured documents into plain containers and
// encodes them back.
//
// Supported formats are JSON, JSON with comments (JSONC), YAML and TOML. The
// format is taken from the file extension unless given explicitly. Decoded
// objects are *orderedmap.OrderedMap[string, any] for JSON, JSONC and YAML,
// so key order survives the round trip through a tree; TOML tables decode to
// map[string]any.
//
// A selector narrows the result to a sub-document. For JSON and JSONC it is a
// gjson path (so "users.#.name" and friends work); for YAML and TOML it is a
// plain dotted path of keys and array indices.
package document
