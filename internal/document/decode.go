package document

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/pelletier/go-toml/v2"
	"github.com/tidwall/gjson"
	"github.com/tidwall/jsonc"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"

	"github.com/dshills/pathtree/internal/pattern"
)

// Decode parses data in format f and returns the sub-document at selector,
// or the whole document when selector is empty.
func Decode(data []byte, f Format, selector string) (any, error) {
	return decode("<input>", data, f, selector)
}

func decode(source string, data []byte, f Format, selector string) (any, error) {
	switch f {
	case FormatJSON:
		return decodeJSON(source, data, f, selector)
	case FormatJSONC:
		return decodeJSON(source, jsonc.ToJSON(data), f, selector)
	case FormatYAML:
		v, err := decodeYAML(source, data)
		if err != nil {
			return nil, err
		}
		return Select(v, selector)
	case FormatTOML:
		v, err := decodeTOML(source, data)
		if err != nil {
			return nil, err
		}
		return Select(v, selector)
	}
	return nil, fmt.Errorf("format %d: %w", int(f), ErrUnknownFormat)
}

func decodeJSON(source string, data []byte, f Format, selector string) (any, error) {
	if !gjson.ValidBytes(data) {
		return nil, &ParseError{Path: source, Format: f, Message: "invalid JSON"}
	}

	var r gjson.Result
	if selector == "" {
		r = gjson.ParseBytes(data)
	} else {
		r = gjson.GetBytes(data, selector)
		if !r.Exists() {
			return nil, fmt.Errorf("%q: %w", selector, ErrNotFound)
		}
	}
	return fromResult(r), nil
}

// fromResult converts a gjson result, keeping object key order.
func fromResult(r gjson.Result) any {
	switch r.Type {
	case gjson.Null:
		return nil
	case gjson.False:
		return false
	case gjson.True:
		return true
	case gjson.Number:
		return r.Num
	case gjson.String:
		return r.Str
	}

	if r.IsArray() {
		out := make([]any, 0)
		r.ForEach(func(_, v gjson.Result) bool {
			out = append(out, fromResult(v))
			return true
		})
		return out
	}

	out := orderedmap.New[string, any]()
	r.ForEach(func(k, v gjson.Result) bool {
		out.Set(k.String(), fromResult(v))
		return true
	})
	return out
}

func decodeYAML(source string, data []byte) (any, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Path: source, Format: FormatYAML, Message: err.Error(), Err: err}
	}
	if doc.Kind == 0 {
		// Empty input.
		return nil, nil
	}
	v, err := fromYAML(&doc)
	if err != nil {
		return nil, &ParseError{Path: source, Format: FormatYAML, Message: err.Error(), Err: err}
	}
	return v, nil
}

// fromYAML converts a YAML node, keeping mapping key order. Aliases resolve
// to the same converted value, so anchors stay shared.
func fromYAML(n *yaml.Node) (any, error) {
	seen := make(map[*yaml.Node]any)
	var convert func(n *yaml.Node) (any, error)
	convert = func(n *yaml.Node) (any, error) {
		if v, ok := seen[n]; ok {
			return v, nil
		}
		switch n.Kind {
		case yaml.DocumentNode:
			if len(n.Content) == 0 {
				return nil, nil
			}
			return convert(n.Content[0])

		case yaml.AliasNode:
			return convert(n.Alias)

		case yaml.SequenceNode:
			out := make([]any, len(n.Content))
			for i, c := range n.Content {
				v, err := convert(c)
				if err != nil {
					return nil, err
				}
				out[i] = v
			}
			seen[n] = out
			return out, nil

		case yaml.MappingNode:
			out := orderedmap.New[string, any]()
			seen[n] = out
			for i := 0; i+1 < len(n.Content); i += 2 {
				var key string
				if err := n.Content[i].Decode(&key); err != nil {
					return nil, fmt.Errorf("line %d: mapping key: %w", n.Content[i].Line, err)
				}
				v, err := convert(n.Content[i+1])
				if err != nil {
					return nil, err
				}
				out.Set(key, v)
			}
			return out, nil

		default:
			var v any
			if err := n.Decode(&v); err != nil {
				return nil, fmt.Errorf("line %d: %w", n.Line, err)
			}
			return v, nil
		}
	}
	return convert(n)
}

func decodeTOML(source string, data []byte) (any, error) {
	var v map[string]any
	if err := toml.Unmarshal(data, &v); err != nil {
		pe := &ParseError{Path: source, Format: FormatTOML, Message: err.Error(), Err: err}
		var de *toml.DecodeError
		if errors.As(err, &de) {
			pe.Line, pe.Column = de.Position()
		}
		return nil, pe
	}
	if v == nil {
		v = make(map[string]any)
	}
	return v, nil
}

// Select returns the value at a dotted path of keys and array indices inside
// a decoded document. An empty selector returns v.
func Select(v any, selector string) (any, error) {
	if selector == "" {
		return v, nil
	}
	cur := v
	for _, key := range pattern.ParsePath(selector) {
		next, ok := child(cur, key)
		if !ok {
			return nil, fmt.Errorf("%q: %w", selector, ErrNotFound)
		}
		cur = next
	}
	return cur, nil
}

func child(v any, key string) (any, bool) {
	switch c := v.(type) {
	case *orderedmap.OrderedMap[string, any]:
		return c.Get(key)
	case map[string]any:
		x, ok := c[key]
		return x, ok
	case []any:
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 || i >= len(c) {
			return nil, false
		}
		return c[i], true
	}
	return nil, false
}
