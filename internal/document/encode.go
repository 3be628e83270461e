package document

import (
	"encoding/json"
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/tidwall/pretty"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"
)

// EncodeOptions control Encode output.
type EncodeOptions struct {
	// Pretty indents JSON output.
	Pretty bool
	// Color adds terminal colors to JSON output.
	Color bool
}

// snapshotter is implemented by values that can produce a plain copy of
// themselves, such as tree nodes.
type snapshotter interface {
	Snapshot() any
}

// Encode writes v in format f. JSONC is written as plain JSON.
func Encode(v any, f Format, opts EncodeOptions) ([]byte, error) {
	switch f {
	case FormatJSON, FormatJSONC:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
		if opts.Pretty {
			data = pretty.Pretty(data)
		}
		if opts.Color {
			data = pretty.Color(data, nil)
		}
		return data, nil

	case FormatYAML:
		node, err := toYAML(v)
		if err != nil {
			return nil, err
		}
		return yaml.Marshal(node)

	case FormatTOML:
		m, ok := plainValue(v).(map[string]any)
		if !ok {
			return nil, fmt.Errorf("toml needs a table at the top level, got %T: %w", v, ErrUnsupported)
		}
		data, err := toml.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("encode toml: %w", err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("format %d: %w", int(f), ErrUnknownFormat)
}

// plainValue converts ordered maps and snapshotters to map[string]any and
// []any trees.
func plainValue(v any) any {
	switch c := v.(type) {
	case snapshotter:
		return c.Snapshot()
	case *orderedmap.OrderedMap[string, any]:
		out := make(map[string]any, c.Len())
		for p := c.Oldest(); p != nil; p = p.Next() {
			out[p.Key] = plainValue(p.Value)
		}
		return out
	case []any:
		out := make([]any, len(c))
		for i, x := range c {
			out[i] = plainValue(x)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(c))
		for k, x := range c {
			out[k] = plainValue(x)
		}
		return out
	}
	return v
}

// toYAML builds a YAML node so that ordered maps keep their key order.
func toYAML(v any) (*yaml.Node, error) {
	if s, ok := v.(snapshotter); ok {
		if m, ok := v.(json.Marshaler); ok {
			// Re-read through JSON to keep key order.
			data, err := m.MarshalJSON()
			if err != nil {
				return nil, fmt.Errorf("encode yaml: %w", err)
			}
			doc, err := Decode(data, FormatJSON, "")
			if err != nil {
				return nil, fmt.Errorf("encode yaml: %w", err)
			}
			return toYAML(doc)
		}
		v = s.Snapshot()
	}

	switch c := v.(type) {
	case *orderedmap.OrderedMap[string, any]:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for p := c.Oldest(); p != nil; p = p.Next() {
			val, err := toYAML(p.Value)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: p.Key}, val)
		}
		return n, nil
	case []any:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, x := range c {
			val, err := toYAML(x)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, val)
		}
		return n, nil
	}

	var n yaml.Node
	if err := n.Encode(v); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	if n.Kind == yaml.ScalarNode && n.Tag != "!!str" {
		// Let the value pick its own tag so 1.0 prints as 1, not !!float 1.
		n.Tag = ""
	}
	return &n, nil
}
