package document

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format identifies a document encoding.
type Format int

const (
	FormatJSON Format = iota
	FormatJSONC
	FormatYAML
	FormatTOML
)

var formatNames = map[Format]string{
	FormatJSON:  "json",
	FormatJSONC: "jsonc",
	FormatYAML:  "yaml",
	FormatTOML:  "toml",
}

// String returns the format name.
func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return "unknown"
}

// ParseFormat returns the format for a name such as "yaml" or "yml".
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "json":
		return FormatJSON, nil
	case "jsonc", "json5":
		return FormatJSONC, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	}
	return 0, fmt.Errorf("%q: %w", name, ErrUnknownFormat)
}

// FormatOf returns the format for a file path based on its extension.
func FormatOf(path string) (Format, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return 0, fmt.Errorf("%s has no extension: %w", path, ErrUnknownFormat)
	}
	return ParseFormat(ext)
}
