package store

import (
	"fmt"

	"github.com/dshills/pathtree/internal/pattern"
	"github.com/dshills/pathtree/internal/tree"
)

// PatternOf converts a pattern source into a pattern:
//
//   - string: a dot-delimited pattern
//   - []string, pattern.Pattern, pattern.Path: pre-split segments
//   - []any: pre-split segments; numbers are converted to indices
//   - *tree.Node: the node's direct children (its path followed by "*")
func PatternOf(src any) (pattern.Pattern, error) {
	switch v := src.(type) {
	case string:
		return pattern.Parse(v), nil
	case []string:
		return pattern.Join(v...).Clone(), nil
	case pattern.Pattern:
		return v.Clone(), nil
	case pattern.Path:
		return pattern.Pattern(v.Clone()), nil
	case []any:
		p, err := pattern.FromSegments(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidPattern, err)
		}
		return p, nil
	case *tree.Node:
		if v == nil {
			break
		}
		return pattern.Pattern(v.Path().Child(pattern.Wildcard)), nil
	}
	return nil, fmt.Errorf("%T: %w", src, ErrInvalidPattern)
}
