package pattern

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

// Wildcard constants for pattern matching.
const (
	// Wildcard matches exactly one segment.
	Wildcard = "*"

	// Globstar matches zero or more segments.
	Globstar = "**"

	// Separator is the character used to separate path segments.
	Separator = "."
)

// Path is the ordered list of keys from the tree root to a value.
type Path []string

// String returns the dot-joined form of the path.
func (p Path) String() string {
	return strings.Join(p, Separator)
}

// Child returns a new path with key appended. The receiver is never modified.
func (p Path) Child(key string) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, key)
}

// Parent returns the path without its last segment.
// Returns nil for empty and single-segment paths.
func (p Path) Parent() Path {
	if len(p) <= 1 {
		return nil
	}
	return p[:len(p)-1]
}

// Base returns the last segment, or "" for an empty path.
func (p Path) Base() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// Equal reports whether two paths hold the same segments.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the path.
func (p Path) Clone() Path {
	if p == nil {
		return nil
	}
	out := make(Path, len(p))
	copy(out, p)
	return out
}

// Pattern is an ordered list of literal segments and wildcard tokens.
type Pattern []string

// String returns the dot-joined form of the pattern.
func (p Pattern) String() string {
	return strings.Join(p, Separator)
}

// IsWildcard returns true if the pattern holds any wildcard token.
func (p Pattern) IsWildcard() bool {
	for _, tok := range p {
		if tok == Wildcard || tok == Globstar {
			return true
		}
	}
	return false
}

// Globstars returns the number of "**" tokens in the pattern.
func (p Pattern) Globstars() int {
	n := 0
	for _, tok := range p {
		if tok == Globstar {
			n++
		}
	}
	return n
}

// Clone returns a copy of the pattern.
func (p Pattern) Clone() Pattern {
	if p == nil {
		return nil
	}
	out := make(Pattern, len(p))
	copy(out, p)
	return out
}

// Parse splits a dot-delimited string into a pattern.
// The empty string yields an empty pattern, which matches nothing.
func Parse(s string) Pattern {
	if s == "" {
		return nil
	}
	return Pattern(strings.Split(s, Separator))
}

// ParsePath splits a dot-delimited string into a path.
func ParsePath(s string) Path {
	if s == "" {
		return nil
	}
	return Path(strings.Split(s, Separator))
}

// Join joins segments into a pattern.
func Join(segments ...string) Pattern {
	return Pattern(segments)
}

// FromSegments converts a pre-split sequence of mixed segment values into a
// pattern. Integers and other scalars are converted to their decimal string
// form so that array indices can be given as numbers.
func FromSegments(segments []any) (Pattern, error) {
	out := make(Pattern, 0, len(segments))
	for i, seg := range segments {
		s, err := cast.ToStringE(seg)
		if err != nil {
			return nil, fmt.Errorf("segment %d (%T): %w", i, seg, ErrInvalidSegment)
		}
		out = append(out, s)
	}
	return out, nil
}

// Validate checks the pattern against the registration rules.
// Empty patterns are valid: they simply never match.
func Validate(p Pattern) error {
	if p.Globstars() > 1 {
		return fmt.Errorf("%q: %w", p.String(), ErrMultipleGlobstar)
	}
	return nil
}
