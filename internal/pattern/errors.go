package pattern

import "errors"

var (
	// ErrMultipleGlobstar is returned when a pattern holds more than one "**".
	ErrMultipleGlobstar = errors.New("pattern contains more than one globstar")

	// ErrInvalidSegment is returned when a segment cannot be converted to a key.
	ErrInvalidSegment = errors.New("invalid path segment")
)
