package document

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownFormat is returned when no format matches a name or extension.
	ErrUnknownFormat = errors.New("unknown document format")

	// ErrNotFound is returned when a selector matches nothing.
	ErrNotFound = errors.New("selector matched nothing")

	// ErrUnsupported is returned when a value cannot be encoded in a format.
	ErrUnsupported = errors.New("value not supported by format")
)

// ParseError represents an error while decoding a document.
type ParseError struct {
	Path    string
	Format  Format
	Line    int
	Column  int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Line > 0 && e.Column > 0 {
		return fmt.Sprintf("parse %s %s at line %d, column %d: %s", e.Format, e.Path, e.Line, e.Column, e.Message)
	}
	if e.Line > 0 {
		return fmt.Sprintf("parse %s %s at line %d: %s", e.Format, e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse %s %s: %s", e.Format, e.Path, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
