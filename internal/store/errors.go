package store

import "errors"

var (
	// ErrInvalidPattern is returned for pattern sources of an unsupported type.
	ErrInvalidPattern = errors.New("invalid pattern source")

	// ErrNotFound is returned when a path does not resolve to a container.
	ErrNotFound = errors.New("path not found")
)
