package tree

import "errors"

var (
	// ErrNotContainer is returned when a container was required.
	ErrNotContainer = errors.New("value is not an object or array")

	// ErrInvalidKey is returned for keys an array cannot hold.
	ErrInvalidKey = errors.New("invalid key")

	// ErrNotArray is returned when an array operation targets an object.
	ErrNotArray = errors.New("node is not an array")

	// ErrKindMismatch is returned when reconciling an object with an array or
	// the other way around.
	ErrKindMismatch = errors.New("container kind mismatch")

	// ErrCycle is returned when encoding a node that contains itself.
	ErrCycle = errors.New("cyclic value")
)
