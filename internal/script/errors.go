package script

import "errors"

var (
	// ErrClosed is returned when running code on a closed engine.
	ErrClosed = errors.New("script engine is closed")

	// ErrCallback is wrapped by errors raised inside listener callbacks.
	ErrCallback = errors.New("callback failed")
)
