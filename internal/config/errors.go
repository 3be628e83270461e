package config

import "errors"

var (
	// ErrInvalid is returned when a setting holds an unusable value.
	ErrInvalid = errors.New("invalid configuration")
)
