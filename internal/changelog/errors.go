package changelog

import "errors"

// ErrAttached is returned when attaching a recorder that is already attached.
var ErrAttached = errors.New("recorder already attached")
