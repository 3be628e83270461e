package watcher

import "errors"

var (
	// ErrAlreadyRunning is returned when starting a running Sync.
	ErrAlreadyRunning = errors.New("watcher already running")

	// ErrNotRunning is returned when stopping a Sync that is not running.
	ErrNotRunning = errors.New("watcher not running")
)
