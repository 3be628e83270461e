package sched

import (
	"errors"
	"fmt"
)

var (
	// ErrNotRunning is returned when a stopped loop is asked to run work.
	ErrNotRunning = errors.New("loop is not running")

	// ErrAlreadyRunning is returned when Start is called on a running loop.
	ErrAlreadyRunning = errors.New("loop is already running")

	// ErrStopping is returned when Start is called before the goroutine of
	// the previous run has exited.
	ErrStopping = errors.New("loop is still stopping")

	// ErrTaskPanic is matched by PanicError through errors.Is.
	ErrTaskPanic = errors.New("task panicked")
)

// PanicError wraps a value recovered from a panicking task.
type PanicError struct {
	// Value is the value passed to panic().
	Value any

	// Stack is the stack trace at the time of the panic.
	Stack []byte
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("task panic: %v", e.Value)
}

// Is allows errors.Is to match PanicError with ErrTaskPanic.
func (e *PanicError) Is(target error) bool {
	return target == ErrTaskPanic
}
