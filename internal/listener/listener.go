package listener

import "github.com/dshills/pathtree/internal/pattern"

// Mode selects how a listener receives matching events.
type Mode int

const (
	// ModeImmediate delivers each matching event synchronously.
	ModeImmediate Mode = iota

	// ModeBatched coalesces matching events into one deferred call per flush.
	ModeBatched
)

// String returns a human-readable mode name.
func (m Mode) String() string {
	switch m {
	case ModeImmediate:
		return "immediate"
	case ModeBatched:
		return "batched"
	default:
		return "unknown"
	}
}

// Handler receives immediate change events. An empty args signals that the
// value at path was removed; otherwise args[0] is the new value.
// Handlers must not modify path.
type Handler func(path pattern.Path, args ...any)

// BatchHandler receives the listener's own pattern once per flush.
type BatchHandler func(p pattern.Pattern)

// Listener is a registered pattern and callback.
type Listener struct {
	id       string
	pattern  pattern.Pattern
	mode     Mode
	handler  Handler
	batch    BatchHandler
	active   bool
	registry *Registry
}

// ID returns the unique listener identifier.
func (l *Listener) ID() string {
	return l.id
}

// Pattern returns a copy of the listener's pattern.
func (l *Listener) Pattern() pattern.Pattern {
	return l.pattern.Clone()
}

// Mode returns the delivery mode.
func (l *Listener) Mode() Mode {
	return l.mode
}

// Active returns true until the listener is unsubscribed.
func (l *Listener) Active() bool {
	return l.active
}

// Unsubscribe stops all future deliveries to this listener, including the
// not-yet-reached part of a Publish in progress. Repeated calls are no-ops.
func (l *Listener) Unsubscribe() {
	if !l.active {
		return
	}
	l.active = false
	if l.registry != nil {
		l.registry.retire(l)
	}
}
