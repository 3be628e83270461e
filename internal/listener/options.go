package listener

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dshills/pathtree/internal/sched"
)

// Option configures a Registry.
type Option func(*Registry)

// WithScheduler sets the scheduler used for batch flushes.
func WithScheduler(s sched.Scheduler) Option {
	return func(r *Registry) {
		if s != nil {
			r.scheduler = s
		}
	}
}

// WithLogger sets the logger used for registry diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithIDGenerator sets the function that generates listener IDs.
func WithIDGenerator(fn func() string) Option {
	return func(r *Registry) {
		if fn != nil {
			r.newID = fn
		}
	}
}

func defaultID() string {
	return uuid.NewString()
}
