package listener

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dshills/pathtree/internal/pattern"
	"github.com/dshills/pathtree/internal/sched"
)

// Registry owns the listener list and the pending batch.
type Registry struct {
	// Listeners in registration order. Inactive entries linger until the
	// next outermost Publish compacts them away.
	listeners []*Listener
	dead      int

	// depth counts Publish calls on the stack.
	depth int

	// Pending batch, in first-insertion order.
	pending   []*Listener
	queued    map[*Listener]struct{}
	scheduled bool

	scheduler sched.Scheduler
	logger    zerolog.Logger
	newID     func() string

	// Stats
	published uint64
	delivered uint64
	flushes   uint64
	compacted uint64
}

// NewRegistry creates an empty registry. Without WithScheduler, batch flushes
// go to a sched.Manual reachable through Scheduler.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		queued: make(map[*Listener]struct{}),
		logger: zerolog.Nop(),
		newID:  defaultID,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.scheduler == nil {
		r.scheduler = sched.NewManual()
	}
	return r
}

// Scheduler returns the scheduler used for batch flushes.
func (r *Registry) Scheduler() sched.Scheduler {
	return r.scheduler
}

// Register adds an immediate listener for p.
func (r *Registry) Register(p pattern.Pattern, h Handler) (*Listener, error) {
	if h == nil {
		return nil, ErrNilHandler
	}
	return r.add(p, ModeImmediate, h, nil)
}

// RegisterBatched adds a batched listener for p.
func (r *Registry) RegisterBatched(p pattern.Pattern, h BatchHandler) (*Listener, error) {
	if h == nil {
		return nil, ErrNilHandler
	}
	return r.add(p, ModeBatched, nil, h)
}

func (r *Registry) add(p pattern.Pattern, mode Mode, h Handler, bh BatchHandler) (*Listener, error) {
	if err := pattern.Validate(p); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	l := &Listener{
		id:       r.newID(),
		pattern:  p.Clone(),
		mode:     mode,
		handler:  h,
		batch:    bh,
		active:   true,
		registry: r,
	}
	r.listeners = append(r.listeners, l)

	r.logger.Debug().
		Str("listener", l.id).
		Stringer("pattern", l.pattern).
		Stringer("mode", mode).
		Msg("listener registered")
	return l, nil
}

// retire is called by Listener.Unsubscribe.
func (r *Registry) retire(l *Listener) {
	r.dead++
	r.logger.Debug().
		Str("listener", l.id).
		Stringer("pattern", l.pattern).
		Msg("listener unsubscribed")
}

// Publish delivers a change at path to every matching active listener.
// Immediate handlers run before Publish returns; batched listeners are added
// to the pending batch. A handler panic propagates to the caller and skips
// the remaining listeners of this pass.
func (r *Registry) Publish(path pattern.Path, args ...any) {
	r.published++
	r.depth++
	defer func() {
		r.depth--
		if r.depth == 0 && r.dead > 0 {
			r.compact()
		}
	}()

	n := len(r.listeners)
	for i := 0; i < n; i++ {
		l := r.listeners[i]
		if !l.active || !pattern.Match(l.pattern, path) {
			continue
		}

		if l.mode == ModeBatched {
			r.enqueue(l)
			continue
		}

		r.delivered++
		l.handler(path, args...)
	}
}

// compact drops inactive listeners, preserving the order of the survivors.
func (r *Registry) compact() {
	kept := r.listeners[:0]
	for _, l := range r.listeners {
		if l.active {
			kept = append(kept, l)
		}
	}
	removed := len(r.listeners) - len(kept)
	for i := len(kept); i < len(r.listeners); i++ {
		r.listeners[i] = nil
	}
	r.listeners = kept
	r.dead = 0
	r.compacted += uint64(removed)

	r.logger.Debug().Int("removed", removed).Int("remaining", len(kept)).Msg("listeners compacted")
}

// enqueue adds l to the pending batch and schedules a flush if needed.
func (r *Registry) enqueue(l *Listener) {
	if _, ok := r.queued[l]; !ok {
		r.queued[l] = struct{}{}
		r.pending = append(r.pending, l)
	}
	r.schedule()
}

func (r *Registry) schedule() {
	if r.scheduled {
		return
	}
	if err := r.scheduler.Schedule(func() { r.Flush() }); err != nil {
		// Nothing was queued; the next match or a manual Flush retries.
		r.logger.Warn().Err(err).Int("pending", len(r.pending)).Msg("batch flush not scheduled")
		return
	}
	r.scheduled = true
	r.logger.Debug().Int("pending", len(r.pending)).Msg("batch flush scheduled")
}

// Flush delivers the pending batch now. The batch is swapped for an empty one
// first, so matches produced by the handlers start a new batch. Each listener
// still active receives its own pattern once.
//
// If a handler panics, the listeners of this batch that had not been called
// yet are put back at the front of the pending batch before the panic
// propagates. Returns the number of handlers called.
func (r *Registry) Flush() int {
	batch := r.pending
	r.pending = nil
	clear(r.queued)
	r.scheduled = false

	if len(batch) == 0 {
		return 0
	}
	r.flushes++

	i, called := 0, 0
	defer func() {
		if i < len(batch) {
			r.requeue(batch[i+1:])
		}
	}()

	for ; i < len(batch); i++ {
		l := batch[i]
		if !l.active {
			continue
		}
		r.delivered++
		called++
		l.batch(l.pattern.Clone())
	}

	r.logger.Debug().Int("batch", len(batch)).Int("called", called).Msg("batch flushed")
	return called
}

// requeue puts listeners back at the front of the pending batch.
func (r *Registry) requeue(rest []*Listener) {
	front := make([]*Listener, 0, len(rest)+len(r.pending))
	for _, l := range rest {
		if !l.active {
			continue
		}
		if _, ok := r.queued[l]; ok {
			continue
		}
		r.queued[l] = struct{}{}
		front = append(front, l)
	}
	if len(front) == 0 {
		return
	}
	r.pending = append(front, r.pending...)
	r.schedule()
}

// Len returns the number of listeners held in storage, including inactive
// listeners that have not been compacted yet.
func (r *Registry) Len() int {
	return len(r.listeners)
}

// Pending returns the number of listeners waiting for the next flush.
func (r *Registry) Pending() int {
	return len(r.pending)
}

// Listeners returns the active listeners in registration order.
func (r *Registry) Listeners() []*Listener {
	out := make([]*Listener, 0, len(r.listeners))
	for _, l := range r.listeners {
		if l.active {
			out = append(out, l)
		}
	}
	return out
}

// Stats returns registry counters.
func (r *Registry) Stats() Stats {
	active := 0
	for _, l := range r.listeners {
		if l.active {
			active++
		}
	}
	return Stats{
		Listeners: active,
		Stored:    len(r.listeners),
		Pending:   len(r.pending),
		Published: r.published,
		Delivered: r.delivered,
		Flushes:   r.flushes,
		Compacted: r.compacted,
	}
}

// Stats contains registry counters.
type Stats struct {
	// Listeners is the number of active listeners.
	Listeners int

	// Stored is the number of listeners in storage, active or not.
	Stored int

	// Pending is the size of the pending batch.
	Pending int

	// Published is the number of Publish calls.
	Published uint64

	// Delivered is the number of handler invocations.
	Delivered uint64

	// Flushes is the number of non-empty flushes.
	Flushes uint64

	// Compacted is the number of listeners dropped from storage.
	Compacted uint64
}
