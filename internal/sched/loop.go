package sched

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// PanicHandler is called when a posted task panics.
type PanicHandler func(value any, stack []byte)

// Loop is a Scheduler backed by a single goroutine that executes tasks in
// FIFO order. Tasks never overlap, so a store driven only through its loop is
// effectively single-threaded.
//
// Do must not be called from a task running on the same loop; use Post.
type Loop struct {
	mu      sync.Mutex
	tasks   []func()
	wake    chan struct{}
	done    chan struct{}
	exited  chan struct{}
	running atomic.Bool

	// accepting stays true until the goroutine has drained its queue after Stop.
	accepting bool

	panicHandler PanicHandler
	logger       zerolog.Logger

	// Stats
	executed atomic.Uint64
	panicked atomic.Uint64
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithPanicHandler sets the handler for panics in posted tasks.
func WithPanicHandler(h PanicHandler) LoopOption {
	return func(l *Loop) {
		if h != nil {
			l.panicHandler = h
		}
	}
}

// WithLogger sets the logger used for loop diagnostics.
func WithLogger(logger zerolog.Logger) LoopOption {
	return func(l *Loop) {
		l.logger = logger
	}
}

// NewLoop creates a stopped loop.
func NewLoop(opts ...LoopOption) *Loop {
	l := &Loop{
		wake:   make(chan struct{}, 1),
		logger: zerolog.Nop(),
	}
	l.panicHandler = l.logPanic
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Start launches the loop goroutine. A loop whose previous goroutine is
// still draining after Stop cannot be restarted yet and returns ErrStopping.
func (l *Loop) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running.Load() {
		return ErrAlreadyRunning
	}
	if l.accepting {
		return ErrStopping
	}

	l.done = make(chan struct{})
	l.exited = make(chan struct{})
	l.running.Store(true)
	l.accepting = true

	go l.run(l.done, l.exited)

	l.logger.Debug().Msg("loop started")
	return nil
}

// Stop stops the loop after the tasks already queued have run.
// It waits for the goroutine to exit or for ctx to be cancelled.
func (l *Loop) Stop(ctx context.Context) error {
	l.mu.Lock()
	if !l.running.Load() {
		l.mu.Unlock()
		return ErrNotRunning
	}
	l.running.Store(false)
	close(l.done)
	exited := l.exited
	l.mu.Unlock()

	select {
	case <-exited:
		l.logger.Debug().Uint64("executed", l.executed.Load()).Msg("loop stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsRunning returns true if the loop goroutine is active.
func (l *Loop) IsRunning() bool {
	return l.running.Load()
}

// Schedule queues task to run after the current task. It implements Scheduler
// and returns ErrNotRunning on a stopped loop.
func (l *Loop) Schedule(task func()) error {
	return l.Post(task)
}

// Post queues task for execution on the loop goroutine.
func (l *Loop) Post(task func()) error {
	if task == nil {
		return nil
	}

	l.mu.Lock()
	if !l.accepting {
		l.mu.Unlock()
		return ErrNotRunning
	}
	l.tasks = append(l.tasks, task)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return nil
}

// PostAfter posts task once d has elapsed. The returned function cancels the
// post if it has not happened yet.
func (l *Loop) PostAfter(d time.Duration, task func()) (cancel func() bool) {
	t := time.AfterFunc(d, func() {
		_ = l.Post(task)
	})
	return t.Stop
}

// Do runs fn on the loop goroutine and waits for it to return.
// A panic in fn is recovered and returned as a *PanicError.
func (l *Loop) Do(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)

	err := l.Post(func() {
		var err error
		defer func() {
			if r := recover(); r != nil {
				l.panicked.Add(1)
				err = &PanicError{Value: r, Stack: debug.Stack()}
			}
			result <- err
		}()
		err = fn()
	})
	if err != nil {
		return err
	}

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns the number of executed and panicked tasks.
func (l *Loop) Stats() LoopStats {
	return LoopStats{
		Executed: l.executed.Load(),
		Panicked: l.panicked.Load(),
		Pending:  l.pending(),
	}
}

// LoopStats contains loop counters.
type LoopStats struct {
	Executed uint64
	Panicked uint64
	Pending  int
}

func (l *Loop) pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks)
}

// run is the loop goroutine.
func (l *Loop) run(done <-chan struct{}, exited chan<- struct{}) {
	defer close(exited)

	for {
		select {
		case <-l.wake:
			l.runQueued()
		case <-done:
			// Run what was queued before Stop, including follow-up tasks
			// such as flushes scheduled by those tasks.
			for {
				l.runQueued()
				l.mu.Lock()
				if len(l.tasks) == 0 {
					l.accepting = false
					l.mu.Unlock()
					return
				}
				l.mu.Unlock()
			}
		}
	}
}

// runQueued executes queued tasks one at a time until the queue is empty.
func (l *Loop) runQueued() int {
	n := 0
	for {
		l.mu.Lock()
		if len(l.tasks) == 0 {
			l.mu.Unlock()
			return n
		}
		task := l.tasks[0]
		l.tasks[0] = nil
		l.tasks = l.tasks[1:]
		l.mu.Unlock()

		l.execute(task)
		n++
	}
}

// execute runs a task with panic recovery.
func (l *Loop) execute(task func()) {
	defer func() {
		if r := recover(); r != nil {
			l.panicked.Add(1)
			stack := debug.Stack()
			func() {
				defer func() { _ = recover() }()
				l.panicHandler(r, stack)
			}()
		}
	}()

	task()
	l.executed.Add(1)
}

func (l *Loop) logPanic(value any, stack []byte) {
	l.logger.Error().
		Interface("panic", value).
		Bytes("stack", stack).
		Msg("loop task panicked")
}
