package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/dshills/pathtree/internal/document"
	"github.com/dshills/pathtree/internal/sched"
	"github.com/dshills/pathtree/internal/store"
)

// DefaultDebounce is the quiet period before a changed file is reloaded.
const DefaultDebounce = 100 * time.Millisecond

// Sync reloads a document into a store whenever the file changes.
type Sync struct {
	path   string
	store  *store.Store
	loop   *sched.Loop
	loader *document.Loader

	debounce time.Duration
	onReload func(err error)
	logger   zerolog.Logger

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	pending func() bool
	done    chan struct{}
	wg      sync.WaitGroup

	// Stats
	events  atomic.Uint64
	reloads atomic.Uint64
	errors  atomic.Uint64
}

// Option configures a Sync.
type Option func(*Sync)

// WithDebounce sets the quiet period before reloading.
func WithDebounce(d time.Duration) Option {
	return func(w *Sync) {
		if d >= 0 {
			w.debounce = d
		}
	}
}

// WithLoader sets the document loader. The default detects the format from
// the file extension.
func WithLoader(l *document.Loader) Option {
	return func(w *Sync) {
		if l != nil {
			w.loader = l
		}
	}
}

// WithOnReload sets a callback run on the loop after every reload attempt.
func WithOnReload(fn func(err error)) Option {
	return func(w *Sync) {
		w.onReload = fn
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(w *Sync) {
		w.logger = logger
	}
}

// New creates a Sync for the file at path. All store access happens on loop,
// which must also be the store's scheduler.
func New(path string, s *store.Store, loop *sched.Loop, opts ...Option) (*Sync, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	w := &Sync{
		path:     filepath.Clean(abs),
		store:    s,
		loop:     loop,
		loader:   document.NewLoader(),
		debounce: DefaultDebounce,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Path returns the absolute path of the watched file.
func (w *Sync) Path() string {
	return w.path
}

// Start begins watching the file.
func (w *Sync) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.fsw != nil {
		return ErrAlreadyRunning
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch %s: %w", w.path, err)
	}
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		_ = fsw.Close()
		return fmt.Errorf("watch %s: %w", w.path, err)
	}

	w.fsw = fsw
	w.done = make(chan struct{})
	w.wg.Add(1)
	go w.processLoop(fsw, w.done)

	w.logger.Debug().Str("path", w.path).Msg("watching")
	return nil
}

// Stop stops watching and cancels a pending reload.
func (w *Sync) Stop(ctx context.Context) error {
	w.mu.Lock()
	if w.fsw == nil {
		w.mu.Unlock()
		return ErrNotRunning
	}
	fsw := w.fsw
	w.fsw = nil
	close(w.done)
	if w.pending != nil {
		w.pending()
		w.pending = nil
	}
	w.mu.Unlock()

	err := fsw.Close()

	finished := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
	case <-ctx.Done():
		return ctx.Err()
	}
	return err
}

// Reload loads the file now and reconciles it into the store, waiting for
// the loop to apply it.
func (w *Sync) Reload(ctx context.Context) error {
	return w.loop.Do(ctx, w.apply)
}

// Stats returns watcher counters.
func (w *Sync) Stats() Stats {
	return Stats{
		Events:  w.events.Load(),
		Reloads: w.reloads.Load(),
		Errors:  w.errors.Load(),
	}
}

// Stats contains watcher counters.
type Stats struct {
	Events  uint64
	Reloads uint64
	Errors  uint64
}

func (w *Sync) processLoop(fsw *fsnotify.Watcher, done <-chan struct{}) {
	defer w.wg.Done()

	for {
		select {
		case <-done:
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.errors.Add(1)
			w.logger.Warn().Err(err).Str("path", w.path).Msg("watch error")
		}
	}
}

func (w *Sync) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
			w.logger.Debug().Str("path", w.path).Stringer("op", event.Op).Msg("file moved away")
		}
		return
	}
	w.events.Add(1)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fsw == nil {
		return
	}
	if w.pending != nil {
		w.pending()
	}
	w.pending = w.loop.PostAfter(w.debounce, w.reload)
}

// reload runs on the loop once the file has settled.
func (w *Sync) reload() {
	w.mu.Lock()
	w.pending = nil
	w.mu.Unlock()

	if err := w.apply(); err != nil {
		w.logger.Warn().Err(err).Str("path", w.path).Msg("reload failed")
	}
}

// apply runs on the loop.
func (w *Sync) apply() error {
	doc, err := w.loader.Load(w.path)
	if err == nil {
		err = w.store.Reconcile(doc)
	}

	if err != nil {
		w.errors.Add(1)
	} else {
		w.reloads.Add(1)
		w.logger.Debug().Str("path", w.path).Msg("reloaded")
	}
	if w.onReload != nil {
		w.onReload(err)
	}
	return err
}
