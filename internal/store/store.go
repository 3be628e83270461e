package store

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dshills/pathtree/internal/listener"
	"github.com/dshills/pathtree/internal/pattern"
	"github.com/dshills/pathtree/internal/sched"
	"github.com/dshills/pathtree/internal/tree"
)

// Store is an observable data tree.
type Store struct {
	tree     *tree.Tree
	root     *tree.Node
	registry *listener.Registry

	scheduler         sched.Scheduler
	logger            zerolog.Logger
	suppressUnchanged bool
	maxArrayLen       int
	idGenerator       func() string
}

// Option configures a Store.
type Option func(*Store)

// WithScheduler sets the scheduler that runs batch flushes.
// The default is a sched.Manual driven by Tick.
func WithScheduler(s sched.Scheduler) Option {
	return func(st *Store) {
		if s != nil {
			st.scheduler = s
		}
	}
}

// WithLogger sets the logger passed to the tree and the registry.
func WithLogger(logger zerolog.Logger) Option {
	return func(st *Store) {
		st.logger = logger
	}
}

// WithSuppressUnchanged drops writes of a value equal to the current one.
func WithSuppressUnchanged(on bool) Option {
	return func(st *Store) {
		st.suppressUnchanged = on
	}
}

// WithMaxArrayLen sets the largest array length the tree accepts.
// See tree.WithMaxArrayLen.
func WithMaxArrayLen(n int) Option {
	return func(st *Store) {
		st.maxArrayLen = n
	}
}

// WithIDGenerator sets the function that generates listener IDs.
func WithIDGenerator(fn func() string) Option {
	return func(st *Store) {
		st.idGenerator = fn
	}
}

// New wraps root, which must be an object or an array, into a store.
func New(root any, opts ...Option) (*Store, error) {
	s := &Store{
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.scheduler == nil {
		s.scheduler = sched.NewManual()
	}

	s.registry = listener.NewRegistry(
		listener.WithScheduler(s.scheduler),
		listener.WithLogger(s.logger),
		listener.WithIDGenerator(s.idGenerator),
	)
	s.tree = tree.New(s.registry,
		tree.WithSuppressUnchanged(s.suppressUnchanged),
		tree.WithMaxArrayLen(s.maxArrayLen),
		tree.WithLogger(s.logger),
	)

	n, err := s.tree.Wrap(root)
	if err != nil {
		return nil, fmt.Errorf("new store: %w", err)
	}
	s.root = n
	return s, nil
}

// Root returns the root node.
func (s *Store) Root() *tree.Node {
	return s.root
}

// Registry returns the listener registry.
func (s *Store) Registry() *listener.Registry {
	return s.registry
}

// Scheduler returns the scheduler that runs batch flushes.
func (s *Store) Scheduler() sched.Scheduler {
	return s.scheduler
}

// On registers an immediate listener. src is any value accepted by
// PatternOf.
func (s *Store) On(src any, h listener.Handler) (*listener.Listener, error) {
	p, err := PatternOf(src)
	if err != nil {
		return nil, err
	}
	return s.registry.Register(p, h)
}

// OnBatched registers a listener that is called at most once per flush with
// its own pattern.
func (s *Store) OnBatched(src any, h listener.BatchHandler) (*listener.Listener, error) {
	p, err := PatternOf(src)
	if err != nil {
		return nil, err
	}
	return s.registry.RegisterBatched(p, h)
}

// Off unsubscribes l. Calling it more than once, or with nil, is a no-op.
func (s *Store) Off(l *listener.Listener) {
	if l != nil {
		l.Unsubscribe()
	}
}

// Tick runs one turn of a manual scheduler and returns the number of tasks
// executed. With any other scheduler it does nothing.
func (s *Store) Tick() int {
	if m, ok := s.scheduler.(*sched.Manual); ok {
		return m.RunPending()
	}
	return 0
}

// Flush delivers the pending batch now and returns the number of listeners
// called.
func (s *Store) Flush() int {
	return s.registry.Flush()
}

// Get resolves path from the root.
func (s *Store) Get(path pattern.Path) (any, bool) {
	return s.root.Lookup(path)
}

// SetPath writes value at path. Every parent on the path must already exist.
func (s *Store) SetPath(path pattern.Path, value any) error {
	parent, key, err := s.parentOf(path)
	if err != nil {
		return err
	}
	return parent.Set(key, value)
}

// DeletePath deletes the value at path.
func (s *Store) DeletePath(path pattern.Path) error {
	parent, key, err := s.parentOf(path)
	if err != nil {
		return err
	}
	return parent.Delete(key)
}

func (s *Store) parentOf(path pattern.Path) (*tree.Node, string, error) {
	if len(path) == 0 {
		return nil, "", fmt.Errorf("empty path: %w", tree.ErrInvalidKey)
	}
	v, ok := s.root.Lookup(path.Parent())
	if !ok {
		return nil, "", fmt.Errorf("%q: %w", path.Parent().String(), ErrNotFound)
	}
	n, ok := v.(*tree.Node)
	if !ok {
		return nil, "", fmt.Errorf("%q is not a container: %w", path.Parent().String(), ErrNotFound)
	}
	return n, path.Base(), nil
}

// Reconcile replaces the store's content with doc, publishing only the
// differences.
func (s *Store) Reconcile(doc any) error {
	return s.root.Reconcile(doc)
}
