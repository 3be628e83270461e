package script

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/pathtree/internal/listener"
	"github.com/dshills/pathtree/internal/store"
)

// DefaultTimeout bounds a single DoString or DoFile call.
const DefaultTimeout = 5 * time.Second

// GlobalName is the name of the API table.
const GlobalName = "pathtree"

// Engine is a sandboxed Lua state bound to one store.
//
// gopher-lua states are not goroutine-safe, and neither is a Store: an Engine
// must be used from the goroutine that owns the store.
type Engine struct {
	L     *lua.LState
	store *store.Store

	timeout time.Duration
	out     io.Writer
	logger  zerolog.Logger

	listeners map[string]*listener.Listener
	errs      []error
	closed    bool

	// running counts DoString and DoFile calls on the stack.
	running int
}

// Option configures an Engine.
type Option func(*Engine)

// WithTimeout bounds each DoString or DoFile call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d >= 0 {
			e.timeout = d
		}
	}
}

// WithOutput sets where print writes. The default is os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(e *Engine) {
		if w != nil {
			e.out = w
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an engine for s.
func New(s *store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:     s,
		timeout:   DefaultTimeout,
		out:       os.Stdout,
		logger:    zerolog.Nop(),
		listeners: make(map[string]*listener.Listener),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.L = lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(e.L)
	e.sandbox()
	e.L.SetGlobal(GlobalName, e.api())
	return e
}

// openSafeLibraries opens only the base, table, string and math libraries.
func openSafeLibraries(L *lua.LState) {
	for _, lib := range []struct {
		name string
		open lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.open))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
}

func (e *Engine) sandbox() {
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require"} {
		e.L.SetGlobal(name, lua.LNil)
	}
	e.L.SetGlobal("print", e.L.NewFunction(e.print))
}

func (e *Engine) print(L *lua.LState) int {
	n := L.GetTop()
	parts := make([]string, n)
	for i := 1; i <= n; i++ {
		parts[i-1] = L.ToStringMeta(L.Get(i)).String()
	}
	fmt.Fprintln(e.out, strings.Join(parts, "\t"))
	return 0
}

// DoString runs a chunk of Lua code.
func (e *Engine) DoString(ctx context.Context, code string) error {
	return e.run(ctx, func() error {
		return e.L.DoString(code)
	})
}

// DoFile runs a Lua file.
func (e *Engine) DoFile(ctx context.Context, path string) error {
	return e.run(ctx, func() error {
		return e.L.DoFile(path)
	})
}

func (e *Engine) run(ctx context.Context, fn func() error) (err error) {
	if e.closed {
		return ErrClosed
	}
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	e.L.SetContext(ctx)
	defer e.L.RemoveContext()

	e.running++
	defer func() { e.running-- }()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

// Errors returns the errors raised by listener callbacks so far.
func (e *Engine) Errors() []error {
	return e.errs
}

// Listeners returns the number of subscriptions made by scripts that are
// still active.
func (e *Engine) Listeners() int {
	return len(e.listeners)
}

// Close unsubscribes every script listener and closes the Lua state.
func (e *Engine) Close() {
	if e.closed {
		return
	}
	e.closed = true
	for id, l := range e.listeners {
		l.Unsubscribe()
		delete(e.listeners, id)
	}
	e.L.Close()
}

// callback invokes a Lua listener. Every error is recorded for Errors. When
// the listener runs inside a script call the error is raised as well, which
// aborts the rest of the publish pass and fails the script; a listener run
// from Go code, such as a scheduled flush, has no script to fail.
func (e *Engine) callback(fn *lua.LFunction, args ...lua.LValue) {
	if e.closed {
		return
	}
	err := e.L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, args...)
	if err == nil {
		return
	}
	err = fmt.Errorf("%w: %w", ErrCallback, err)
	e.errs = append(e.errs, err)
	e.logger.Warn().Err(err).Msg("lua listener failed")
	if e.running > 0 {
		e.L.RaiseError("%s", err.Error())
	}
}
