package changelog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
	"golang.org/x/term"

	"github.com/dshills/pathtree/internal/listener"
	"github.com/dshills/pathtree/internal/pattern"
	"github.com/dshills/pathtree/internal/store"
)

// Op is the kind of a change record.
type Op string

const (
	// OpSet records a write; the record carries "path" and "value".
	OpSet Op = "set"

	// OpDelete records a removal; the record carries "path" only.
	OpDelete Op = "delete"

	// OpBatch records a batched flush; the record carries "pattern".
	OpBatch Op = "batch"
)

// Recorder writes change records to an io.Writer.
type Recorder struct {
	w      io.Writer
	color  bool
	clock  func() time.Time
	logger zerolog.Logger

	listener *listener.Listener
	seq      uint64
	err      error
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithColor colors every record for terminal output.
func WithColor(on bool) Option {
	return func(r *Recorder) {
		r.color = on
	}
}

// WithClock adds a "time" field produced by clock to every record.
func WithClock(clock func() time.Time) Option {
	return func(r *Recorder) {
		r.clock = clock
	}
}

// WithLogger sets the logger used to report write failures.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Recorder) {
		r.logger = logger
	}
}

// New creates a recorder writing to w.
func New(w io.Writer, opts ...Option) *Recorder {
	r := &Recorder{
		w:      w,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Attach subscribes the recorder to changes matching src on s.
func (r *Recorder) Attach(s *store.Store, src any) error {
	if r.listener != nil {
		return ErrAttached
	}
	l, err := s.On(src, r.Record)
	if err != nil {
		return fmt.Errorf("attach recorder: %w", err)
	}
	r.listener = l
	return nil
}

// AttachBatched subscribes the recorder as a batched listener.
func (r *Recorder) AttachBatched(s *store.Store, src any) error {
	if r.listener != nil {
		return ErrAttached
	}
	l, err := s.OnBatched(src, r.RecordBatch)
	if err != nil {
		return fmt.Errorf("attach recorder: %w", err)
	}
	r.listener = l
	return nil
}

// Detach unsubscribes the recorder.
func (r *Recorder) Detach() {
	if r.listener != nil {
		r.listener.Unsubscribe()
		r.listener = nil
	}
}

// Record writes a set record, or a delete record when args is empty.
// It has the signature of an immediate listener. A value that cannot be
// encoded, such as a cyclic container, writes nothing; the error is logged
// and kept for Err.
func (r *Recorder) Record(path pattern.Path, args ...any) {
	if len(args) == 0 {
		r.write(r.header(OpDelete, "path", path.String()))
		return
	}
	line, err := r.header(OpSet, "path", path.String())
	if err == nil {
		line, err = setValue(line, args[0])
	}
	if err != nil {
		err = fmt.Errorf("record %q: %w", path.String(), err)
	}
	r.write(line, err)
}

// RecordBatch writes a batch record. It has the signature of a batched
// listener.
func (r *Recorder) RecordBatch(p pattern.Pattern) {
	r.write(r.header(OpBatch, "pattern", p.String()))
}

// Count returns the number of records written.
func (r *Recorder) Count() uint64 {
	return r.seq
}

// Err returns the first error met while encoding or writing.
func (r *Recorder) Err() error {
	return r.err
}

func (r *Recorder) header(op Op, key, value string) ([]byte, error) {
	line, err := sjson.SetBytes([]byte(`{}`), "seq", r.seq+1)
	if err != nil {
		return nil, err
	}
	if r.clock != nil {
		if line, err = sjson.SetBytes(line, "time", r.clock().UTC().Format(time.RFC3339Nano)); err != nil {
			return nil, err
		}
	}
	if line, err = sjson.SetBytes(line, "op", string(op)); err != nil {
		return nil, err
	}
	return sjson.SetBytes(line, key, value)
}

func setValue(line []byte, v any) ([]byte, error) {
	if m, ok := v.(json.Marshaler); ok {
		raw, err := m.MarshalJSON()
		if err != nil {
			return nil, err
		}
		return sjson.SetRawBytes(line, "value", raw)
	}
	return sjson.SetBytes(line, "value", v)
}

func (r *Recorder) write(line []byte, err error) {
	if err == nil {
		if r.color {
			line = pretty.Color(line, nil)
		}
		_, err = r.w.Write(append(line, '\n'))
	}
	if err != nil {
		r.logger.Warn().Err(err).Msg("changelog write failed")
		if r.err == nil {
			r.err = err
		}
		return
	}
	r.seq++
}
