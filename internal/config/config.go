package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cast"

	"github.com/dshills/pathtree/internal/document"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "PATHTREE_"

// Config holds all settings.
type Config struct {
	Log    LogConfig    `toml:"log"`
	Watch  WatchConfig  `toml:"watch"`
	Listen ListenConfig `toml:"listen"`
	Tree   TreeConfig   `toml:"tree"`
	Output OutputConfig `toml:"output"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `toml:"level"`
	Pretty bool   `toml:"pretty"`
}

// WatchConfig configures the file synchroniser.
type WatchConfig struct {
	Debounce Duration `toml:"debounce"`
}

// ListenConfig configures the change log subscription.
type ListenConfig struct {
	Patterns []string `toml:"patterns"`
	Batched  bool     `toml:"batched"`
}

// TreeConfig configures the store.
type TreeConfig struct {
	SuppressUnchanged bool   `toml:"suppress_unchanged"`
	Select            string `toml:"select"`
}

// OutputConfig configures printed documents and records.
type OutputConfig struct {
	Format string `toml:"format"`
	// Color is "auto", "always" or "never".
	Color string `toml:"color"`
}

// Duration is a time.Duration written as a string such as "250ms".
type Duration time.Duration

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("duration %q: %w", text, ErrInvalid)
	}
	*d = Duration(v)
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the duration as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Log:    LogConfig{Level: "warn"},
		Watch:  WatchConfig{Debounce: Duration(100 * time.Millisecond)},
		Listen: ListenConfig{Patterns: []string{"**"}},
		Output: OutputConfig{Format: "json", Color: "auto"},
	}
}

// DefaultPath returns the default location of the config file.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "pathtree", "config.toml")
}

// LoadOption configures Load.
type LoadOption func(*loadOptions)

type loadOptions struct {
	readFile func(string) ([]byte, error)
	lookup   func(string) (string, bool)
	required bool
}

// WithReadFile replaces os.ReadFile.
func WithReadFile(fn func(string) ([]byte, error)) LoadOption {
	return func(o *loadOptions) {
		o.readFile = fn
	}
}

// WithLookupEnv replaces os.LookupEnv.
func WithLookupEnv(fn func(string) (string, bool)) LoadOption {
	return func(o *loadOptions) {
		o.lookup = fn
	}
}

// Required makes a missing config file an error.
func Required() LoadOption {
	return func(o *loadOptions) {
		o.required = true
	}
}

// Load resolves the settings from the defaults, the file at path and the
// environment. An empty path skips the file.
func Load(path string, opts ...LoadOption) (*Config, error) {
	o := loadOptions{readFile: os.ReadFile, lookup: os.LookupEnv}
	for _, opt := range opts {
		opt(&o)
	}

	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path, o); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(o.lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string, o loadOptions) error {
	data, err := o.readFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !o.required {
			return nil
		}
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, c); err != nil {
		pe := &document.ParseError{Path: path, Format: document.FormatTOML, Message: err.Error(), Err: err}
		var de *toml.DecodeError
		if errors.As(err, &de) {
			pe.Line, pe.Column = de.Position()
		}
		return pe
	}
	return nil
}

// applyEnv overrides settings from PATHTREE_* variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	var errs []error
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	boolean := func(name string, dst *bool) {
		if v, ok := lookup(EnvPrefix + name); ok {
			b, err := cast.ToBoolE(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s=%q: %w", EnvPrefix, name, v, ErrInvalid))
				return
			}
			*dst = b
		}
	}

	str("LOG_LEVEL", &c.Log.Level)
	boolean("LOG_PRETTY", &c.Log.Pretty)
	str("FORMAT", &c.Output.Format)
	str("COLOR", &c.Output.Color)
	str("SELECT", &c.Tree.Select)
	boolean("SUPPRESS_UNCHANGED", &c.Tree.SuppressUnchanged)
	boolean("BATCHED", &c.Listen.Batched)

	if v, ok := lookup(EnvPrefix + "DEBOUNCE"); ok {
		d, err := cast.ToDurationE(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sDEBOUNCE=%q: %w", EnvPrefix, v, ErrInvalid))
		} else {
			c.Watch.Debounce = Duration(d)
		}
	}
	if v, ok := lookup(EnvPrefix + "PATTERNS"); ok {
		c.Listen.Patterns = SplitList(v)
	}
	return errors.Join(errs...)
}

// SplitList splits a comma-separated list, dropping empty entries.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks settings that have a fixed set of values.
func (c *Config) Validate() error {
	if _, err := document.ParseFormat(c.Output.Format); err != nil {
		return fmt.Errorf("output.format: %w: %w", ErrInvalid, err)
	}
	switch c.Output.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("output.color %q: %w", c.Output.Color, ErrInvalid)
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce %s: %w", c.Watch.Debounce.Std(), ErrInvalid)
	}
	return nil
}

// Format returns the parsed output format.
func (c *Config) Format() document.Format {
	f, _ := document.ParseFormat(c.Output.Format)
	return f
}
