package document

import (
	"fmt"
)

// Loader reads documents from a file system.
type Loader struct {
	fs       FileSystem
	format   Format
	explicit bool
	selector string
}

// Option configures a Loader.
type Option func(*Loader)

// WithFS sets the file system. The default is OSFS.
func WithFS(fsys FileSystem) Option {
	return func(l *Loader) {
		if fsys != nil {
			l.fs = fsys
		}
	}
}

// WithFormat forces a format instead of detecting it from the extension.
func WithFormat(f Format) Option {
	return func(l *Loader) {
		l.format = f
		l.explicit = true
	}
}

// WithSelect narrows every loaded document to the sub-document at selector.
func WithSelect(selector string) Option {
	return func(l *Loader) {
		l.selector = selector
	}
}

// NewLoader creates a loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{fs: OSFS{}}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads and decodes the document at path.
func (l *Loader) Load(path string) (any, error) {
	format := l.format
	if !l.explicit {
		f, err := FormatOf(path)
		if err != nil {
			return nil, err
		}
		format = f
	}

	data, err := l.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading document %s: %w", path, err)
	}

	v, err := decode(path, data, format, l.selector)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Format returns the format the loader would use for path.
func (l *Loader) Format(path string) (Format, error) {
	if l.explicit {
		return l.format, nil
	}
	return FormatOf(path)
}
