package document

import (
	"io/fs"
	"os"
)

// FileSystem is the file access the loader needs.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
	Stat(path string) (fs.FileInfo, error)
}

// OSFS implements FileSystem using the real OS file system.
type OSFS struct{}

// ReadFile reads the entire file at path.
func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Stat returns file info for path.
func (OSFS) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// FS adapts an fs.FS, such as fstest.MapFS, to FileSystem.
type FS struct {
	FS fs.FS
}

// ReadFile reads the entire file at path.
func (f FS) ReadFile(path string) ([]byte, error) {
	return fs.ReadFile(f.FS, path)
}

// Stat returns file info for path.
func (f FS) Stat(path string) (fs.FileInfo, error) {
	return fs.Stat(f.FS, path)
}
