// Package fs defines the local filesystem a move reads sources from and
// writes downloads to. The billy subpackage provides the OS and in-memory
// implementations.
package fs

import (
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// File is an open local file. Uploads read it by offset, downloads write it
// sequentially.
type File interface {
	Close() error
	Name() string
	Read(p []byte) (n int, err error)
	ReadAt(p []byte, off int64) (n int, err error)
	Seek(offset int64, whence int) (int64, error)
	Stat() (fs.FileInfo, error)
	Write(p []byte) (n int, err error)
}

// Filesystem is the local side of a move.
type Filesystem interface {
	// Stat and Walk enumerate move sources. Walk does not follow symlinks.
	Stat(name string) (os.FileInfo, error)
	Walk(root string, walkFn filepath.WalkFunc) error

	// Open reads an upload source.
	Open(name string) (File, error)

	// OpenFile, Rename and Chtimes write a download through a temporary file.
	OpenFile(name string, flag int, perm os.FileMode) (File, error)
	Rename(oldpath, newpath string) error
	Chtimes(name string, atime, mtime time.Time) error
	MkdirAll(path string, perm os.FileMode) error

	// Remove deletes a source once it was transferred.
	Remove(name string) error

	Exists(path string) (bool, error)
	ReadFile(path string) ([]byte, error)
	WriteFile(filename string, data []byte, perm os.FileMode) error
}
