// Package billy implements the local filesystem of a move on top of
// go-billy. NewBaseOSFS serves real moves; NewInMemoryFS backs tests.
package billy

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"

	parentfs "github.com/input-output-hk/s3mv/fs"
)

// FS adapts a billy.Filesystem. Every error names the operation and path.
type FS struct {
	fs billy.Filesystem
}

var _ parentfs.Filesystem = (*FS)(nil)

type chtimer interface {
	Chtimes(name string, atime, mtime time.Time) error
}

func wrap(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("billy: %s %q: %w", op, path, err)
}

// Stat returns the file info of name.
func (b *FS) Stat(name string) (os.FileInfo, error) {
	info, err := b.fs.Stat(name)
	if err != nil {
		return nil, wrap("stat", name, err)
	}
	return info, nil
}

// Walk visits root and everything below it in lexical order. Symlinks are
// reported, not followed.
func (b *FS) Walk(root string, walkFn filepath.WalkFunc) error {
	return wrap("walk", root, util.Walk(b.fs, root, walkFn))
}

// Open opens name for reading.
//
//nolint:ireturn // callers depend on the fs.File interface
func (b *FS) Open(name string) (parentfs.File, error) {
	return b.OpenFile(name, os.O_RDONLY, 0)
}

// OpenFile opens name with flag and perm.
//
//nolint:ireturn // callers depend on the fs.File interface
func (b *FS) OpenFile(name string, flag int, perm os.FileMode) (parentfs.File, error) {
	f, err := b.fs.OpenFile(name, flag, perm)
	if err != nil {
		return nil, wrap("open", name, err)
	}
	return &File{file: f, fs: b}, nil
}

// Rename replaces newpath with oldpath.
func (b *FS) Rename(oldpath, newpath string) error {
	if err := b.fs.Rename(oldpath, newpath); err != nil {
		return fmt.Errorf("billy: rename %q to %q: %w", oldpath, newpath, err)
	}
	return nil
}

// Chtimes sets the file times of name. Backends that cannot change file
// times leave them untouched.
func (b *FS) Chtimes(name string, atime, mtime time.Time) error {
	ch, ok := b.fs.(chtimer)
	if !ok {
		return nil
	}
	return wrap("chtimes", name, ch.Chtimes(name, atime, mtime))
}

// MkdirAll creates path and any missing parents.
func (b *FS) MkdirAll(path string, perm os.FileMode) error {
	return wrap("mkdir", path, b.fs.MkdirAll(path, perm))
}

// Remove deletes name.
func (b *FS) Remove(name string) error {
	return wrap("remove", name, b.fs.Remove(name))
}

// Exists reports whether path exists.
func (b *FS) Exists(path string) (bool, error) {
	_, err := b.fs.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	}
	return false, wrap("stat", path, err)
}

// ReadFile returns the contents of path.
func (b *FS) ReadFile(path string) ([]byte, error) {
	data, err := util.ReadFile(b.fs, path)
	if err != nil {
		return nil, wrap("read", path, err)
	}
	return data, nil
}

// WriteFile writes data to filename, creating parent directories.
func (b *FS) WriteFile(filename string, data []byte, perm os.FileMode) error {
	if err := b.fs.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return wrap("mkdir", filepath.Dir(filename), err)
	}
	return wrap("write", filename, util.WriteFile(b.fs, filename, data, perm))
}

// NewFS wraps fsys.
func NewFS(fsys billy.Filesystem) *FS {
	return &FS{fs: fsys}
}

// NewInMemoryFS creates an empty in-memory filesystem.
func NewInMemoryFS() *FS {
	return &FS{fs: memfs.New()}
}

// NewOSFS creates a filesystem rooted at path.
func NewOSFS(path string) *FS {
	return &FS{fs: osfs.New(path)}
}
