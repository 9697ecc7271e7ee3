package billy

import (
	"errors"
	"io"
	"io/fs"
	"strconv"

	"github.com/go-git/go-billy/v5"
)

// File is an open billy file. Errors other than io.EOF carry the file name.
type File struct {
	file billy.File
	fs   *FS
}

func (f *File) check(op string, err error) error {
	if errors.Is(err, io.EOF) {
		return err
	}
	return wrap(op, f.file.Name(), err)
}

func (f *File) Close() error {
	return f.check("close", f.file.Close())
}

func (f *File) Name() string {
	return f.file.Name()
}

func (f *File) Read(p []byte) (int, error) {
	n, err := f.file.Read(p)
	return n, f.check("read", err)
}

// ReadAt is safe for concurrent use; multipart uploads read parts through it.
func (f *File) ReadAt(p []byte, off int64) (int, error) {
	n, err := f.file.ReadAt(p, off)
	return n, f.check("read at "+strconv.FormatInt(off, 10), err)
}

func (f *File) Seek(offset int64, whence int) (int64, error) {
	pos, err := f.file.Seek(offset, whence)
	return pos, f.check("seek", err)
}

// Stat stats the file by name, billy files carry no info of their own.
func (f *File) Stat() (fs.FileInfo, error) {
	return f.fs.Stat(f.file.Name())
}

func (f *File) Write(p []byte) (int, error) {
	n, err := f.file.Write(p)
	return n, f.check("write", err)
}
