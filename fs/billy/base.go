package billy

import (
	"os"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
)

// hostFS resolves paths against the host root, so absolute and working
// directory relative paths from the command line behave as they do for os.
type hostFS struct {
	osfs.ChrootOS
}

//nolint:ireturn // signature dictated by billy.Filesystem
func (h *hostFS) Chroot(path string) (billy.Filesystem, error) {
	return osfs.New(path), nil
}

func (h *hostFS) Root() string {
	return string(os.PathSeparator)
}

// Chtimes keeps downloaded files' modification time equal to the object's.
func (h *hostFS) Chtimes(name string, atime, mtime time.Time) error {
	return os.Chtimes(name, atime, mtime)
}

// NewBaseOSFS creates the host filesystem used by the s3 client by default.
func NewBaseOSFS() *FS {
	return &FS{fs: &hostFS{}}
}
