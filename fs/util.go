package fs

import (
	"fmt"
	"path/filepath"
)

// GetAbs returns the absolute form of a command-line path.
func GetAbs(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("fs: abs %q: %w", path, err)
	}
	return abs, nil
}

// HasTrailingSeparator reports whether path names a directory explicitly,
// by ending with the OS separator or a forward slash.
func HasTrailingSeparator(path string) bool {
	if path == "" {
		return false
	}
	last := path[len(path)-1]
	return last == filepath.Separator || last == '/'
}
