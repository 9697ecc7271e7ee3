package location

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	s3errors "github.com/input-output-hk/s3mv/aws/s3/errors"
	"github.com/input-output-hk/s3mv/aws/s3/s3types"
	"github.com/input-output-hk/s3mv/fs"
)

// Scheme prefixes every S3 location on the command line.
const Scheme = "s3://"

// Usage is reported when the source and destination cannot be moved between.
const Usage = "usage: s3mv mv <LocalPath> <S3Path> or <S3Path> <LocalPath> or <S3Path> <S3Path>"

// Location is one side of a move.
type Location struct {
	// Type is the side the path lives on
	Type s3types.PathType

	// Path is "bucket/key" for S3 or a local path
	Path string
}

// PathsType names the direction of a move.
type PathsType string

const (
	// LocalS3 moves local files into S3
	LocalS3 PathsType = "locals3"

	// S3Local moves S3 objects onto the local filesystem
	S3Local PathsType = "s3local"

	// S3S3 moves S3 objects between S3 locations
	S3S3 PathsType = "s3s3"
)

// Operation returns the transfer performed for a move in direction t.
func (t PathsType) Operation() s3types.TransferOperation {
	switch t {
	case LocalS3:
		return s3types.TransferUpload
	case S3Local:
		return s3types.TransferDownload
	default:
		return s3types.TransferCopy
	}
}

// Pair is a formatted source and destination.
type Pair struct {
	Src  Location
	Dest Location

	// UseSrcName is set when the destination is a directory or prefix and
	// each file keeps its source-relative name under it
	UseSrcName bool

	Recursive bool
}

// Parse parses a command-line argument. Arguments starting with "s3://" are
// S3 locations; a bare bucket gets a trailing slash.
func Parse(arg string) Location {
	if !strings.HasPrefix(arg, Scheme) {
		return Location{Type: s3types.PathLocal, Path: arg}
	}
	path := strings.TrimPrefix(arg, Scheme)
	if _, key := SplitBucketKey(path); key == "" && !strings.HasSuffix(path, "/") {
		path += "/"
	}
	return Location{Type: s3types.PathS3, Path: path}
}

// SplitBucketKey splits "bucket/key" on the first slash.
func SplitBucketKey(path string) (string, string) {
	bucket, key, _ := strings.Cut(path, "/")
	return bucket, key
}

// Bucket returns the bucket of an S3 location.
func (l Location) Bucket() string {
	bucket, _ := SplitBucketKey(l.Path)
	return bucket
}

// Key returns the key of an S3 location.
func (l Location) Key() string {
	_, key := SplitBucketKey(l.Path)
	return key
}

// Classify returns the direction of a move from src to dest. Local to local
// moves are rejected.
func Classify(src, dest Location) (PathsType, error) {
	switch {
	case src.Type == s3types.PathLocal && dest.Type == s3types.PathS3:
		return LocalS3, nil
	case src.Type == s3types.PathS3 && dest.Type == s3types.PathLocal:
		return S3Local, nil
	case src.Type == s3types.PathS3 && dest.Type == s3types.PathS3:
		return S3S3, nil
	}
	return "", s3errors.NewValidationError(Usage + "\nError: Invalid argument type")
}

// Format resolves src and dest for planning. Local paths become absolute;
// directories and prefixes get a trailing separator. UseSrcName follows the
// destination.
func Format(filesystem fs.Filesystem, src, dest Location, recursive bool) (Pair, error) {
	formattedSrc, _, err := format(filesystem, src, recursive)
	if err != nil {
		return Pair{}, err
	}
	formattedDest, useSrcName, err := format(filesystem, dest, recursive)
	if err != nil {
		return Pair{}, err
	}
	return Pair{
		Src:        formattedSrc,
		Dest:       formattedDest,
		UseSrcName: useSrcName,
		Recursive:  recursive,
	}, nil
}

func format(filesystem fs.Filesystem, loc Location, recursive bool) (Location, bool, error) {
	if loc.Type == s3types.PathS3 {
		path := loc.Path
		if recursive && !strings.HasSuffix(path, "/") {
			path += "/"
		}
		return Location{Type: s3types.PathS3, Path: path}, strings.HasSuffix(path, "/"), nil
	}

	abs, err := fs.GetAbs(loc.Path)
	if err != nil {
		return Location{}, false, s3errors.NewError("format", err)
	}

	dir := recursive || fs.HasTrailingSeparator(loc.Path)
	if !dir {
		if info, err := filesystem.Stat(abs); err == nil && info.IsDir() {
			dir = true
		}
	}
	if dir && !strings.HasSuffix(abs, string(filepath.Separator)) {
		abs += string(filepath.Separator)
	}
	return Location{Type: s3types.PathLocal, Path: abs}, dir, nil
}

// CheckSource verifies that a local source exists and is a directory exactly
// when the move is recursive. S3 sources are checked while scanning.
func CheckSource(filesystem fs.Filesystem, src Location, recursive bool) error {
	if src.Type != s3types.PathLocal {
		return nil
	}

	abs, err := fs.GetAbs(src.Path)
	if err != nil {
		return s3errors.NewError("checkSource", err)
	}

	info, err := filesystem.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s3errors.NewError("checkSource",
				s3errors.Describef(s3errors.ErrLocalPathNotFound, "Error: Local path does not exist"))
		}
		return s3errors.NewError("checkSource", err)
	}

	switch {
	case info.IsDir() && !recursive:
		return s3errors.NewValidationError("Error: Requires a local file")
	case !info.IsDir() && recursive:
		return s3errors.NewValidationError("Error: Requires a local directory")
	}
	return nil
}

// CheckOverlap rejects a recursive move between S3 locations whose
// destination lies under the source prefix. Objects written there would be
// listed and moved again.
func CheckOverlap(pair Pair) error {
	if !pair.Recursive || pair.Src.Type != s3types.PathS3 || pair.Dest.Type != s3types.PathS3 {
		return nil
	}
	if pair.Src.Bucket() != pair.Dest.Bucket() || !strings.HasPrefix(pair.Dest.Key(), pair.Src.Key()) {
		return nil
	}
	return s3errors.NewValidationError("Error: Cannot move " + Scheme + pair.Src.Path +
		" into " + Scheme + pair.Dest.Path + ", which is inside the source")
}

// Display renders a location for output: S3 locations with their scheme,
// local paths relative to cwd when possible.
func Display(path string, pathType s3types.PathType, cwd string) string {
	if pathType == s3types.PathS3 {
		return Scheme + path
	}
	if cwd == "" {
		return path
	}
	rel, err := filepath.Rel(cwd, path)
	if err != nil {
		return path
	}
	return rel
}
