package planner

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	s3errors "github.com/input-output-hk/s3mv/aws/s3/errors"
	"github.com/input-output-hk/s3mv/aws/s3/internal/move/location"
	"github.com/input-output-hk/s3mv/aws/s3/internal/transfer/multipart"
	"github.com/input-output-hk/s3mv/aws/s3/internal/validation"
	"github.com/input-output-hk/s3mv/aws/s3/s3types"
)

// Task is one planned move.
type Task struct {
	// Operation is the transfer performed before the source is removed
	Operation s3types.TransferOperation

	// Src is the absolute local path or "bucket/key" of the source
	Src string

	// Dest is the absolute local path or "bucket/key" of the destination
	Dest string

	SrcType  s3types.PathType
	DestType s3types.PathType

	// CompareKey is the source path relative to the source root, with "/"
	// separators
	CompareKey string

	Size         int64
	LastModified time.Time

	// Parts is the number of requests the transfer takes
	Parts int

	// Warning is set when the task is skipped instead of executed
	Warning string

	// Err is set when the task cannot be executed
	Err error
}

// Config holds the transfer sizes the planner counts parts with.
type Config struct {
	MultipartThreshold int64
	PartSize           int64

	// Cwd is used to render paths in warnings
	Cwd string
}

// Planner plans the tasks of a single move.
type Planner struct {
	pair      location.Pair
	operation s3types.TransferOperation
	config    Config
}

// New creates a planner for pair moving in direction paths.
func New(pair location.Pair, paths location.PathsType, config Config) *Planner {
	return &Planner{
		pair:      pair,
		operation: paths.Operation(),
		config:    config,
	}
}

// Plan maps file onto its destination.
func (p *Planner) Plan(file s3types.SourceFile) Task {
	rel := p.relative(file.Path)

	task := Task{
		Operation:    p.operation,
		Src:          file.Path,
		Dest:         p.destination(rel),
		SrcType:      p.pair.Src.Type,
		DestType:     p.pair.Dest.Type,
		CompareKey:   filepath.ToSlash(rel),
		Size:         file.Size,
		LastModified: file.LastModified,
		Parts:        multipart.CountParts(file.Size, p.config.MultipartThreshold, p.config.PartSize),
	}

	switch {
	case task.Operation == s3types.TransferUpload && file.Size > multipart.MaxUploadSize:
		task.Warning = fmt.Sprintf("skipping file %s; file exceeds 5 TiB upload limit",
			location.Display(task.Src, task.SrcType, p.config.Cwd))
	case task.Operation == s3types.TransferDownload && p.pair.UseSrcName && validation.ValidateRelativePath(rel) != nil:
		task.Warning = fmt.Sprintf("skipping file %s; file is outside of destination directory",
			location.Display(task.Src, task.SrcType, p.config.Cwd))
	case task.Operation == s3types.TransferCopy && task.Src == task.Dest:
		bucket, key := location.SplitBucketKey(task.Src)
		task.Err = s3errors.NewObjectError("move", bucket, key,
			s3errors.Describef(s3errors.ErrSameObject, "Cannot move a file onto itself: %s%s", location.Scheme, task.Src))
	case task.DestType == s3types.PathS3:
		bucket, key := location.SplitBucketKey(task.Dest)
		if err := validation.ValidateObjectKey(key); err != nil {
			task.Err = s3errors.NewObjectError("move", bucket, key,
				s3errors.Describef(err, "Invalid destination key %q: %s", key, s3errors.Describe(err)))
		}
	}

	return task
}

// relative returns path relative to the source root for recursive moves and
// its base name otherwise.
func (p *Planner) relative(path string) string {
	sep := separator(p.pair.Src.Type)
	if p.pair.Recursive {
		return strings.TrimPrefix(path, p.pair.Src.Path)
	}
	if i := strings.LastIndex(path, sep); i >= 0 {
		return path[i+1:]
	}
	return path
}

func (p *Planner) destination(rel string) string {
	if !p.pair.UseSrcName {
		return p.pair.Dest.Path
	}
	srcSep := separator(p.pair.Src.Type)
	destSep := separator(p.pair.Dest.Type)
	if srcSep != destSep {
		rel = strings.ReplaceAll(rel, srcSep, destSep)
	}
	return p.pair.Dest.Path + rel
}

func separator(t s3types.PathType) string {
	if t == s3types.PathS3 {
		return "/"
	}
	return string(filepath.Separator)
}
