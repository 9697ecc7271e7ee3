package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	s3errors "github.com/input-output-hk/s3mv/aws/s3/errors"
	"github.com/input-output-hk/s3mv/aws/s3/internal/move/filter"
	"github.com/input-output-hk/s3mv/aws/s3/internal/move/location"
	"github.com/input-output-hk/s3mv/aws/s3/internal/operations/list"
	"github.com/input-output-hk/s3mv/aws/s3/internal/pool"
	"github.com/input-output-hk/s3mv/aws/s3/s3types"
	"github.com/input-output-hk/s3mv/fs"
)

// Scanner handles scanning operations for both local filesystem and remote S3.
type Scanner struct {
	lister     *list.Lister
	filesystem fs.Filesystem
	limiter    *pool.RequestLimiter
	logger     *slog.Logger
}

// New creates a new scanner with the provided S3 client and filesystem.
func New(s3Client list.S3Interface, filesystem fs.Filesystem, limiter *pool.RequestLimiter, logger *slog.Logger) *Scanner {
	return &Scanner{
		lister:     list.New(s3Client),
		filesystem: filesystem,
		limiter:    limiter,
		logger:     logger,
	}
}

// Scan calls fn for every file under src that f includes. src must be
// formatted (see location.Format). Scanning stops at the first error.
func (s *Scanner) Scan(
	ctx context.Context,
	src location.Location,
	recursive bool,
	f *filter.Filter,
	fn func(s3types.SourceFile) error,
) error {
	yield := func(file s3types.SourceFile) error {
		if !f.Include(file.Path) {
			s.debug(ctx, "filtered out", file.Path)
			return nil
		}
		return fn(file)
	}

	switch {
	case src.Type == s3types.PathS3 && recursive:
		return s.lister.Walk(ctx, src.Bucket(), src.Key(), s.limiter, yield)
	case src.Type == s3types.PathS3:
		file, err := s.lister.Stat(ctx, src.Bucket(), src.Key(), s.limiter)
		if err != nil {
			return err //nolint:wrapcheck // already an *errors.Error
		}
		return yield(file)
	case recursive:
		return s.walkLocal(ctx, src.Path, yield)
	default:
		info, err := s.filesystem.Stat(src.Path)
		if err != nil {
			return s3errors.NewError("scan", fmt.Errorf("stat %s: %w", src.Path, err))
		}
		return yield(s3types.SourceFile{
			Path:         src.Path,
			Type:         s3types.PathLocal,
			Size:         info.Size(),
			LastModified: info.ModTime(),
		})
	}
}

// walkLocal walks root depth first, yielding regular files in lexical order.
func (s *Scanner) walkLocal(ctx context.Context, root string, yield func(s3types.SourceFile) error) error {
	var yieldErr error

	err := s.filesystem.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		if err := yield(s3types.SourceFile{
			Path:         path,
			Type:         s3types.PathLocal,
			Size:         info.Size(),
			LastModified: info.ModTime(),
		}); err != nil {
			yieldErr = err
			return err
		}
		return nil
	})

	switch {
	case yieldErr != nil:
		return yieldErr
	case err != nil:
		return s3errors.NewError("scan", s3errors.Classify(err))
	}
	return nil
}

func (s *Scanner) debug(ctx context.Context, msg, path string) {
	if s.logger != nil {
		s.logger.DebugContext(ctx, msg, "path", path)
	}
}
