package download

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/input-output-hk/s3mv/aws/s3/errors"
	"github.com/input-output-hk/s3mv/aws/s3/internal/operations"
	"github.com/input-output-hk/s3mv/aws/s3/internal/pool"
	"github.com/input-output-hk/s3mv/aws/s3/internal/s3api"
	"github.com/input-output-hk/s3mv/aws/s3/internal/transfer/multipart"
	"github.com/input-output-hk/s3mv/aws/s3/s3types"
	"github.com/input-output-hk/s3mv/fs"
)

// Downloader handles S3 download operations.
type Downloader struct {
	s3Client s3api.S3API
	fs       fs.Filesystem
}

// New creates a new Downloader writing to filesystem.
func New(s3Client s3api.S3API, filesystem fs.Filesystem) *Downloader {
	return &Downloader{
		s3Client: s3Client,
		fs:       filesystem,
	}
}

// DownloadFile downloads bucket/key to the local path dest, creating parent
// directories as needed. The file's modification time is set to the
// object's LastModified.
func (d *Downloader) DownloadFile(
	ctx context.Context,
	bucket, key, dest string,
	cfg *operations.TransferConfig,
) (*s3types.DownloadResult, error) {
	start := time.Now()

	release, err := cfg.RequestLimiter().Acquire(ctx)
	if err != nil {
		return nil, errors.NewObjectError("download", bucket, key, errors.Classify(err))
	}
	defer release()

	output, err := d.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, errors.NewObjectError("download", bucket, key, errors.Classify(err))
	}
	defer output.Body.Close()

	size := int64(-1)
	if output.ContentLength != nil {
		size = *output.ContentLength
	}

	if err := d.fs.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return nil, errors.NewObjectError("download", bucket, key, err)
	}

	temp := tempName(dest)
	written, err := d.writeTemp(ctx, temp, output.Body, size, cfg)
	if err != nil {
		_ = d.fs.Remove(temp)
		return nil, errors.NewObjectError("download", bucket, key, errors.Classify(err))
	}

	if err := d.fs.Rename(temp, dest); err != nil {
		_ = d.fs.Remove(temp)
		return nil, errors.NewObjectError("download", bucket, key, err)
	}

	if output.LastModified != nil {
		mtime := *output.LastModified
		if err := d.fs.Chtimes(dest, mtime, mtime); err != nil {
			return nil, errors.NewObjectError("download", bucket, key, err)
		}
	}

	return &s3types.DownloadResult{
		Key:      key,
		Size:     written,
		ETag:     aws.ToString(output.ETag),
		Duration: time.Since(start),
	}, nil
}

func (d *Downloader) writeTemp(
	ctx context.Context,
	temp string,
	body io.Reader,
	size int64,
	cfg *operations.TransferConfig,
) (int64, error) {
	file, err := d.fs.OpenFile(temp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, err //nolint:wrapcheck // fs errors carry the path
	}

	buf := pool.GetCopyBuffer()
	defer pool.PutCopyBuffer(buf)

	progress := newPartCounter(size, cfg)
	written, copyErr := io.CopyBuffer(&partWriter{w: file, counter: progress}, &contextReader{ctx: ctx, r: body}, buf)
	closeErr := file.Close()

	if copyErr != nil {
		return written, fmt.Errorf("write %s: %w", temp, copyErr)
	}
	if closeErr != nil {
		return written, closeErr //nolint:wrapcheck // fs errors carry the path
	}
	if size >= 0 && written != size {
		return written, fmt.Errorf("write %s: %w", temp, io.ErrUnexpectedEOF)
	}

	progress.finish()
	return written, nil
}

func tempName(dest string) string {
	return fmt.Sprintf("%s.%s.s3mv", dest, uuid.NewString()[:8])
}

// contextReader stops a body copy once ctx is canceled.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	//nolint:wrapcheck // io.Reader contract
	return c.r.Read(p)
}

// partCounter reports a completed part each time the bytes written cross a
// multipart chunk boundary.
type partCounter struct {
	cfg      *operations.TransferConfig
	partSize int64
	parts    int
	done     int
	written  int64
}

func newPartCounter(size int64, cfg *operations.TransferConfig) *partCounter {
	var threshold, configured int64
	if cfg != nil {
		threshold = cfg.MultipartThreshold
		configured = cfg.PartSize
	}
	return &partCounter{
		cfg:      cfg,
		partSize: multipart.PartSize(size, configured),
		parts:    multipart.CountParts(size, threshold, configured),
	}
}

func (p *partCounter) add(n int) {
	p.written += int64(n)
	if p.parts == 1 {
		return
	}
	for p.done < p.parts-1 && p.written >= int64(p.done+1)*p.partSize {
		p.done++
		p.cfg.PartDone()
	}
}

func (p *partCounter) finish() {
	for p.done < p.parts {
		p.done++
		p.cfg.PartDone()
	}
}

type partWriter struct {
	w       io.Writer
	counter *partCounter
}

func (pw *partWriter) Write(b []byte) (int, error) {
	n, err := pw.w.Write(b)
	pw.counter.add(n)
	//nolint:wrapcheck // io.Writer contract
	return n, err
}
