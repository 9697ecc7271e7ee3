package multipart

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awstypes "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"golang.org/x/sync/errgroup"

	"github.com/input-output-hk/s3mv/aws/s3/errors"
	"github.com/input-output-hk/s3mv/aws/s3/internal/operations"
	"github.com/input-output-hk/s3mv/aws/s3/internal/pool"
	"github.com/input-output-hk/s3mv/aws/s3/internal/s3api"
	"github.com/input-output-hk/s3mv/aws/s3/s3types"
)

const (
	// MaxParts is the S3 limit on the parts of one multipart upload
	MaxParts = 10000

	// DefaultPartSize is the default multipart chunk size
	DefaultPartSize int64 = 8 * 1024 * 1024

	// DefaultThreshold is the default size at which transfers use multipart
	DefaultThreshold int64 = 8 * 1024 * 1024

	// MinPartSize is the smallest part S3 accepts, except for the last part
	MinPartSize int64 = 5 * 1024 * 1024

	// MaxUploadSize is the largest object S3 accepts
	MaxUploadSize int64 = 5 * 1024 * 1024 * 1024 * 1024

	defaultConcurrency = 10
)

// PartSize returns the chunk size for an object of size bytes, starting at
// configured and doubling until the upload fits in MaxParts parts.
func PartSize(size, configured int64) int64 {
	partSize := configured
	if partSize <= 0 {
		partSize = DefaultPartSize
	}
	for ceilDiv(size, partSize) > MaxParts {
		partSize *= 2
	}
	return partSize
}

// UsesMultipart reports whether an object of size bytes is transferred in
// parts for the given threshold.
func UsesMultipart(size, threshold int64) bool {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return size >= threshold
}

// CountParts returns how many requests transfer an object of size bytes.
func CountParts(size, threshold, configured int64) int {
	if !UsesMultipart(size, threshold) {
		return 1
	}
	return int(ceilDiv(size, PartSize(size, configured)))
}

func ceilDiv(size, partSize int64) int64 {
	if size <= 0 {
		return 1
	}
	return (size + partSize - 1) / partSize
}

// Uploader performs multipart uploads and multipart server-side copies.
type Uploader struct {
	s3Client s3api.S3API
}

// NewUploader creates a new multipart uploader.
func NewUploader(s3Client s3api.S3API) *Uploader {
	return &Uploader{
		s3Client: s3Client,
	}
}

// partFunc sends one part and returns its completed descriptor.
type partFunc func(ctx context.Context, uploadID string, number int32, offset, length int64) (awstypes.CompletedPart, error)

// Upload uploads size bytes read from body in parts.
func (u *Uploader) Upload(
	ctx context.Context,
	bucket, key string,
	body io.ReaderAt,
	size int64,
	cfg *operations.TransferConfig,
) (*s3types.UploadResult, error) {
	start := time.Now()

	createInput := &s3.CreateMultipartUploadInput{
		Bucket:            aws.String(bucket),
		Key:               aws.String(key),
		ChecksumAlgorithm: awstypes.ChecksumAlgorithmCrc32,
	}
	operations.ApplyCreateMultipart(createInput, cfg.ObjectParams())

	send := func(ctx context.Context, uploadID string, number int32, offset, length int64) (awstypes.CompletedPart, error) {
		out, err := pool.Do(ctx, cfg.RequestLimiter(), func(ctx context.Context) (*s3.UploadPartOutput, error) {
			//nolint:wrapcheck // wrapped by the caller with the part number
			return u.s3Client.UploadPart(ctx, &s3.UploadPartInput{
				Bucket:            aws.String(bucket),
				Key:               aws.String(key),
				UploadId:          aws.String(uploadID),
				PartNumber:        aws.Int32(number),
				Body:              io.NewSectionReader(body, offset, length),
				ContentLength:     aws.Int64(length),
				ChecksumAlgorithm: awstypes.ChecksumAlgorithmCrc32,
			})
		})
		if err != nil {
			return awstypes.CompletedPart{}, err
		}
		return awstypes.CompletedPart{
			ETag:          out.ETag,
			ChecksumCRC32: out.ChecksumCRC32,
			PartNumber:    aws.Int32(number),
		}, nil
	}

	etag, versionID, err := u.run(ctx, bucket, key, size, createInput, send, cfg)
	if err != nil {
		return nil, err
	}

	return &s3types.UploadResult{
		Key:       key,
		Size:      size,
		ETag:      etag,
		VersionID: versionID,
		Duration:  time.Since(start),
	}, nil
}

// Copy copies size bytes of copySource ("bucket/key", URL-escaped) to
// bucket/key with UploadPartCopy.
func (u *Uploader) Copy(
	ctx context.Context,
	copySource, bucket, key string,
	size int64,
	cfg *operations.TransferConfig,
) (*s3types.UploadResult, error) {
	start := time.Now()

	createInput := &s3.CreateMultipartUploadInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}
	operations.ApplyCreateMultipart(createInput, cfg.ObjectParams())

	send := func(ctx context.Context, uploadID string, number int32, offset, length int64) (awstypes.CompletedPart, error) {
		out, err := pool.Do(ctx, cfg.RequestLimiter(), func(ctx context.Context) (*s3.UploadPartCopyOutput, error) {
			//nolint:wrapcheck // wrapped by the caller with the part number
			return u.s3Client.UploadPartCopy(ctx, &s3.UploadPartCopyInput{
				Bucket:          aws.String(bucket),
				Key:             aws.String(key),
				UploadId:        aws.String(uploadID),
				PartNumber:      aws.Int32(number),
				CopySource:      aws.String(copySource),
				CopySourceRange: aws.String(fmt.Sprintf("bytes=%d-%d", offset, offset+length-1)),
			})
		})
		if err != nil {
			return awstypes.CompletedPart{}, err
		}
		part := awstypes.CompletedPart{PartNumber: aws.Int32(number)}
		if out.CopyPartResult != nil {
			part.ETag = out.CopyPartResult.ETag
		}
		return part, nil
	}

	etag, versionID, err := u.run(ctx, bucket, key, size, createInput, send, cfg)
	if err != nil {
		return nil, err
	}

	return &s3types.UploadResult{
		Key:       key,
		Size:      size,
		ETag:      etag,
		VersionID: versionID,
		Duration:  time.Since(start),
	}, nil
}

// run creates the upload, sends every part and completes it. Any failure
// aborts the upload, even when ctx was canceled.
func (u *Uploader) run(
	ctx context.Context,
	bucket, key string,
	size int64,
	createInput *s3.CreateMultipartUploadInput,
	send partFunc,
	cfg *operations.TransferConfig,
) (string, string, error) {
	created, err := pool.Do(ctx, cfg.RequestLimiter(), func(ctx context.Context) (*s3.CreateMultipartUploadOutput, error) {
		//nolint:wrapcheck // wrapped below
		return u.s3Client.CreateMultipartUpload(ctx, createInput)
	})
	if err != nil {
		return "", "", errors.NewObjectError("createMultipartUpload", bucket, key, errors.Classify(err))
	}
	uploadID := aws.ToString(created.UploadId)

	parts, err := u.sendParts(ctx, bucket, key, uploadID, size, send, cfg)
	if err != nil {
		u.abort(ctx, bucket, key, uploadID)
		return "", "", err
	}

	completed, err := pool.Do(ctx, cfg.RequestLimiter(), func(ctx context.Context) (*s3.CompleteMultipartUploadOutput, error) {
		//nolint:wrapcheck // wrapped below
		return u.s3Client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
			Bucket:          aws.String(bucket),
			Key:             aws.String(key),
			UploadId:        aws.String(uploadID),
			MultipartUpload: &awstypes.CompletedMultipartUpload{Parts: parts},
		})
	})
	if err != nil {
		u.abort(ctx, bucket, key, uploadID)
		return "", "", errors.NewObjectError("completeMultipartUpload", bucket, key, errors.Classify(err))
	}

	return aws.ToString(completed.ETag), aws.ToString(completed.VersionId), nil
}

func (u *Uploader) sendParts(
	ctx context.Context,
	bucket, key, uploadID string,
	size int64,
	send partFunc,
	cfg *operations.TransferConfig,
) ([]awstypes.CompletedPart, error) {
	var configured int64
	concurrency := defaultConcurrency
	if cfg != nil {
		configured = cfg.PartSize
		if cfg.Concurrency > 0 {
			concurrency = cfg.Concurrency
		}
	}
	partSize := PartSize(size, configured)
	numParts := int(ceilDiv(size, partSize))

	var mu sync.Mutex
	parts := make([]awstypes.CompletedPart, 0, numParts)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i := 0; i < numParts; i++ {
		offset := int64(i) * partSize
		length := partSize
		if offset+length > size {
			length = size - offset
		}
		number := int32(i + 1) //nolint:gosec // bounded by MaxParts

		g.Go(func() error {
			part, err := send(gctx, uploadID, number, offset, length)
			if err != nil {
				return errors.NewObjectError("uploadPart", bucket, key, errors.Classify(err)).
					WithMessage(fmt.Sprintf("part %d", number))
			}

			mu.Lock()
			parts = append(parts, part)
			mu.Unlock()

			cfg.PartDone()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		//nolint:wrapcheck // already an *errors.Error
		return nil, err
	}

	sort.Slice(parts, func(i, j int) bool {
		return aws.ToInt32(parts[i].PartNumber) < aws.ToInt32(parts[j].PartNumber)
	})
	return parts, nil
}

// abort cleans up a failed multipart upload. Errors are ignored.
func (u *Uploader) abort(ctx context.Context, bucket, key, uploadID string) {
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	_, _ = u.s3Client.AbortMultipartUpload(cleanupCtx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(bucket),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
	})
}
