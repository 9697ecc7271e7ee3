package upload

import (
	"context"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"

	"github.com/input-output-hk/s3mv/aws/s3/errors"
	"github.com/input-output-hk/s3mv/aws/s3/internal/operations"
	"github.com/input-output-hk/s3mv/aws/s3/internal/pool"
	"github.com/input-output-hk/s3mv/aws/s3/internal/s3api"
	"github.com/input-output-hk/s3mv/aws/s3/internal/transfer/multipart"
	"github.com/input-output-hk/s3mv/aws/s3/s3types"
	"github.com/input-output-hk/s3mv/fs"
)

// DefaultContentType is used when the content type cannot be determined.
const DefaultContentType = "application/octet-stream"

const sniffLength = 512

// Uploader handles S3 upload operations with automatic multipart detection.
type Uploader struct {
	s3Client  s3api.S3API
	fs        fs.Filesystem
	multipart *multipart.Uploader
}

// New creates a new Uploader reading local files from filesystem.
func New(s3Client s3api.S3API, filesystem fs.Filesystem) *Uploader {
	return &Uploader{
		s3Client:  s3Client,
		fs:        filesystem,
		multipart: multipart.NewUploader(s3Client),
	}
}

// UploadFile uploads the local file at path to bucket/key.
func (u *Uploader) UploadFile(
	ctx context.Context,
	path, bucket, key string,
	cfg *operations.TransferConfig,
) (*s3types.UploadResult, error) {
	start := time.Now()

	file, err := u.fs.Open(path)
	if err != nil {
		return nil, errors.NewObjectError("upload", bucket, key, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, errors.NewObjectError("upload", bucket, key, err)
	}
	size := info.Size()

	params := *cfg.ObjectParams()
	if params.ContentType == "" {
		params.ContentType = DetectContentType(file, path)
	}

	transfer := operations.TransferConfig{Params: &params}
	if cfg != nil {
		transfer = *cfg
		transfer.Params = &params
	}

	if multipart.UsesMultipart(size, transfer.MultipartThreshold) {
		return u.multipart.Upload(ctx, bucket, key, file, size, &transfer)
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          io.NewSectionReader(file, 0, size),
		ContentLength: aws.Int64(size),
	}
	operations.ApplyPut(input, &params)

	output, err := pool.Do(ctx, transfer.Limiter, func(ctx context.Context) (*s3.PutObjectOutput, error) {
		//nolint:wrapcheck // wrapped below
		return u.s3Client.PutObject(ctx, input)
	})
	if err != nil {
		return nil, errors.NewObjectError("upload", bucket, key, errors.Classify(err))
	}
	transfer.PartDone()

	return &s3types.UploadResult{
		Key:       key,
		Size:      size,
		ETag:      aws.ToString(output.ETag),
		VersionID: aws.ToString(output.VersionId),
		Duration:  time.Since(start),
	}, nil
}

// DetectContentType sniffs the first bytes of r, falling back to the
// extension of path and then to DefaultContentType.
func DetectContentType(r io.ReaderAt, path string) string {
	buf := make([]byte, sniffLength)
	n, _ := r.ReadAt(buf, 0)
	if n > 0 {
		if mt := mimetype.Detect(buf[:n]); mt != nil && mt.String() != DefaultContentType {
			return mt.String()
		}
	}

	return ContentTypeFromExtension(path)
}

// ContentTypeFromExtension looks up the MIME type registered for the
// extension of path.
func ContentTypeFromExtension(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != "" {
		if byExt := mime.TypeByExtension(ext); byExt != "" {
			return byExt
		}
	}
	return DefaultContentType
}
