package copy

import (
	"context"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/input-output-hk/s3mv/aws/s3/errors"
	"github.com/input-output-hk/s3mv/aws/s3/internal/operations"
	"github.com/input-output-hk/s3mv/aws/s3/internal/pool"
	"github.com/input-output-hk/s3mv/aws/s3/internal/s3api"
	"github.com/input-output-hk/s3mv/aws/s3/internal/transfer/multipart"
	"github.com/input-output-hk/s3mv/aws/s3/s3types"
)

// Copier handles copy operations with automatic multipart support
type Copier struct {
	s3Client  s3api.S3API
	multipart *multipart.Uploader
}

// NewCopier creates a new copy operation handler
func NewCopier(s3Client s3api.S3API) *Copier {
	return &Copier{
		s3Client:  s3Client,
		multipart: multipart.NewUploader(s3Client),
	}
}

// Copy copies srcBucket/srcKey (size bytes) to dstBucket/dstKey, choosing
// between CopyObject and a multipart copy by size.
func (c *Copier) Copy(
	ctx context.Context,
	srcBucket, srcKey, dstBucket, dstKey string,
	size int64,
	cfg *operations.TransferConfig,
) error {
	source := CopySource(srcBucket, srcKey)

	var threshold int64
	if cfg != nil {
		threshold = cfg.MultipartThreshold
	}
	if multipart.UsesMultipart(size, threshold) {
		return c.multipartCopy(ctx, source, srcBucket, srcKey, dstBucket, dstKey, size, cfg)
	}

	input := &s3.CopyObjectInput{
		Bucket:     aws.String(dstBucket),
		Key:        aws.String(dstKey),
		CopySource: aws.String(source),
	}
	operations.ApplyCopy(input, cfg.ObjectParams())

	_, err := pool.Do(ctx, cfg.RequestLimiter(), func(ctx context.Context) (*s3.CopyObjectOutput, error) {
		//nolint:wrapcheck // wrapped below
		return c.s3Client.CopyObject(ctx, input)
	})
	if err != nil {
		return errors.NewObjectError("copy", dstBucket, dstKey, errors.Classify(err)).
			WithMessage("copy from " + srcBucket + "/" + srcKey)
	}

	cfg.PartDone()
	return nil
}

// multipartCopy copies in ranges. Unless metadata is being replaced, the
// source headers are read first so the new object keeps them.
func (c *Copier) multipartCopy(
	ctx context.Context,
	source, srcBucket, srcKey, dstBucket, dstKey string,
	size int64,
	cfg *operations.TransferConfig,
) error {
	params := cfg.ObjectParams()

	if operations.EffectiveDirective(params) == s3types.MetadataDirectiveCopy {
		head, err := pool.Do(ctx, cfg.RequestLimiter(), func(ctx context.Context) (*s3.HeadObjectOutput, error) {
			//nolint:wrapcheck // wrapped below
			return c.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
				Bucket: aws.String(srcBucket),
				Key:    aws.String(srcKey),
			})
		})
		if err != nil {
			return errors.NewObjectError("copy", srcBucket, srcKey, errors.Classify(err)).
				WithMessage("read source headers")
		}
		params = operations.MergeSourceHeaders(params, head)
	}

	transfer := operations.TransferConfig{Params: params}
	if cfg != nil {
		transfer = *cfg
		transfer.Params = params
	}

	_, err := c.multipart.Copy(ctx, source, dstBucket, dstKey, size, &transfer)
	//nolint:wrapcheck // already an *errors.Error
	return err
}

// CopySource formats the x-amz-copy-source value for bucket/key, escaping
// each key segment.
func CopySource(bucket, key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return bucket + "/" + strings.Join(segments, "/")
}
