package list

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/input-output-hk/s3mv/aws/s3/errors"
	"github.com/input-output-hk/s3mv/aws/s3/internal/pool"
	"github.com/input-output-hk/s3mv/aws/s3/s3types"
)

// pageSize is the largest page ListObjectsV2 returns.
const pageSize = 1000

// S3Interface defines the S3 operations we need.
type S3Interface interface {
	ListObjectsV2(
		ctx context.Context,
		input *s3.ListObjectsV2Input,
		opts ...func(*s3.Options),
	) (*s3.ListObjectsV2Output, error)
	HeadObject(
		ctx context.Context,
		input *s3.HeadObjectInput,
		opts ...func(*s3.Options),
	) (*s3.HeadObjectOutput, error)
}

// Lister handles listing of S3 objects.
type Lister struct {
	client S3Interface
}

// New creates a new Lister.
func New(client S3Interface) *Lister {
	return &Lister{
		client: client,
	}
}

// Walk calls fn for every object under bucket/prefix in key order.
// Directory markers (zero-byte keys ending in "/") are skipped. Walk stops at
// the first error returned by fn.
func (l *Lister) Walk(
	ctx context.Context,
	bucket, prefix string,
	limiter *pool.RequestLimiter,
	fn func(s3types.SourceFile) error,
) error {
	paginator := s3.NewListObjectsV2Paginator(l.client, &s3.ListObjectsV2Input{
		Bucket:  aws.String(bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int32(pageSize),
	})

	for paginator.HasMorePages() {
		page, err := pool.Do(ctx, limiter, func(ctx context.Context) (*s3.ListObjectsV2Output, error) {
			//nolint:wrapcheck // wrapped below
			return paginator.NextPage(ctx)
		})
		if err != nil {
			return errors.NewError("list", errors.Classify(err)).WithBucket(bucket)
		}

		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			size := aws.ToInt64(obj.Size)
			if size == 0 && strings.HasSuffix(key, "/") {
				continue
			}

			if err := fn(s3types.SourceFile{
				Path:         bucket + "/" + key,
				Type:         s3types.PathS3,
				Size:         size,
				LastModified: aws.ToTime(obj.LastModified),
				ETag:         trimETag(aws.ToString(obj.ETag)),
			}); err != nil {
				return err
			}
		}
	}

	return nil
}

// Stat returns the object at bucket/key.
func (l *Lister) Stat(ctx context.Context, bucket, key string, limiter *pool.RequestLimiter) (s3types.SourceFile, error) {
	head, err := pool.Do(ctx, limiter, func(ctx context.Context) (*s3.HeadObjectOutput, error) {
		//nolint:wrapcheck // wrapped below
		return l.client.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
	})
	if err != nil {
		classified := errors.Classify(err)
		if errors.IsObjectNotFound(classified) {
			classified = errors.Describef(classified, "Key %q does not exist", key)
		}
		return s3types.SourceFile{}, errors.NewObjectError("headObject", bucket, key, classified)
	}

	return s3types.SourceFile{
		Path:         bucket + "/" + key,
		Type:         s3types.PathS3,
		Size:         aws.ToInt64(head.ContentLength),
		LastModified: aws.ToTime(head.LastModified),
		ETag:         trimETag(aws.ToString(head.ETag)),
	}, nil
}

func trimETag(etag string) string {
	return strings.Trim(etag, `"`)
}
