package delete

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/input-output-hk/s3mv/aws/s3/errors"
	"github.com/input-output-hk/s3mv/aws/s3/internal/pool"
)

// S3Interface defines the S3 operations we need.
type S3Interface interface {
	DeleteObject(
		ctx context.Context,
		input *s3.DeleteObjectInput,
		opts ...func(*s3.Options),
	) (*s3.DeleteObjectOutput, error)
}

// Deleter deletes single S3 objects.
type Deleter struct {
	client S3Interface
}

// New creates a new Deleter.
func New(client S3Interface) *Deleter {
	return &Deleter{
		client: client,
	}
}

// Delete removes bucket/key. Deleting a key that does not exist succeeds,
// matching S3 semantics.
func (d *Deleter) Delete(ctx context.Context, bucket, key string, limiter *pool.RequestLimiter) error {
	_, err := pool.Do(ctx, limiter, func(ctx context.Context) (*s3.DeleteObjectOutput, error) {
		//nolint:wrapcheck // wrapped below
		return d.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
	})
	if err != nil {
		return errors.NewObjectError("delete", bucket, key, errors.Classify(err))
	}
	return nil
}
