package delete

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	s3errors "github.com/input-output-hk/s3mv/aws/s3/errors"
	"github.com/input-output-hk/s3mv/aws/s3/internal/pool"
	"github.com/input-output-hk/s3mv/aws/s3/internal/testutil"
)

func TestDeleter_Delete(t *testing.T) {
	tests := []struct {
		name      string
		mockErr   error
		wantErr   bool
		checkErr  func(*testing.T, error)
		cancelCtx bool
	}{
		{
			name: "deleted",
		},
		{
			name:    "access denied",
			mockErr: &smithy.GenericAPIError{Code: "AccessDenied", Message: "Access Denied"},
			wantErr: true,
			checkErr: func(t *testing.T, err error) {
				assert.True(t, s3errors.IsAccessDenied(err))
				assert.Contains(t, err.Error(), "s3.delete bucket/dir/key.txt")
			},
		},
		{
			name:    "network error",
			mockErr: errors.New("connection reset"),
			wantErr: true,
			checkErr: func(t *testing.T, err error) {
				assert.Equal(t, "connection reset", s3errors.Describe(err))
			},
		},
		{
			name:      "canceled before a slot is free",
			cancelCtx: true,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var called *s3.DeleteObjectInput
			mock := &testutil.MockS3Client{
				DeleteObjectFunc: func(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
					called = in
					if tt.mockErr != nil {
						return nil, tt.mockErr
					}
					return &s3.DeleteObjectOutput{}, nil
				},
			}

			ctx := context.Background()
			limiter := pool.NewRequestLimiter(1, 0)
			if tt.cancelCtx {
				// hold the only slot so Delete has to wait
				release, err := limiter.Acquire(ctx)
				require.NoError(t, err)
				defer release()

				var cancel context.CancelFunc
				ctx, cancel = context.WithCancel(ctx)
				cancel()
			}

			err := New(mock).Delete(ctx, "bucket", "dir/key.txt", limiter)
			if tt.wantErr {
				require.Error(t, err)
				if tt.checkErr != nil {
					tt.checkErr(t, err)
				}
				return
			}

			require.NoError(t, err)
			require.NotNil(t, called)
			assert.Equal(t, "bucket", aws.ToString(called.Bucket))
			assert.Equal(t, "dir/key.txt", aws.ToString(called.Key))
		})
	}
}
