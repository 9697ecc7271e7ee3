package list

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awstypes "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	s3errors "github.com/input-output-hk/s3mv/aws/s3/errors"
	"github.com/input-output-hk/s3mv/aws/s3/internal/testutil"
	"github.com/input-output-hk/s3mv/aws/s3/s3types"
)

func object(key string, size int64) awstypes.Object {
	return awstypes.Object{
		Key:          aws.String(key),
		Size:         aws.Int64(size),
		ETag:         aws.String(`"etag-` + key + `"`),
		LastModified: aws.Time(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)),
	}
}

func TestLister_Walk(t *testing.T) {
	pages := map[string]*s3.ListObjectsV2Output{
		"": {
			Contents:              []awstypes.Object{object("photos/", 0), object("photos/a.jpg", 10)},
			IsTruncated:           aws.Bool(true),
			NextContinuationToken: aws.String("page-2"),
		},
		"page-2": {
			Contents:    []awstypes.Object{object("photos/b/", 0), object("photos/b/c.txt", 0), object("photos/d/", 4)},
			IsTruncated: aws.Bool(false),
		},
	}

	var calls int
	mock := &testutil.MockS3Client{
		ListObjectsV2Func: func(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
			calls++
			assert.Equal(t, "bucket", aws.ToString(in.Bucket))
			assert.Equal(t, "photos/", aws.ToString(in.Prefix))
			return pages[aws.ToString(in.ContinuationToken)], nil
		},
	}

	var got []s3types.SourceFile
	err := New(mock).Walk(context.Background(), "bucket", "photos/", nil, func(f s3types.SourceFile) error {
		got = append(got, f)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	require.Len(t, got, 3)
	assert.Equal(t, "bucket/photos/a.jpg", got[0].Path)
	assert.Equal(t, s3types.PathS3, got[0].Type)
	assert.Equal(t, int64(10), got[0].Size)
	assert.Equal(t, "etag-photos/a.jpg", got[0].ETag)
	assert.Equal(t, "bucket/photos/b/c.txt", got[1].Path)
	assert.Equal(t, "bucket/photos/d/", got[2].Path, "non-empty keys ending in / are objects")
}

func TestLister_WalkStopsOnCallbackError(t *testing.T) {
	mock := &testutil.MockS3Client{
		ListObjectsV2Func: func(context.Context, *s3.ListObjectsV2Input, ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
			return &s3.ListObjectsV2Output{
				Contents: []awstypes.Object{object("a", 1), object("b", 1)},
			}, nil
		},
	}

	stop := errors.New("stop")
	var seen int
	err := New(mock).Walk(context.Background(), "bucket", "", nil, func(s3types.SourceFile) error {
		seen++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, seen)
}

func TestLister_WalkListError(t *testing.T) {
	mock := &testutil.MockS3Client{
		ListObjectsV2Func: func(context.Context, *s3.ListObjectsV2Input, ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
			return nil, &awstypes.NoSuchBucket{Message: aws.String("The specified bucket does not exist")}
		},
	}

	err := New(mock).Walk(context.Background(), "missing", "", nil, func(s3types.SourceFile) error { return nil })
	require.Error(t, err)
	assert.True(t, s3errors.IsBucketNotFound(err))
	assert.Contains(t, err.Error(), "bucket missing")
}

func TestLister_Stat(t *testing.T) {
	modified := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name     string
		output   *s3.HeadObjectOutput
		mockErr  error
		want     s3types.SourceFile
		errCheck func(*testing.T, error)
	}{
		{
			name: "found",
			output: &s3.HeadObjectOutput{
				ContentLength: aws.Int64(42),
				ETag:          aws.String(`"abc"`),
				LastModified:  aws.Time(modified),
			},
			want: s3types.SourceFile{
				Path:         "bucket/dir/file.txt",
				Type:         s3types.PathS3,
				Size:         42,
				LastModified: modified,
				ETag:         "abc",
			},
		},
		{
			name:    "not found",
			mockErr: &awstypes.NotFound{},
			errCheck: func(t *testing.T, err error) {
				assert.True(t, s3errors.IsObjectNotFound(err))
				assert.Equal(t, `Key "dir/file.txt" does not exist`, s3errors.Describe(err))
			},
		},
		{
			name:    "other failure",
			mockErr: errors.New("dial tcp: timeout"),
			errCheck: func(t *testing.T, err error) {
				assert.False(t, s3errors.IsObjectNotFound(err))
				assert.Equal(t, "dial tcp: timeout", s3errors.Describe(err))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &testutil.MockS3Client{
				HeadObjectFunc: func(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
					assert.Equal(t, "dir/file.txt", aws.ToString(in.Key))
					return tt.output, tt.mockErr
				},
			}

			got, err := New(mock).Stat(context.Background(), "bucket", "dir/file.txt", nil)
			if tt.errCheck != nil {
				require.Error(t, err)
				tt.errCheck(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
