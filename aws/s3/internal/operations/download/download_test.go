package download

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awstypes "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	s3errors "github.com/input-output-hk/s3mv/aws/s3/errors"
	"github.com/input-output-hk/s3mv/aws/s3/internal/operations"
	"github.com/input-output-hk/s3mv/aws/s3/internal/testutil"
	"github.com/input-output-hk/s3mv/fs/billy"
)

func getObject(data []byte, modified time.Time) func(context.Context, *s3.GetObjectInput, ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	return func(context.Context, *s3.GetObjectInput, ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
		return &s3.GetObjectOutput{
			Body:          io.NopCloser(bytes.NewReader(data)),
			ContentLength: aws.Int64(int64(len(data))),
			ETag:          aws.String(`"etag"`),
			LastModified:  aws.Time(modified),
		}, nil
	}
}

func TestDownloader_DownloadFile(t *testing.T) {
	tests := []struct {
		name        string
		dest        string
		mockFunc    func(*testutil.MockS3Client)
		wantContent string
		wantErr     bool
		errCheck    func(*testing.T, error)
	}{
		{
			name: "creates parent directories",
			dest: "/out/nested/dir/file.txt",
			mockFunc: func(m *testutil.MockS3Client) {
				m.GetObjectFunc = getObject([]byte("Hello, World!"), time.Now())
			},
			wantContent: "Hello, World!",
		},
		{
			name: "replaces existing file",
			dest: "/out/existing.txt",
			mockFunc: func(m *testutil.MockS3Client) {
				m.GetObjectFunc = getObject([]byte("new content"), time.Now())
			},
			wantContent: "new content",
		},
		{
			name: "object not found",
			dest: "/out/missing.txt",
			mockFunc: func(m *testutil.MockS3Client) {
				m.GetObjectFunc = func(context.Context, *s3.GetObjectInput, ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
					return nil, &awstypes.NoSuchKey{}
				}
			},
			wantErr: true,
			errCheck: func(t *testing.T, err error) {
				assert.True(t, s3errors.IsObjectNotFound(err))
			},
		},
		{
			name: "truncated body",
			dest: "/out/short.txt",
			mockFunc: func(m *testutil.MockS3Client) {
				m.GetObjectFunc = func(context.Context, *s3.GetObjectInput, ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
					return &s3.GetObjectOutput{
						Body:          io.NopCloser(strings.NewReader("abc")),
						ContentLength: aws.Int64(10),
					}, nil
				}
			},
			wantErr: true,
			errCheck: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filesystem := billy.NewInMemoryFS()
			require.NoError(t, filesystem.WriteFile("/out/existing.txt", []byte("old"), 0o644))

			mock := &testutil.MockS3Client{}
			tt.mockFunc(mock)

			result, err := New(mock, filesystem).DownloadFile(context.Background(), "bucket", "key", tt.dest, nil)
			if tt.wantErr {
				require.Error(t, err)
				if tt.errCheck != nil {
					tt.errCheck(t, err)
				}
				assertNoTempFiles(t, filesystem, filepath.Dir(tt.dest))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, int64(len(tt.wantContent)), result.Size)

			got, err := filesystem.ReadFile(tt.dest)
			require.NoError(t, err)
			assert.Equal(t, tt.wantContent, string(got))
			assertNoTempFiles(t, filesystem, filepath.Dir(tt.dest))
		})
	}
}

func assertNoTempFiles(t *testing.T, filesystem *billy.FS, dir string) {
	t.Helper()

	_ = filesystem.Walk(dir, func(path string, _ os.FileInfo, err error) error {
		if err == nil {
			assert.False(t, strings.HasSuffix(path, ".s3mv"), "temporary file %s left behind", path)
		}
		return nil
	})
}

func TestDownloader_SetsModificationTime(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "file.txt")
	modified := time.Date(2020, 5, 17, 10, 30, 0, 0, time.UTC)

	mock := &testutil.MockS3Client{GetObjectFunc: getObject([]byte("data"), modified)}

	_, err := New(mock, billy.NewBaseOSFS()).DownloadFile(context.Background(), "bucket", "key", dest, nil)
	require.NoError(t, err)

	info, err := os.Stat(dest)
	require.NoError(t, err)
	assert.True(t, modified.Equal(info.ModTime()), "mtime %s", info.ModTime())
}

func TestDownloader_ReportsParts(t *testing.T) {
	data := bytes.Repeat([]byte("z"), 2500)

	var parts int32
	cfg := &operations.TransferConfig{
		MultipartThreshold: 1000,
		PartSize:           1000,
		OnPart:             func() { atomic.AddInt32(&parts, 1) },
	}

	mock := &testutil.MockS3Client{GetObjectFunc: getObject(data, time.Now())}
	_, err := New(mock, billy.NewInMemoryFS()).DownloadFile(context.Background(), "bucket", "big", "/big", cfg)
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&parts))
}

func TestDownloader_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	mock := &testutil.MockS3Client{
		GetObjectFunc: func(context.Context, *s3.GetObjectInput, ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
			cancel()
			return &s3.GetObjectOutput{
				Body:          io.NopCloser(strings.NewReader("data")),
				ContentLength: aws.Int64(4),
			}, nil
		},
	}

	filesystem := billy.NewInMemoryFS()
	_, err := New(mock, filesystem).DownloadFile(ctx, "bucket", "key", "/out/file", nil)
	require.Error(t, err)
	assert.True(t, s3errors.IsCanceled(err))

	exists, err := filesystem.Exists("/out/file")
	require.NoError(t, err)
	assert.False(t, exists)
	assertNoTempFiles(t, filesystem, "/out")
}

func TestDownloader_GetObjectError(t *testing.T) {
	boom := errors.New("connection reset")
	mock := &testutil.MockS3Client{
		GetObjectFunc: func(context.Context, *s3.GetObjectInput, ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
			return nil, boom
		},
	}

	_, err := New(mock, billy.NewInMemoryFS()).DownloadFile(context.Background(), "bucket", "key", "/x", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "s3.download bucket/key")
}

func TestPartCounter(t *testing.T) {
	var parts int
	cfg := &operations.TransferConfig{
		MultipartThreshold: 10,
		PartSize:           10,
		OnPart:             func() { parts++ },
	}

	c := newPartCounter(25, cfg)
	c.add(9)
	assert.Equal(t, 0, parts)
	c.add(1)
	assert.Equal(t, 1, parts)
	c.add(15)
	assert.Equal(t, 2, parts, "the last part is reported by finish")
	c.finish()
	assert.Equal(t, 3, parts)

	parts = 0
	single := newPartCounter(5, cfg)
	single.add(5)
	assert.Equal(t, 0, parts)
	single.finish()
	assert.Equal(t, 1, parts)
}
