package executor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	s3errors "github.com/input-output-hk/s3mv/aws/s3/errors"
	"github.com/input-output-hk/s3mv/aws/s3/internal/move/planner"
	"github.com/input-output-hk/s3mv/aws/s3/internal/pool"
	"github.com/input-output-hk/s3mv/aws/s3/internal/testutil"
	"github.com/input-output-hk/s3mv/aws/s3/s3types"
	billyfs "github.com/input-output-hk/s3mv/fs/billy"
)

func uploadTask(src, dest string, size int64) planner.Task {
	return planner.Task{
		Operation: s3types.TransferUpload,
		Src:       src,
		Dest:      dest,
		SrcType:   s3types.PathLocal,
		DestType:  s3types.PathS3,
		Size:      size,
		Parts:     1,
	}
}

func runTasks(t *testing.T, e *Executor, tasks ...planner.Task) *s3types.MoveResult {
	t.Helper()
	for _, task := range tasks {
		require.NoError(t, e.Submit(context.Background(), task))
	}
	return e.Wait()
}

func TestExecutor_Upload(t *testing.T) {
	filesystem := billyfs.NewInMemoryFS()
	require.NoError(t, filesystem.MkdirAll("/src", 0o755))
	require.NoError(t, filesystem.WriteFile("/src/a.txt", []byte("alpha"), 0o644))
	require.NoError(t, filesystem.WriteFile("/src/b.txt", []byte("bravo!"), 0o644))

	mem := testutil.NewMemoryS3().WithBucket("bucket")
	reporter := &testutil.MockReporter{}

	e, err := New(mem.Build(), filesystem, Config{
		Workers:  2,
		Params:   &s3types.ObjectParams{ACL: s3types.ACLPublicRead},
		Limiter:  pool.NewRequestLimiter(4, 0),
		Reporter: reporter,
	}, nil)
	require.NoError(t, err)

	result := runTasks(t, e,
		uploadTask("/src/a.txt", "bucket/dir/a.txt", 5),
		uploadTask("/src/b.txt", "bucket/dir/b.txt", 6),
	)

	assert.Equal(t, 2, result.Succeeded)
	assert.Zero(t, result.Failed)
	assert.Equal(t, int64(11), result.BytesTransferred)
	assert.Equal(t, []string{"dir/a.txt", "dir/b.txt"}, mem.Keys("bucket"))

	obj, ok := mem.Object("bucket", "dir/a.txt")
	require.True(t, ok)
	assert.Equal(t, "alpha", string(obj.Data))
	assert.EqualValues(t, s3types.ACLPublicRead, obj.ACL)
	assert.Equal(t, "text/plain; charset=utf-8", obj.ContentType)

	exists, err := filesystem.Exists("/src/a.txt")
	require.NoError(t, err)
	assert.False(t, exists, "source is removed after upload")

	assert.Equal(t, 2, reporter.PartsDone())
	event, ok := reporter.EventFor("/src/b.txt")
	require.True(t, ok)
	assert.Equal(t, "bucket/dir/b.txt", event.Dest)
	assert.NoError(t, event.Err)
}

func TestExecutor_Download(t *testing.T) {
	filesystem := billyfs.NewInMemoryFS()
	mem := testutil.NewMemoryS3().WithObject("bucket", "logs/today.log", []byte("line\n"))

	e, err := New(mem.Build(), filesystem, Config{}, nil)
	require.NoError(t, err)

	result := runTasks(t, e, planner.Task{
		Operation: s3types.TransferDownload,
		Src:       "bucket/logs/today.log",
		Dest:      "/out/logs/today.log",
		SrcType:   s3types.PathS3,
		DestType:  s3types.PathLocal,
		Size:      5,
		Parts:     1,
	})

	assert.Equal(t, 1, result.Succeeded)
	data, err := filesystem.ReadFile("/out/logs/today.log")
	require.NoError(t, err)
	assert.Equal(t, "line\n", string(data))
	assert.Empty(t, mem.Keys("bucket"), "source object is deleted after download")
}

func TestExecutor_Copy(t *testing.T) {
	mem := testutil.NewMemoryS3().WithObject("src", "a b.txt", []byte("payload")).WithBucket("dst")

	e, err := New(mem.Build(), billyfs.NewInMemoryFS(), Config{}, nil)
	require.NoError(t, err)

	result := runTasks(t, e, planner.Task{
		Operation: s3types.TransferCopy,
		Src:       "src/a b.txt",
		Dest:      "dst/moved/a b.txt",
		SrcType:   s3types.PathS3,
		DestType:  s3types.PathS3,
		Size:      7,
		Parts:     1,
	})

	assert.Equal(t, 1, result.Succeeded)
	obj, ok := mem.Object("dst", "moved/a b.txt")
	require.True(t, ok)
	assert.Equal(t, "payload", string(obj.Data))
	assert.Empty(t, mem.Keys("src"))
}

func TestExecutor_FailedTransferKeepsSource(t *testing.T) {
	mem := testutil.NewMemoryS3().
		WithObject("src", "keep.txt", []byte("x")).
		WithBucket("dst").
		FailOn("CopyObject", "dst", "keep.txt", errors.New("internal error"))
	reporter := &testutil.MockReporter{}

	e, err := New(mem.Build(), billyfs.NewInMemoryFS(), Config{Reporter: reporter}, nil)
	require.NoError(t, err)

	result := runTasks(t, e, planner.Task{
		Operation: s3types.TransferCopy,
		Src:       "src/keep.txt",
		Dest:      "dst/keep.txt",
		SrcType:   s3types.PathS3,
		DestType:  s3types.PathS3,
		Size:      1,
	})

	assert.Zero(t, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "src/keep.txt", result.Errors[0].Src)
	assert.Contains(t, result.Errors[0].Err.Error(), "internal error")

	assert.Equal(t, []string{"keep.txt"}, mem.Keys("src"))
	assert.Zero(t, mem.Calls("DeleteObject"))

	event, ok := reporter.EventFor("src/keep.txt")
	require.True(t, ok)
	assert.Error(t, event.Err)
}

func TestExecutor_FailedDeleteIsReported(t *testing.T) {
	mem := testutil.NewMemoryS3().
		WithObject("bucket", "k", []byte("x")).
		FailOn("DeleteObject", "bucket", "k", errors.New("denied"))
	filesystem := billyfs.NewInMemoryFS()

	e, err := New(mem.Build(), filesystem, Config{}, nil)
	require.NoError(t, err)

	result := runTasks(t, e, planner.Task{
		Operation: s3types.TransferDownload,
		Src:       "bucket/k",
		Dest:      "/k",
		SrcType:   s3types.PathS3,
		DestType:  s3types.PathLocal,
		Size:      1,
	})

	assert.Equal(t, 1, result.Failed)
	exists, err := filesystem.Exists("/k")
	require.NoError(t, err)
	assert.True(t, exists, "the transfer itself completed")
}

func TestExecutor_DryRun(t *testing.T) {
	filesystem := billyfs.NewInMemoryFS()
	require.NoError(t, filesystem.WriteFile("/a.txt", []byte("alpha"), 0o644))

	mem := testutil.NewMemoryS3().WithBucket("bucket")
	reporter := &testutil.MockReporter{}

	e, err := New(mem.Build(), filesystem, Config{DryRun: true, Reporter: reporter}, nil)
	require.NoError(t, err)

	result := runTasks(t, e, uploadTask("/a.txt", "bucket/a.txt", 5))

	assert.Equal(t, 1, result.Succeeded)
	assert.Zero(t, result.BytesTransferred)
	assert.Empty(t, mem.Keys("bucket"))
	assert.Zero(t, mem.Calls("PutObject"))

	exists, err := filesystem.Exists("/a.txt")
	require.NoError(t, err)
	assert.True(t, exists)

	assert.Equal(t, 1, reporter.PartsDone())
	event, ok := reporter.EventFor("/a.txt")
	require.True(t, ok)
	assert.True(t, event.DryRun)
}

func TestExecutor_PlannedOutcomes(t *testing.T) {
	mem := testutil.NewMemoryS3().WithBucket("bucket")
	reporter := &testutil.MockReporter{}

	e, err := New(mem.Build(), billyfs.NewInMemoryFS(), Config{Reporter: reporter}, nil)
	require.NoError(t, err)

	warned := uploadTask("/huge.bin", "bucket/huge.bin", 6<<40)
	warned.Warning = "skipping file /huge.bin; file exceeds 5 TiB upload limit"

	same := planner.Task{
		Operation: s3types.TransferCopy,
		Src:       "bucket/k",
		Dest:      "bucket/k",
		SrcType:   s3types.PathS3,
		DestType:  s3types.PathS3,
		Err:       s3errors.NewObjectError("move", "bucket", "k", s3errors.ErrSameObject),
	}

	result := runTasks(t, e, warned, same)

	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 1, result.Failed)
	assert.Zero(t, result.Succeeded)
	assert.Zero(t, mem.Calls("PutObject"))
	assert.Zero(t, mem.Calls("CopyObject"))

	event, ok := reporter.EventFor("/huge.bin")
	require.True(t, ok)
	assert.Equal(t, warned.Warning, event.Warning)

	event, ok = reporter.EventFor("bucket/k")
	require.True(t, ok)
	assert.ErrorIs(t, event.Err, s3errors.ErrSameObject)
}

func TestExecutor_SubmitAfterCancel(t *testing.T) {
	e, err := New(testutil.NewMemoryS3().Build(), billyfs.NewInMemoryFS(), Config{}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = e.Submit(ctx, uploadTask("/a", "bucket/a", 1))
	assert.True(t, s3errors.IsCanceled(err))

	result := e.Wait()
	assert.Zero(t, result.Succeeded+result.Failed+result.Skipped)
}
