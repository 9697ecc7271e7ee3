package executor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	s3errors "github.com/input-output-hk/s3mv/aws/s3/errors"
	"github.com/input-output-hk/s3mv/aws/s3/internal/move/location"
	"github.com/input-output-hk/s3mv/aws/s3/internal/move/planner"
	"github.com/input-output-hk/s3mv/aws/s3/internal/operations"
	"github.com/input-output-hk/s3mv/aws/s3/internal/operations/copy"
	"github.com/input-output-hk/s3mv/aws/s3/internal/operations/delete"
	"github.com/input-output-hk/s3mv/aws/s3/internal/operations/download"
	"github.com/input-output-hk/s3mv/aws/s3/internal/operations/upload"
	"github.com/input-output-hk/s3mv/aws/s3/internal/pool"
	"github.com/input-output-hk/s3mv/aws/s3/internal/s3api"
	"github.com/input-output-hk/s3mv/aws/s3/s3types"
	"github.com/input-output-hk/s3mv/fs"
)

// DefaultWorkers is the number of moves run at once when unset.
const DefaultWorkers = 10

// Config holds configuration for an executor.
type Config struct {
	// Workers bounds the moves in flight
	Workers int

	// DryRun reports every move without performing it
	DryRun bool

	// Params are applied to S3 destination objects
	Params *s3types.ObjectParams

	MultipartThreshold int64
	PartSize           int64

	// PartConcurrency bounds the parts of one multipart transfer in flight
	PartConcurrency int

	// Limiter bounds in-flight S3 requests across all moves
	Limiter *pool.RequestLimiter

	// Reporter receives part progress and results; may be nil
	Reporter s3types.MoveReporter
}

// Executor handles the parallel execution of move operations.
type Executor struct {
	pool       *ants.Pool
	wg         sync.WaitGroup
	uploader   *upload.Uploader
	downloader *download.Downloader
	copier     *copy.Copier
	deleter    *delete.Deleter
	filesystem fs.Filesystem
	config     Config
	logger     *slog.Logger

	mu     sync.Mutex
	result s3types.MoveResult
	start  time.Time
}

// New creates an executor. Call Wait once every task was submitted.
func New(s3Client s3api.S3API, filesystem fs.Filesystem, config Config, logger *slog.Logger) (*Executor, error) {
	workers := config.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	p, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}

	return &Executor{
		pool:       p,
		uploader:   upload.New(s3Client, filesystem),
		downloader: download.New(s3Client, filesystem),
		copier:     copy.NewCopier(s3Client),
		deleter:    delete.New(s3Client),
		filesystem: filesystem,
		config:     config,
		logger:     logger,
		start:      time.Now(),
	}, nil
}

// Submit schedules task, blocking while every worker is busy.
func (e *Executor) Submit(ctx context.Context, task planner.Task) error {
	if err := ctx.Err(); err != nil {
		return s3errors.NewError("submit", s3errors.Classify(err))
	}

	e.wg.Add(1)
	err := e.pool.Submit(func() {
		defer e.wg.Done()
		e.run(ctx, task)
	})
	if err != nil {
		e.wg.Done()
		return fmt.Errorf("submit %s: %w", task.Src, err)
	}
	return nil
}

// Wait blocks until every submitted task finished, releases the workers and
// returns the totals.
func (e *Executor) Wait() *s3types.MoveResult {
	e.wg.Wait()
	e.pool.Release()

	e.mu.Lock()
	defer e.mu.Unlock()
	result := e.result
	result.Errors = append([]s3types.MoveError(nil), e.result.Errors...)
	result.Duration = time.Since(e.start)
	return &result
}

func (e *Executor) run(ctx context.Context, task planner.Task) {
	// tasks still queued at cancellation are dropped silently
	if ctx.Err() != nil {
		return
	}

	event := s3types.MoveEvent{
		Operation: task.Operation,
		Src:       task.Src,
		Dest:      task.Dest,
		SrcType:   task.SrcType,
		DestType:  task.DestType,
		Size:      task.Size,
		DryRun:    e.config.DryRun,
	}

	switch {
	case task.Err != nil:
		event.Err = task.Err
	case task.Warning != "":
		event.Warning = task.Warning
	case e.config.DryRun:
		e.partDone()
	default:
		event.Err = e.move(ctx, task)
	}

	e.record(ctx, event)
}

// move transfers task and removes its source afterwards.
func (e *Executor) move(ctx context.Context, task planner.Task) error {
	transfer := &operations.TransferConfig{
		Params:             e.config.Params,
		MultipartThreshold: e.config.MultipartThreshold,
		PartSize:           e.config.PartSize,
		Concurrency:        e.config.PartConcurrency,
		Limiter:            e.config.Limiter,
		OnPart:             e.partDone,
	}

	switch task.Operation {
	case s3types.TransferUpload:
		bucket, key := location.SplitBucketKey(task.Dest)
		if _, err := e.uploader.UploadFile(ctx, task.Src, bucket, key, transfer); err != nil {
			return err //nolint:wrapcheck // already an *errors.Error
		}
		if err := e.filesystem.Remove(task.Src); err != nil {
			return s3errors.NewError("removeSource", err)
		}
		return nil

	case s3types.TransferDownload:
		bucket, key := location.SplitBucketKey(task.Src)
		if _, err := e.downloader.DownloadFile(ctx, bucket, key, task.Dest, transfer); err != nil {
			return err //nolint:wrapcheck // already an *errors.Error
		}
		return e.deleter.Delete(ctx, bucket, key, e.config.Limiter) //nolint:wrapcheck // already an *errors.Error

	case s3types.TransferCopy:
		srcBucket, srcKey := location.SplitBucketKey(task.Src)
		destBucket, destKey := location.SplitBucketKey(task.Dest)
		if err := e.copier.Copy(ctx, srcBucket, srcKey, destBucket, destKey, task.Size, transfer); err != nil {
			return err //nolint:wrapcheck // already an *errors.Error
		}
		return e.deleter.Delete(ctx, srcBucket, srcKey, e.config.Limiter) //nolint:wrapcheck // already an *errors.Error
	}

	return s3errors.NewValidationError("unknown transfer operation " + string(task.Operation))
}

func (e *Executor) partDone() {
	if e.config.Reporter != nil {
		e.config.Reporter.PartDone()
	}
}

func (e *Executor) record(ctx context.Context, event s3types.MoveEvent) {
	e.mu.Lock()
	switch {
	case event.Err != nil:
		e.result.Failed++
		e.result.Errors = append(e.result.Errors, s3types.MoveError{Src: event.Src, Dest: event.Dest, Err: event.Err})
	case event.Warning != "":
		e.result.Skipped++
	default:
		e.result.Succeeded++
		if !event.DryRun {
			e.result.BytesTransferred += event.Size
		}
	}
	e.mu.Unlock()

	if e.logger != nil {
		attrs := []any{"operation", event.Operation, "src", event.Src, "dest", event.Dest, "size", event.Size}
		switch {
		case event.Err != nil:
			e.logger.ErrorContext(ctx, "move failed", append(attrs, "error", event.Err)...)
		case event.Warning != "":
			e.logger.WarnContext(ctx, "move skipped", append(attrs, "warning", event.Warning)...)
		default:
			e.logger.DebugContext(ctx, "move complete", append(attrs, "dryrun", event.DryRun)...)
		}
	}

	if e.config.Reporter != nil {
		e.config.Reporter.Done(event)
	}
}
