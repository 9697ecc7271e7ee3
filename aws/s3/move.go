package s3

import (
	"context"
	"os"

	"github.com/input-output-hk/s3mv/aws/s3/errors"
	"github.com/input-output-hk/s3mv/aws/s3/internal/move/executor"
	"github.com/input-output-hk/s3mv/aws/s3/internal/move/filter"
	"github.com/input-output-hk/s3mv/aws/s3/internal/move/location"
	"github.com/input-output-hk/s3mv/aws/s3/internal/move/planner"
	"github.com/input-output-hk/s3mv/aws/s3/internal/move/scanner"
	"github.com/input-output-hk/s3mv/aws/s3/internal/validation"
	"github.com/input-output-hk/s3mv/aws/s3/s3types"
)

// Move moves src to dest. Either side is a local path or an "s3://bucket/key"
// locator; local to local moves are rejected. Each file is transferred and
// its source removed once the transfer succeeded.
//
// The move follows a streaming three-phase approach:
// 1. Scanning: enumerate the source and apply the include/exclude rules
// 2. Planning: map each file to its destination and count its parts
// 3. Execution: transfer and remove sources on a bounded worker pool
//
// Scanning and execution overlap. The reporter's Planned is called once
// scanning finished; Done is called once per planned file.
//
// Returns:
//   - *MoveResult: Per-file totals. It is returned whenever execution started,
//     even when scanning failed part way.
//   - error: Setup and scanning failures. Failed files are reported in
//     MoveResult.Errors, not here.
//
// Errors:
//   - ErrInvalidInput: Unsupported path combination, invalid object
//     parameters or filter patterns, a directory without recursive or a
//     file with it
//   - ErrLocalPathNotFound: The local source does not exist
//   - ErrObjectNotFound: The S3 source key does not exist
//   - ErrBucketNotFound, ErrAccessDenied: Listing the source failed
//   - ErrCanceled: ctx was canceled while scanning
//
// Example:
//
//	result, err := client.Move(ctx, "./logs", "s3://my-bucket/logs/",
//	    s3.WithRecursive(true),
//	    s3.WithExclude("*.tmp"),
//	    s3.WithACL(s3types.ACLOwnerFullControl),
//	)
//	if err != nil {
//	    return fmt.Errorf("move failed: %w", err)
//	}
//	fmt.Printf("Moved %d files (%d bytes)\n", result.Succeeded, result.BytesTransferred)
func (c *Client) Move(
	ctx context.Context,
	src, dest string,
	opts ...s3types.MoveOption,
) (*s3types.MoveResult, error) {
	cfg := &s3types.MoveOptionConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	clientCfg := c.getClientConfig()
	filesystem := c.Filesystem()

	srcLoc, destLoc := location.Parse(src), location.Parse(dest)
	paths, err := location.Classify(srcLoc, destLoc)
	if err != nil {
		return nil, err //nolint:wrapcheck // already an *errors.Error
	}
	for _, loc := range []location.Location{srcLoc, destLoc} {
		if loc.Type != s3types.PathS3 {
			continue
		}
		if err := validation.ValidateBucketName(loc.Bucket()); err != nil {
			return nil, err //nolint:wrapcheck // already an *errors.Error
		}
	}
	if err := validation.ValidateParams(&cfg.Params); err != nil {
		return nil, err //nolint:wrapcheck // already an *errors.Error
	}

	if err := location.CheckSource(filesystem, srcLoc, cfg.Recursive); err != nil {
		return nil, err //nolint:wrapcheck // already an *errors.Error
	}
	pair, err := location.Format(filesystem, srcLoc, destLoc, cfg.Recursive)
	if err != nil {
		return nil, err //nolint:wrapcheck // already an *errors.Error
	}
	if err := location.CheckOverlap(pair); err != nil {
		return nil, err //nolint:wrapcheck // already an *errors.Error
	}

	rules, err := filter.New(cfg.Filters, filter.Root(pair.Src.Path, pair.Src.Type, cfg.Recursive), pair.Src.Type)
	if err != nil {
		return nil, err //nolint:wrapcheck // already an *errors.Error
	}

	cwd, err := os.Getwd()
	if err != nil {
		cwd = ""
	}

	workers := cfg.Concurrency
	if workers <= 0 {
		workers = clientCfg.Concurrency
	}

	ex, err := executor.New(c.s3Client, filesystem, executor.Config{
		Workers:            workers,
		DryRun:             cfg.DryRun,
		Params:             &cfg.Params,
		MultipartThreshold: clientCfg.MultipartThreshold,
		PartSize:           clientCfg.PartSize,
		PartConcurrency:    clientCfg.Concurrency,
		Limiter:            c.limiter,
		Reporter:           cfg.Reporter,
	}, c.logger)
	if err != nil {
		return nil, errors.NewError("move", err)
	}

	pl := planner.New(pair, paths, planner.Config{
		MultipartThreshold: clientCfg.MultipartThreshold,
		PartSize:           clientCfg.PartSize,
		Cwd:                cwd,
	})
	sc := scanner.New(c.s3Client, filesystem, c.limiter, c.logger)

	if c.logger != nil {
		c.logger.InfoContext(ctx, "move started",
			"src", pair.Src.Path,
			"dest", pair.Dest.Path,
			"paths", paths,
			"recursive", cfg.Recursive,
			"dryrun", cfg.DryRun,
			"filters", rules.Patterns(),
		)
	}

	var files, parts int
	scanErr := sc.Scan(ctx, pair.Src, cfg.Recursive, rules, func(file s3types.SourceFile) error {
		task := pl.Plan(file)
		if cfg.DryRun {
			task.Parts = 1
		}
		files++
		parts += task.Parts
		return ex.Submit(ctx, task)
	})
	if scanErr == nil && cfg.Reporter != nil {
		cfg.Reporter.Planned(files, parts)
	}

	result := ex.Wait()

	if c.logger != nil {
		c.logger.InfoContext(ctx, "move finished",
			"succeeded", result.Succeeded,
			"failed", result.Failed,
			"skipped", result.Skipped,
			"bytes", result.BytesTransferred,
			"duration", result.Duration,
		)
	}

	if scanErr != nil {
		return result, scanErr
	}
	return result, nil
}
