package cli

import (
	"context"
	"errors"

	s3errors "github.com/input-output-hk/s3mv/aws/s3/errors"
)

// Exit codes returned by the binary.
const (
	ExitOK          = 0
	ExitFailed      = 1
	ExitInterrupted = 130
	ExitUsage       = 255
)

// ExitError carries the process exit code for a command failure. Its message
// has already been printed when Silent is set.
type ExitError struct {
	Code   int
	Err    error
	Silent bool
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return "exit status"
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if errors.Is(err, context.Canceled) || s3errors.IsCanceled(err) {
		return ExitInterrupted
	}
	// cobra reports unknown flags and bad argument counts as plain errors
	return ExitUsage
}

// classify returns the exit code for an error returned by a move.
func classify(ctx context.Context, err error) int {
	switch {
	case ctx.Err() != nil || s3errors.IsCanceled(err):
		return ExitInterrupted
	case s3errors.IsInvalidInput(err),
		errors.Is(err, s3errors.ErrInvalidBucketName),
		errors.Is(err, s3errors.ErrLocalPathNotFound):
		return ExitUsage
	}
	return ExitFailed
}
