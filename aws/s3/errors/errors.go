// Package errors provides error types and handling for AWS S3 operations.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// Error represents an S3 operation error with context about the operation that failed.
// It wraps the underlying AWS SDK error with additional context for better debugging.
type Error struct {
	// Op is the operation that failed (e.g., "upload", "download", "delete")
	Op string

	// Bucket is the S3 bucket name (if applicable)
	Bucket string

	// Key is the S3 object key (if applicable)
	Key string

	// Err is the underlying error from the AWS SDK or other source
	Err error
}

// Error implements the error interface by providing a formatted error message.
func (e *Error) Error() string {
	if e.Bucket != "" && e.Key != "" {
		return fmt.Sprintf("s3.%s %s/%s: %v", e.Op, e.Bucket, e.Key, e.Err)
	}
	if e.Bucket != "" {
		return fmt.Sprintf("s3.%s bucket %s: %v", e.Op, e.Bucket, e.Err)
	}
	if e.Key != "" {
		return fmt.Sprintf("s3.%s object %s: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("s3.%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error chaining support.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithBucket adds bucket context to an existing error.
func (e *Error) WithBucket(bucket string) *Error {
	e.Bucket = bucket
	return e
}

// WithKey adds object key context to an existing error.
func (e *Error) WithKey(key string) *Error {
	e.Key = key
	return e
}

// WithMessage wraps the underlying error with a custom message.
func (e *Error) WithMessage(message string) *Error {
	e.Err = fmt.Errorf("%s: %w", message, e.Err)
	return e
}

// NewError creates a new Error with the given operation and underlying error.
func NewError(op string, err error) *Error {
	return &Error{
		Op:  op,
		Err: err,
	}
}

// NewObjectError creates a new Error with bucket and key context.
func NewObjectError(op, bucket, key string, err error) *Error {
	return &Error{
		Op:     op,
		Bucket: bucket,
		Key:    key,
		Err:    err,
	}
}

// NewValidationError creates an ErrInvalidInput error described by message.
func NewValidationError(message string) *Error {
	return NewError("validate", Describef(ErrInvalidInput, "%s", message))
}

// Sentinel errors for common S3 operation failures.
// These can be used with errors.Is() for error checking.
var (
	// ErrObjectNotFound indicates that the requested object does not exist
	ErrObjectNotFound = errors.New("s3: object not found")

	// ErrBucketNotFound indicates that the requested bucket does not exist
	ErrBucketNotFound = errors.New("s3: bucket not found")

	// ErrAccessDenied indicates that access to the resource is denied
	ErrAccessDenied = errors.New("s3: access denied")

	// ErrInvalidInput indicates that the provided input is invalid
	ErrInvalidInput = errors.New("s3: invalid input")

	// ErrInvalidBucketName indicates that the bucket name is invalid
	ErrInvalidBucketName = errors.New("s3: invalid bucket name")

	// ErrInvalidObjectKey indicates that the object key is invalid
	ErrInvalidObjectKey = errors.New("s3: invalid object key")

	// ErrTooManyRequests indicates that the request rate is too high
	ErrTooManyRequests = errors.New("s3: too many requests")

	// ErrTimeout indicates that the operation timed out
	ErrTimeout = errors.New("s3: operation timeout")

	// ErrCanceled indicates the operation was interrupted before it finished
	ErrCanceled = errors.New("s3: operation canceled")

	// ErrLocalPathNotFound indicates that a local source path does not exist
	ErrLocalPathNotFound = errors.New("s3: local path does not exist")

	// ErrSameObject indicates a move whose source and destination are the same object
	ErrSameObject = errors.New("s3: source and destination are the same object")
)

// IsObjectNotFound checks if an error indicates that an object was not found.
// This is a convenience function that handles both sentinel errors and wrapped errors.
func IsObjectNotFound(err error) bool {
	return errors.Is(err, ErrObjectNotFound)
}

// IsBucketNotFound checks if an error indicates that a bucket was not found.
func IsBucketNotFound(err error) bool {
	return errors.Is(err, ErrBucketNotFound)
}

// IsAccessDenied checks if an error indicates access was denied.
func IsAccessDenied(err error) bool {
	return errors.Is(err, ErrAccessDenied)
}

// IsInvalidInput checks if an error indicates invalid input.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsCanceled checks if an error was caused by cancellation.
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled) || errors.Is(err, context.Canceled)
}

// Classify maps an AWS SDK error onto the package sentinels while keeping
// the original error in the chain. Errors it does not recognise are
// returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %w", ErrCanceled, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}

	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
		return fmt.Errorf("%w: %w", ErrObjectNotFound, err)
	}

	var noSuchBucket *types.NoSuchBucket
	if errors.As(err, &noSuchBucket) {
		return fmt.Errorf("%w: %w", ErrBucketNotFound, err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return fmt.Errorf("%w: %w", ErrObjectNotFound, err)
		case "NoSuchBucket":
			return fmt.Errorf("%w: %w", ErrBucketNotFound, err)
		case "AccessDenied", "Forbidden", "AllAccessDisabled":
			return fmt.Errorf("%w: %w", ErrAccessDenied, err)
		case "SlowDown", "TooManyRequests", "ThrottlingException", "RequestLimitExceeded":
			return fmt.Errorf("%w: %w", ErrTooManyRequests, err)
		case "RequestTimeout":
			return fmt.Errorf("%w: %w", ErrTimeout, err)
		}
	}

	// HEAD requests carry no error body, only a status code.
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.HTTPStatusCode() {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %w", ErrObjectNotFound, err)
		case http.StatusForbidden:
			return fmt.Errorf("%w: %w", ErrAccessDenied, err)
		}
	}

	return err
}

// describedError carries the message Describe reports for an error chain.
type describedError struct {
	msg string
	err error
}

func (e *describedError) Error() string { return e.msg }
func (e *describedError) Unwrap() error { return e.err }

// Describef wraps err with a user-facing message. Describe reports the
// message in place of the underlying error; errors.Is still sees err.
func Describef(err error, format string, args ...any) error {
	return &describedError{msg: fmt.Sprintf(format, args...), err: err}
}

// Describe returns the message of err without the operation prefix added by
// Error, suitable for one-line user output.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var described *describedError
	if errors.As(err, &described) {
		return described.msg
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("An error occurred (%s): %s", apiErr.ErrorCode(), apiMessage(err, apiErr))
	}
	var s3err *Error
	if errors.As(err, &s3err) && s3err.Err != nil {
		return s3err.Err.Error()
	}
	return err.Error()
}

// serviceMessages holds the S3 messages for modeled errors, which the SDK
// returns without the message from the response body.
var serviceMessages = map[string]string{
	"NoSuchBucket":               "The specified bucket does not exist",
	"NoSuchKey":                  "The specified key does not exist.",
	"NoSuchUpload":               "The specified multipart upload does not exist. The upload ID may be invalid, or the upload may have been aborted or completed.",
	"InvalidObjectState":         "The operation is not valid for the object's storage class",
	"ObjectNotInActiveTierError": "The source object of the COPY action is not in the active tier and is only stored in Amazon S3 Glacier.",
}

// apiMessage returns the message of apiErr, falling back to the S3 message
// for its code and then to the HTTP status text.
func apiMessage(err error, apiErr smithy.APIError) string {
	if msg := apiErr.ErrorMessage(); msg != "" {
		return msg
	}
	if msg, ok := serviceMessages[apiErr.ErrorCode()]; ok {
		return msg
	}
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		return http.StatusText(respErr.HTTPStatusCode())
	}
	return ""
}
