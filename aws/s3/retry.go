package s3

import (
	"context"
	"errors"
	"io"
	"math"
	"math/rand"
	"net"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/smithy-go"
)

const (
	defaultRetryBaseDelay = 100 * time.Millisecond
	defaultRetryMaxDelay  = 20 * time.Second
)

// moveRetryer retries throttling, server-side and connection failures with
// exponential backoff and ±25% jitter.
//
// Thread Safety: all fields are set at creation time and never modified.
type moveRetryer struct {
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
}

//nolint:ireturn // aws.Config carries the retryer as an interface
func newRetryer(maxRetries int) aws.Retryer {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &moveRetryer{
		maxAttempts: maxRetries + 1,
		baseDelay:   defaultRetryBaseDelay,
		maxDelay:    defaultRetryMaxDelay,
	}
}

// MaxAttempts returns the maximum number of attempts, including the first.
func (r *moveRetryer) MaxAttempts() int {
	return r.maxAttempts
}

// RetryDelay returns baseDelay * 2^(attempt-1) with jitter, capped at maxDelay.
func (r *moveRetryer) RetryDelay(attempt int, _ error) (time.Duration, error) {
	delay := time.Duration(math.Pow(2, float64(attempt-1))) * r.baseDelay

	jitterRange := int64(float64(delay) * 0.25)
	if jitterRange > 0 {
		delay += time.Duration(rand.Int63n(2*jitterRange) - jitterRange) //nolint:gosec // jitter only
	}

	if delay > r.maxDelay {
		delay = r.maxDelay
	}
	if delay < 0 {
		delay = 0
	}

	return delay, nil
}

// IsErrorRetryable reports whether err is a transient failure.
func (r *moveRetryer) IsErrorRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "SlowDown",
			"ThrottlingException",
			"Throttling",
			"RequestLimitExceeded",
			"TooManyRequestsException",
			"RequestTimeout",
			"RequestTimeTooSkewed",
			"InternalError",
			"ServiceUnavailable":
			return true
		case "AccessDenied",
			"NoSuchKey",
			"NoSuchBucket",
			"NoSuchUpload",
			"InvalidArgument",
			"InvalidRequest",
			"EntityTooLarge":
			return false
		}
	}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		code := respErr.HTTPStatusCode()
		return code >= http.StatusInternalServerError || code == http.StatusTooManyRequests
	}

	if errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// GetRetryToken always grants a retry.
func (r *moveRetryer) GetRetryToken(context.Context, error) (func(error) error, error) {
	return func(error) error { return nil }, nil
}

// GetInitialToken returns a no-op release function.
func (r *moveRetryer) GetInitialToken() func(error) error {
	return func(error) error { return nil }
}
