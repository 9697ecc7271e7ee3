package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRetryer(t *testing.T) {
	assert.Equal(t, 4, newRetryer(3).MaxAttempts())
	assert.Equal(t, 1, newRetryer(0).MaxAttempts())
	assert.Equal(t, 1, newRetryer(-5).MaxAttempts())
}

func TestRetryer_RetryDelay(t *testing.T) {
	r := newRetryer(10)

	t.Run("exponential backoff", func(t *testing.T) {
		delay1, err := r.RetryDelay(1, nil)
		require.NoError(t, err)
		delay2, err := r.RetryDelay(2, nil)
		require.NoError(t, err)
		delay3, err := r.RetryDelay(3, nil)
		require.NoError(t, err)

		assert.Greater(t, delay2, delay1)
		assert.Greater(t, delay3, delay2)
	})

	t.Run("jitter stays within 25 percent", func(t *testing.T) {
		for range 50 {
			delay, err := r.RetryDelay(1, nil)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, delay, 75*time.Millisecond)
			assert.LessOrEqual(t, delay, 125*time.Millisecond)
		}
	})

	t.Run("capped at max delay", func(t *testing.T) {
		delay, err := r.RetryDelay(30, nil)
		require.NoError(t, err)
		assert.Equal(t, defaultRetryMaxDelay, delay)
	})
}

func TestRetryer_IsErrorRetryable(t *testing.T) {
	responseErr := func(status int) error {
		return &awshttp.ResponseError{
			ResponseError: &smithyhttp.ResponseError{
				Response: &smithyhttp.Response{Response: &http.Response{StatusCode: status}},
				Err:      errors.New("status"),
			},
		}
	}

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"slow down", &smithy.GenericAPIError{Code: "SlowDown"}, true},
		{"throttling", &smithy.GenericAPIError{Code: "ThrottlingException"}, true},
		{"internal error", &smithy.GenericAPIError{Code: "InternalError"}, true},
		{"wrapped throttling", fmt.Errorf("put: %w", &smithy.GenericAPIError{Code: "SlowDown"}), true},
		{"access denied", &smithy.GenericAPIError{Code: "AccessDenied"}, false},
		{"no such key", &smithy.GenericAPIError{Code: "NoSuchKey"}, false},
		{"http 503", responseErr(http.StatusServiceUnavailable), true},
		{"http 429", responseErr(http.StatusTooManyRequests), true},
		{"http 404", responseErr(http.StatusNotFound), false},
		{"unexpected eof", fmt.Errorf("read body: %w", io.ErrUnexpectedEOF), true},
		{"net error", &net.OpError{Op: "dial", Err: errors.New("connection refused")}, true},
		{"canceled", context.Canceled, false},
		{"deadline", fmt.Errorf("get: %w", context.DeadlineExceeded), false},
		{"plain error", errors.New("boom"), false},
	}

	r := newRetryer(3)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.IsErrorRetryable(tt.err))
		})
	}
}

func TestRetryer_Tokens(t *testing.T) {
	r := newRetryer(3)

	release, err := r.GetRetryToken(context.Background(), errors.New("x"))
	require.NoError(t, err)
	assert.NoError(t, release(nil))
	assert.NoError(t, r.GetInitialToken()(nil))
}
