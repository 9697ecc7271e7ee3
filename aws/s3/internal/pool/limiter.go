package pool

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// RequestLimiter bounds the number of in-flight S3 requests across every
// transfer of a move and optionally caps the request rate.
// A nil *RequestLimiter imposes no limits.
type RequestLimiter struct {
	slots   *semaphore.Weighted
	limiter *rate.Limiter
}

// NewRequestLimiter creates a limiter allowing concurrency simultaneous
// requests. A perSecond of zero or less disables rate limiting.
func NewRequestLimiter(concurrency int, perSecond float64) *RequestLimiter {
	if concurrency <= 0 {
		concurrency = 1
	}

	l := &RequestLimiter{
		slots: semaphore.NewWeighted(int64(concurrency)),
	}
	if perSecond > 0 {
		burst := int(perSecond)
		if burst < 1 {
			burst = 1
		}
		l.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
	return l
}

// Acquire blocks until a request may be sent. The returned release function
// must be called once the request finished.
func (l *RequestLimiter) Acquire(ctx context.Context) (func(), error) {
	if l == nil {
		return func() {}, nil
	}

	if l.limiter != nil {
		if err := l.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	if err := l.slots.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("request slot: %w", err)
	}
	return func() { l.slots.Release(1) }, nil
}

// Do runs fn while holding a request slot.
func Do[T any](ctx context.Context, l *RequestLimiter, fn func(context.Context) (T, error)) (T, error) {
	release, err := l.Acquire(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	defer release()
	return fn(ctx)
}
