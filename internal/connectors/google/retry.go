package google

import (
	"context"
	"errors"
	"time"

	"github.com/custodia-labs/gsuite-cli/internal/core/domain"
	"github.com/custodia-labs/gsuite-cli/internal/logger"
)

// RetryPolicy controls the retry wrapper around API calls.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the initial attempt.
	MaxRetries int
	// BaseDelay is the first backoff delay; it doubles per attempt.
	BaseDelay time.Duration
	// RetryOnRateLimit enables retrying 429 responses. 5xx responses
	// are always retried.
	RetryOnRateLimit bool
}

// DefaultRetryPolicy matches the shipped configuration defaults.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:       3,
		BaseDelay:        time.Second,
		RetryOnRateLimit: true,
	}
}

// Call invokes fn with rate limiting, retry, and error mapping. The
// limiter may be nil. Transient failures (5xx, and 429 when the policy
// allows) are retried with exponential backoff up to MaxRetries extra
// attempts; every other failure is mapped and returned immediately.
// When retries are exhausted the mapped last error is returned.
func Call[T any](ctx context.Context, limiter *RateLimiter, policy RetryPolicy, info CallInfo, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return zero, err
			}
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}

		mapped := info.MapError(err)
		lastErr = mapped

		delay, retryable := retryDelay(mapped, policy, attempt)
		if !retryable || attempt == policy.MaxRetries {
			return zero, mapped
		}

		var rateErr *domain.RateLimitError
		if limiter != nil && errors.As(mapped, &rateErr) {
			limiter.RecordRateLimitError(rateErr.RetryAfter)
		}

		logger.Debug("%s %s failed (attempt %d/%d), retrying in %s: %v",
			info.Service, info.operation(), attempt+1, policy.MaxRetries+1, delay, mapped)

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
	}

	return zero, lastErr
}

// CallOptional is Call for lookups where absence is an expected
// outcome: a 404 returns the zero value and false instead of an error.
func CallOptional[T any](ctx context.Context, limiter *RateLimiter, policy RetryPolicy, info CallInfo, fn func() (T, error)) (T, bool, error) {
	result, err := Call(ctx, limiter, policy, info, fn)
	if err != nil {
		var notFound *domain.NotFoundError
		if errors.As(err, &notFound) {
			var zero T
			return zero, false, nil
		}
		var zero T
		return zero, false, err
	}
	return result, true, nil
}

// retryDelay decides whether a mapped error is retryable under the
// policy and what the backoff for this attempt is.
func retryDelay(mapped error, policy RetryPolicy, attempt int) (time.Duration, bool) {
	delay := policy.BaseDelay << attempt

	var rateErr *domain.RateLimitError
	if errors.As(mapped, &rateErr) {
		if !policy.RetryOnRateLimit {
			return 0, false
		}
		if hint := time.Duration(rateErr.RetryAfter) * time.Second; hint > delay {
			delay = hint
		}
		return delay, true
	}

	if api, ok := domain.AsAPIError(mapped); ok && api.StatusCode >= 500 {
		return delay, true
	}
	return 0, false
}
