package github

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy defines how failed API calls are retried
type RetryPolicy struct {
	// MaxRetries is the number of retries after the initial attempt
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultRetryPolicy retries three times starting at 500ms
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, BaseDelay: 500 * time.Millisecond, MaxDelay: 10 * time.Second}
}

// backOff doubles from BaseDelay up to MaxDelay without jitter. Attempts
// are bounded by MaxRetries, not by elapsed time.
func (p RetryPolicy) backOff() *backoff.ExponentialBackOff {
	base, ceiling := p.BaseDelay, p.MaxDelay
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	if ceiling <= 0 {
		ceiling = 30 * time.Second
	}
	return backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(base),
		backoff.WithMultiplier(2),
		backoff.WithRandomizationFactor(0),
		backoff.WithMaxInterval(ceiling),
		backoff.WithMaxElapsedTime(0),
	)
}

// retry runs fn until it succeeds, returns a non-retryable error, or the
// attempts are exhausted; the last error is returned. notify may be nil.
func retry(ctx context.Context, policy RetryPolicy, fn func() error, notify backoff.Notify) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	retries := policy.MaxRetries
	if retries < 0 {
		retries = 0
	}
	b := backoff.WithContext(backoff.WithMaxRetries(policy.backOff(), uint64(retries)), ctx)

	return backoff.RetryNotify(func() error {
		err := fn()
		var permanent *backoff.PermanentError
		if err == nil || errors.As(err, &permanent) || isRetryable(err) {
			return err
		}
		return backoff.Permanent(err)
	}, b, notify)
}

// isRetryable accepts 5xx and 429 responses and transport failures.
// Errors marked permanent by the client, such as a response that could
// not be decoded after the server accepted the request, are never retried.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500 || apiErr.StatusCode == 429
	}
	return true
}
