// Package executor implements the execution layer: a paper executor that
// simulates fills against the in-memory ledger and a live executor that
// delegates to per-chain swap capabilities, both wrapped by the same
// retry-with-backoff driver.
package executor

import (
	"context"
	"math"
	"time"
)

// RetryConfig drives the retry wrapper around each execution attempt.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultRetryConfig returns the production retry policy.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxAttempts: 3, BaseDelay: 500 * time.Millisecond}
}

// retryDo runs op up to MaxAttempts times with exponential backoff
// (BaseDelay × 1.5^(attempt-1)) between attempts. It returns the value,
// the number of attempts consumed and the final error; the last failure is
// surfaced, never swallowed.
func retryDo[T any](ctx context.Context, cfg RetryConfig, op func(context.Context) (T, error)) (T, int, error) {
	var zero T
	max := cfg.MaxAttempts
	if max < 1 {
		max = 1
	}

	var lastErr error
	for attempt := 1; attempt <= max; attempt++ {
		v, err := op(ctx)
		if err == nil {
			return v, attempt, nil
		}
		lastErr = err

		if attempt == max {
			break
		}
		wait := time.Duration(float64(cfg.BaseDelay) * math.Pow(1.5, float64(attempt-1)))
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return zero, attempt, ctx.Err()
		}
	}
	return zero, max, lastErr
}
