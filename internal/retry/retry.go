// Package retry implements the fixed exponential backoff applied to
// transient provider failures.
package retry

import (
	"context"
	"time"

	"editlab/internal/domain"
)

const (
	DefaultMaxAttempts = 4
	DefaultBaseDelay   = 5 * time.Second
)

// Policy bounds how often an operation is re-run. Only errors reported
// transient by the domain taxonomy are retried; everything else is
// returned to the caller as-is.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration

	// sleep is swapped out by tests to observe wait durations.
	sleep func(ctx context.Context, d time.Duration) error
}

// Default returns the policy used when no explicit configuration is given.
func Default() Policy {
	return Policy{MaxAttempts: DefaultMaxAttempts, BaseDelay: DefaultBaseDelay}
}

// Do runs op up to p.MaxAttempts times. The k-th retry waits
// BaseDelay*2^(k-1) first, so delays double per attempt. The error of the
// final attempt is returned unchanged when all attempts fail.
func Do[T any](ctx context.Context, p Policy, op func(context.Context) (T, error)) (T, error) {
	var zero T

	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = DefaultMaxAttempts
	}
	base := p.BaseDelay
	if base <= 0 {
		base = DefaultBaseDelay
	}
	wait := p.sleep
	if wait == nil {
		wait = sleepContext
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := wait(ctx, base<<(attempt-1)); err != nil {
				return zero, err
			}
		}

		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		if !domain.IsTransient(err) {
			return zero, err
		}
		lastErr = err
	}
	return zero, lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
