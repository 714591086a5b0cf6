package retry

import (
	"context"
	"time"
)

// Policy describes how often and how fast an operation is retried.
// A zero Policy means a single attempt with no waiting.
type Policy struct {
	MaxAttempts int
	Backoff     func(attempt int) time.Duration
}

// ConstantBackoff waits the same duration between every attempt.
func ConstantBackoff(d time.Duration) func(int) time.Duration {
	return func(int) time.Duration { return d }
}

// ExponentialBackoff doubles the wait per attempt, capped at max.
func ExponentialBackoff(base, max time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		d := base << uint(attempt)
		if d > max || d <= 0 {
			return max
		}
		return d
	}
}

// Do runs fn until it succeeds, the policy is exhausted or the context is
// cancelled. The last error is returned.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			var wait time.Duration
			if p.Backoff != nil {
				wait = p.Backoff(attempt - 1)
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}

		if err = fn(); err == nil {
			return nil
		}
	}
	return err
}
