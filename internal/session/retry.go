package session

import (
	"context"
	"time"
)

// RetryPolicy bounds how often a backend call is repeated with the same
// input before its failure is surfaced.
type RetryPolicy struct {
	// MaxAttempts is the total number of tries, first call included.
	MaxAttempts int
	// Backoff is the pause between attempts.
	Backoff time.Duration
	// Retryable decides whether a failure is worth another attempt.
	Retryable func(error) bool
}

// Do runs fn until it succeeds, the error is non-retryable, or the attempt
// budget is exhausted. The last error is returned.
func (p RetryPolicy) Do(ctx context.Context, fn func(context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 && p.Backoff > 0 {
			select {
			case <-ctx.Done():
				return err
			case <-time.After(p.Backoff):
			}
		}
		if err = fn(ctx); err == nil {
			return nil
		}
		if p.Retryable == nil || !p.Retryable(err) {
			return err
		}
	}
	return err
}
