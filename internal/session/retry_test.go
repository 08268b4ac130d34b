package session

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryPolicySucceedsFirstTry(t *testing.T) {
	calls := 0
	p := RetryPolicy{MaxAttempts: 3, Retryable: func(error) bool { return true }}
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return nil
	})
	if err != nil || calls != 1 {
		t.Fatalf("err = %v calls = %d", err, calls)
	}
}

func TestRetryPolicyBoundedAttempts(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	p := RetryPolicy{MaxAttempts: 3, Retryable: func(error) bool { return true }}
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestRetryPolicyStopsOnNonRetryable(t *testing.T) {
	fatal := errors.New("fatal")
	calls := 0
	p := RetryPolicy{MaxAttempts: 5, Retryable: func(error) bool { return false }}
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return fatal
	})
	if !errors.Is(err, fatal) || calls != 1 {
		t.Fatalf("err = %v calls = %d", err, calls)
	}
}

func TestRetryPolicyZeroAttemptsStillRunsOnce(t *testing.T) {
	calls := 0
	p := RetryPolicy{}
	_ = p.Do(context.Background(), func(context.Context) error {
		calls++
		return errors.New("x")
	})
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestRetryPolicyBackoffRespectsContext(t *testing.T) {
	boom := errors.New("boom")
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	p := RetryPolicy{MaxAttempts: 3, Backoff: time.Minute, Retryable: func(error) bool { return true }}
	err := p.Do(ctx, func(context.Context) error {
		calls++
		cancel()
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1 (backoff must abort on cancel)", calls)
	}
}
