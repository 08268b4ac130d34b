package genai

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"google.golang.org/api/googleapi"
)

func TestClassifyStructured(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"deadline", context.DeadlineExceeded, KindTimeout},
		{"wrapped deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), KindTimeout},
		{"quota 429", &googleapi.Error{Code: 429, Message: "rate limited"}, KindQuota},
		{"auth 401", &googleapi.Error{Code: 401, Message: "bad key"}, KindNotReady},
		{"forbidden 403", &googleapi.Error{Code: 403}, KindNotReady},
		{"gateway timeout", &googleapi.Error{Code: 504}, KindTimeout},
		{"server 500", &googleapi.Error{Code: 500, Message: "boom"}, KindUnknown},
	}
	for _, tc := range cases {
		if got := Classify(tc.err).Kind; got != tc.want {
			t.Errorf("%s: kind = %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestClassifyHeuristicFallback(t *testing.T) {
	cases := []struct {
		err  error
		want Kind
	}{
		{errors.New("request timeout while reading body"), KindTimeout},
		{errors.New("API key not valid"), KindNotReady},
		{errors.New("quota exceeded for model"), KindQuota},
		{errors.New("something else entirely"), KindUnknown},
	}
	for _, tc := range cases {
		if got := Classify(tc.err).Kind; got != tc.want {
			t.Errorf("Classify(%v).Kind = %s, want %s", tc.err, got, tc.want)
		}
	}
}

func TestClassifyPreservesExistingError(t *testing.T) {
	orig := E(KindQuota, "quota exceeded", nil)
	wrapped := fmt.Errorf("executor: %w", orig)
	if got := Classify(wrapped); got != orig {
		t.Fatalf("Classify re-classified an already classified error: %v", got)
	}
	if KindOf(wrapped) != KindQuota {
		t.Fatalf("KindOf(wrapped) = %s", KindOf(wrapped))
	}
}

func TestRetryable(t *testing.T) {
	if !Retryable(context.DeadlineExceeded) {
		t.Error("deadline should be retryable")
	}
	if !Retryable(&googleapi.Error{Code: 503}) {
		t.Error("503 should be retryable")
	}
	if !Retryable(errors.New("connection reset by peer")) {
		t.Error("connection errors should be retryable")
	}
	if Retryable(&googleapi.Error{Code: 429}) {
		t.Error("quota must not be retried")
	}
	if Retryable(&googleapi.Error{Code: 401}) {
		t.Error("auth failure must not be retried")
	}
	if Retryable(nil) {
		t.Error("nil is not retryable")
	}
}
