package genai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
)

// Kind is the failure taxonomy surfaced to the session layer.
type Kind string

const (
	KindNotReady Kind = "NOT_READY" // backend not initialized: bad credential, no network at startup
	KindTimeout  Kind = "TIMEOUT"
	KindQuota    Kind = "QUOTA_EXCEEDED"
	KindUnknown  Kind = "UNKNOWN"
)

// Error wraps a backend failure with its classified kind.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("genai: %s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("genai: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// E builds a classified backend error.
func E(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// KindOf returns the classified kind of err, classifying raw errors on the
// fly. A nil err has no kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return Classify(err).Kind
}

// Classify maps a raw SDK error onto the taxonomy. Structured signals
// (context sentinels, googleapi status codes, net errors) are checked
// first; the message-substring match survives only as a last-resort
// heuristic for SDKs that return bare strings.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var ge *Error
	if errors.As(err, &ge) {
		return ge
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return E(KindTimeout, "backend call timed out", err)
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests:
			return E(KindQuota, "quota exceeded", err)
		case http.StatusUnauthorized, http.StatusForbidden:
			return E(KindNotReady, "credential rejected", err)
		case http.StatusRequestTimeout, http.StatusGatewayTimeout:
			return E(KindTimeout, "backend call timed out", err)
		}
		return E(KindUnknown, apiErr.Message, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return E(KindTimeout, "network timeout", err)
	}

	// Heuristic fallback on the message text.
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "quota") || strings.Contains(msg, "limit"):
		return E(KindQuota, "quota exceeded", err)
	case strings.Contains(msg, "api key") || strings.Contains(msg, "apikey") ||
		strings.Contains(msg, "credential"):
		return E(KindNotReady, "credential rejected", err)
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		return E(KindTimeout, "backend call timed out", err)
	case strings.Contains(msg, "network") || strings.Contains(msg, "connection"):
		return E(KindUnknown, "network error", err)
	}
	return E(KindUnknown, err.Error(), err)
}

// Retryable reports whether a failed call may be retried with the same
// input: timeouts and transient network/server conditions qualify,
// credential and quota failures do not.
func Retryable(err error) bool {
	if err == nil {
		return false
	}

	classified := Classify(err)
	switch classified.Kind {
	case KindTimeout:
		return true
	case KindNotReady, KindQuota:
		return false
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code >= http.StatusInternalServerError
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "network") || strings.Contains(msg, "connection")
}
