package llm

import (
	"context"
	"errors"
	"net"
	"strings"
)

// ErrRetriesExhausted wraps the last transient error once the attempt
// ceiling is reached.
var ErrRetriesExhausted = errors.New("llm: retries exhausted")

// transientMarkers are substrings that identify a retryable backend failure
// when the error chain carries no typed signal.
var transientMarkers = []string{
	// rate limiting
	"429", "rate limit", "rate_limit", "too many requests",
	// connection / transport
	"connection refused", "connection reset", "broken pipe", "no such host",
	"unexpected eof",
	// timeouts
	"timeout", "timed out", "deadline exceeded",
	// server-side errors
	"500", "502", "503", "504",
	"internal server error", "bad gateway", "service unavailable", "overloaded",
}

// IsTransient reports whether err looks like a transient backend failure
// worth retrying: rate limiting, connection/transport failure, timeout, or
// a 5xx server error. Unclassified errors are fatal.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	// Caller-initiated cancellation is never retried.
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
