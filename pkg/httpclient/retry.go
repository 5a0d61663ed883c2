package httpclient

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// This file no longer owns a retry loop of its own - that would double the
// backoff on top of pkg/httpbind's Retryer, which is the sole retry
// authority for every request this module sends (see
// pkg/httpbind/nethttp.go). What's left is the classification logic a
// retry loop needs: is this transport error transient, does this status
// code warrant another attempt, and did the server ask for a specific
// delay. pkg/httpbind's default ErrorDecoder calls ShouldRetryStatus and
// ParseRetryAfter instead of re-deriving the same rules.

// ShouldRetryStatus reports whether an HTTP status code should trigger a
// retry: 5xx server errors, 408 Request Timeout, and 429 Too Many
// Requests. Everything else is treated as a terminal outcome.
func ShouldRetryStatus(statusCode int) bool {
	switch {
	case statusCode >= 500 && statusCode < 600:
		return true
	case statusCode == http.StatusRequestTimeout:
		return true
	case statusCode == http.StatusTooManyRequests:
		return true
	default:
		return false
	}
}

// IsRetryableError reports whether a transport-level error (one that
// prevented a response from ever arriving) represents a transient
// condition worth retrying, as opposed to one that will recur identically
// on every attempt.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// Context cancellation is never retryable - retrying after the caller
	// gave up just burns another attempt budget for nothing.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout() || netErr.Temporary()
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return IsRetryableError(urlErr.Err)
	}

	errMsg := strings.ToLower(err.Error())
	transientKeywords := []string{
		"connection refused",
		"connection reset",
		"no such host",
		"network unreachable",
		"temporary failure in name resolution",
		"eof",
	}
	for _, keyword := range transientKeywords {
		if strings.Contains(errMsg, keyword) {
			return true
		}
	}
	return false
}

// ParseRetryAfter extracts the delay a server asked for via its
// Retry-After response header, supporting both the seconds and HTTP-date
// forms. It returns 0 if the header is absent, malformed, or already in
// the past.
func ParseRetryAfter(h http.Header) time.Duration {
	header := h.Get("Retry-After")
	if header == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(header); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}

	if retryTime, err := http.ParseTime(header); err == nil {
		if delay := time.Until(retryTime); delay > 0 {
			return delay
		}
	}

	return 0
}
