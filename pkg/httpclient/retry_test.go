package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestShouldRetryStatus(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{http.StatusOK, false},
		{http.StatusBadRequest, false},
		{http.StatusUnauthorized, false},
		{http.StatusRequestTimeout, true},
		{http.StatusTooManyRequests, true},
		{http.StatusInternalServerError, true},
		{http.StatusServiceUnavailable, true},
	}
	for _, tt := range tests {
		if got := ShouldRetryStatus(tt.status); got != tt.want {
			t.Errorf("ShouldRetryStatus(%d) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestIsRetryableError(t *testing.T) {
	if IsRetryableError(nil) {
		t.Error("nil error should not be retryable")
	}
	if IsRetryableError(context.Canceled) {
		t.Error("context.Canceled should not be retryable")
	}
	if IsRetryableError(context.DeadlineExceeded) {
		t.Error("context.DeadlineExceeded should not be retryable")
	}
	if !IsRetryableError(errors.New("dial tcp: connection refused")) {
		t.Error("connection refused should be retryable")
	}
	if !IsRetryableError(errors.New("unexpected EOF")) {
		t.Error("EOF should be retryable")
	}
	if IsRetryableError(errors.New("invalid request body")) {
		t.Error("an unrecognized error should not be assumed retryable")
	}
}

func TestParseRetryAfter(t *testing.T) {
	h := make(http.Header)
	if d := ParseRetryAfter(h); d != 0 {
		t.Errorf("expected 0 for missing header, got %v", d)
	}

	h.Set("Retry-After", "5")
	if d := ParseRetryAfter(h); d != 5*time.Second {
		t.Errorf("expected 5s, got %v", d)
	}

	h.Set("Retry-After", "not-a-number-or-date")
	if d := ParseRetryAfter(h); d != 0 {
		t.Errorf("expected 0 for malformed header, got %v", d)
	}

	future := time.Now().Add(2 * time.Second)
	h.Set("Retry-After", future.UTC().Format(http.TimeFormat))
	if d := ParseRetryAfter(h); d <= 0 || d > 2*time.Second {
		t.Errorf("expected a positive delay close to 2s, got %v", d)
	}
}

func TestIsRetryableError_URLErrorUnwrapsToWrappedCause(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // closed immediately, so dialing it fails with connection refused

	_, err := http.Get(server.URL)
	if err == nil {
		t.Fatal("expected a dial error against a closed server")
	}
	if !IsRetryableError(err) {
		t.Errorf("expected a connection-refused *url.Error to be retryable, got %v", err)
	}
}
