package httpbind

import (
	"fmt"
	"time"
)

// ConfigurationError represents a contract violation discovered at build
// time: a missing HTTP verb, a non-interface target, a duplicate
// query/header map parameter, an empty descriptor value, or an operation
// marked Ignored that was nonetheless invoked.
type ConfigurationError struct {
	ConfigKey string
	Reason    string
}

func (e *ConfigurationError) Error() string {
	if e.ConfigKey == "" {
		return fmt.Sprintf("httpbind: configuration error: %s", e.Reason)
	}
	return fmt.Sprintf("httpbind: configuration error for %s: %s", e.ConfigKey, e.Reason)
}

// BindingError represents an argument incompatible with its expander or
// collection format at call time, or a placeholder that survived expansion
// unbound.
type BindingError struct {
	ConfigKey string
	Reason    string
	Cause     error
}

func (e *BindingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("httpbind: binding error for %s: %s: %v", e.ConfigKey, e.Reason, e.Cause)
	}
	return fmt.Sprintf("httpbind: binding error for %s: %s", e.ConfigKey, e.Reason)
}

func (e *BindingError) Unwrap() error { return e.Cause }

// EncodeError wraps a failure from the user-supplied Encoder.
type EncodeError struct {
	ConfigKey string
	Cause     error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("httpbind: encode error for %s: %v", e.ConfigKey, e.Cause)
}

func (e *EncodeError) Unwrap() error { return e.Cause }

// DecodeError wraps a failure from the user-supplied Decoder.
type DecodeError struct {
	ConfigKey string
	Cause     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("httpbind: decode error for %s: %v", e.ConfigKey, e.Cause)
}

func (e *DecodeError) Unwrap() error { return e.Cause }

// TransportIOError wraps a low-level I/O or timeout failure raised by the
// Transport. MethodHandler always wraps it in a *RetryableError so the
// Retryer acts on it; with UnwrapCause set, it is what the caller gets back
// once retries are exhausted. It is exported so a Transport implementation
// can construct one directly.
type TransportIOError struct {
	ConfigKey string
	Cause     error
}

func (e *TransportIOError) Error() string {
	return fmt.Sprintf("httpbind: transport error for %s: %v", e.ConfigKey, e.Cause)
}

func (e *TransportIOError) Unwrap() error { return e.Cause }

// RemoteError represents a non-2xx response that survived the ErrorDecoder
// without being classified as retryable.
type RemoteError struct {
	ConfigKey  string
	StatusCode int
	Status     string
	Body       []byte
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("httpbind: %s: remote error %d %s", e.ConfigKey, e.StatusCode, e.Status)
}

// RetryableError is the only error kind the Retryer acts on. Method carries
// the HTTP verb so a Retryer can special-case idempotent verbs; RetryAfter,
// when set, is an absolute deadline the Retryer must honor in preference to
// its own calculated backoff.
type RetryableError struct {
	Method     string
	RetryAfter *time.Time
	Cause      error
}

func (e *RetryableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("httpbind: retryable error (%s): %v", e.Method, e.Cause)
	}
	return fmt.Sprintf("httpbind: retryable error (%s)", e.Method)
}

func (e *RetryableError) Unwrap() error { return e.Cause }
