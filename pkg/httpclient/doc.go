// Package httpclient provides a unified HTTP client factory with consistent
// timeout and observability behavior for declarative-http's generated
// clients. It does not retry anything itself.
//
// The package creates HTTP clients with sensible, secure defaults including:
//   - Request logging with sanitized URLs (sensitive parameters redacted)
//   - User-Agent header injection
//   - Correlation ID propagation for distributed tracing
//   - TLS 1.2 minimum (TLS 1.3 preferred)
//   - Connection pooling for performance
//
// # Usage
//
// Create a client with default settings:
//
//	client, err := httpclient.New(httpclient.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	resp, err := client.Get("https://api.example.com/resource")
//
// Customize configuration:
//
//	cfg := httpclient.DefaultConfig()
//	cfg.UserAgent = "my-service/2.0"
//	cfg.Timeout = 60 * time.Second
//	client, err := httpclient.New(cfg)
//
// # Retry Classification
//
// Retrying is pkg/httpbind's Retryer's job, not this package's - a client
// built here is used exactly once per attempt, and the caller's retry loop
// decides whether to call it again. What this package provides is the
// classification that decision needs, so it isn't re-derived at every call
// site:
//
//	if httpclient.ShouldRetryStatus(resp.StatusCode) { ... }
//	if httpclient.IsRetryableError(err) { ... }
//	delay := httpclient.ParseRetryAfter(resp.Header)
//
// pkg/httpbind's default ErrorDecoder calls these directly when deciding
// whether a non-2xx Response becomes a *RetryableError.
//
// # Security
//
// The package includes security features:
//   - Sensitive query parameters (api_key, token, password, etc.) are redacted from logs
//   - Authorization headers are never logged
//   - TLS 1.2 minimum with certificate validation enabled
//   - Connection pooling limits prevent resource exhaustion
//
// # Observability
//
// All requests emit structured logs via log/slog:
//   - Debug level: successful requests (2xx status)
//   - Warn level: failed requests (4xx/5xx status, errors)
//   - Fields: method, url (sanitized), status, duration_ms, error
//   - Correlation IDs automatically propagated when present in request context
//
// # Integration
//
// pkg/httpbind.NetHTTPTransport is the canonical caller: for every frozen
// Request it pushes the correlation ID already stamped on the request's
// headers into the context this package reads from, so a single ID ties
// together the binding-pipeline logs, this package's request log line,
// and whatever the remote service echoes back.
package httpclient
