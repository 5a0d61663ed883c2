package httpclient

import (
	"fmt"
	"time"
)

// Config configures the HTTP client's timeout and observability settings.
// It carries no retry knobs of its own - pkg/httpbind's Retryer is the
// sole retry authority for every request this module sends.
type Config struct {
	// Timeout is the total request timeout.
	// Default: 30s. Must be > 0.
	Timeout time.Duration

	// UserAgent is the User-Agent header value.
	// Required. Must be non-empty.
	UserAgent string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:   30 * time.Second,
		UserAgent: "declarative-http/1.0",
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0, got %v", c.Timeout)
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user_agent is required and must be non-empty")
	}
	return nil
}
