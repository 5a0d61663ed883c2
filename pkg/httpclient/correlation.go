package httpclient

import (
	"context"
	"regexp"

	"github.com/google/uuid"
)

// correlationID is a per-request identifier propagated across an outgoing
// call via the X-Correlation-ID header, so that logs on both sides of the
// wire can be joined.
type correlationID string

type correlationKeyType struct{}

var correlationKey = correlationKeyType{}

var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

func (c correlationID) String() string { return string(c) }

func (c correlationID) isValid() bool { return uuidRegex.MatchString(string(c)) }

// withCorrelationID returns a context carrying id, retrievable by
// correlationIDFromContext.
func withCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey, correlationID(id))
}

// correlationIDFromContext returns the correlation ID stored in ctx, if any.
func correlationIDFromContext(ctx context.Context) (correlationID, bool) {
	id, ok := ctx.Value(correlationKey).(correlationID)
	return id, ok
}

// newCorrelationID generates a fresh RFC 4122 correlation ID.
func newCorrelationID() correlationID {
	return correlationID(uuid.New().String())
}

// WithCorrelationID attaches id to ctx so that the logging transport built
// by New picks it up and stamps it onto the outgoing request's
// X-Correlation-ID header. Callers that already own a correlation ID (a
// binding pipeline that stamped one onto a request before it reached this
// package, for instance) should use this instead of letting the transport
// mint one of its own, so that logs on both sides of the call line up under
// a single ID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return withCorrelationID(ctx, id)
}

// NewCorrelationID generates a fresh RFC 4122 correlation ID for a caller
// that needs one before it has a context to attach it to.
func NewCorrelationID() string {
	return string(newCorrelationID())
}
