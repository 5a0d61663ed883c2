package httpbind

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/tombee/declarative-http/pkg/httpclient"
)

// correlationIDHeader is the header RequestInterceptors (see the tracing
// capability) stamp a call's correlation ID onto. NetHTTPTransport reads it
// back off the frozen Request and threads it into httpclient's
// context-based propagation, so the generic client's own request log line
// carries the same ID as the rest of the binding pipeline instead of
// minting one of its own.
const correlationIDHeader = "X-Correlation-ID"

// NetHTTPTransport is the default Transport: it executes a frozen Request
// over the wire using an *http.Client built by httpclient.New. Retries are
// owned entirely by Retryer; httpclient carries no retry loop of its own
// to conflict with it.
type NetHTTPTransport struct {
	client *http.Client
}

// NewNetHTTPTransport builds a NetHTTPTransport from cfg.
func NewNetHTTPTransport(cfg httpclient.Config) (*NetHTTPTransport, error) {
	c, err := httpclient.New(cfg)
	if err != nil {
		return nil, err
	}
	return &NetHTTPTransport{client: c}, nil
}

// Execute implements Transport.
func (t *NetHTTPTransport) Execute(ctx context.Context, req *Request, opts *CallOptions) (*Response, error) {
	corrID := req.Header.Get(correlationIDHeader)
	if corrID == "" {
		corrID = httpclient.NewCorrelationID()
	}
	ctx = httpclient.WithCorrelationID(ctx, corrID)

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return nil, &TransportIOError{ConfigKey: metadataConfigKey(req), Cause: err}
	}
	httpReq.Header = req.Header.Clone()
	httpReq.Header.Set(correlationIDHeader, corrID)

	client := t.client
	if opts != nil && opts.Timeout > 0 {
		shallow := *client
		shallow.Timeout = opts.Timeout
		client = &shallow
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, &TransportIOError{ConfigKey: metadataConfigKey(req), Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportIOError{ConfigKey: metadataConfigKey(req), Cause: err}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		Body:       body,
		Request:    req,
	}, nil
}

func metadataConfigKey(req *Request) string {
	if req.Template != nil && req.Template.Metadata != nil {
		return req.Template.Metadata.ConfigKey
	}
	return ""
}
