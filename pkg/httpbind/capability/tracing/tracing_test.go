package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/declarative-http/pkg/httpbind"
)

func TestCapability_CorrelationIDInterceptor_StampsWhenAbsent(t *testing.T) {
	comps := &httpbind.Components{Transport: httpbind.TransportFunc(
		func(ctx context.Context, req *httpbind.Request, opts *httpbind.CallOptions) (*httpbind.Response, error) {
			return &httpbind.Response{StatusCode: 200}, nil
		},
	)}
	require.NoError(t, Capability("test-tracer").Apply(comps))
	require.Len(t, comps.RequestInterceptors, 1)

	tmpl := httpbind.NewRequestTemplate()
	require.NoError(t, comps.RequestInterceptors[0].Apply(tmpl))
	assert.NotEmpty(t, tmpl.Headers.Get(HeaderCorrelationID))
}

func TestCapability_CorrelationIDInterceptor_PreservesExisting(t *testing.T) {
	comps := &httpbind.Components{Transport: httpbind.TransportFunc(
		func(ctx context.Context, req *httpbind.Request, opts *httpbind.CallOptions) (*httpbind.Response, error) {
			return &httpbind.Response{StatusCode: 200}, nil
		},
	)}
	require.NoError(t, Capability("test-tracer").Apply(comps))

	tmpl := httpbind.NewRequestTemplate()
	tmpl.SetHeader(HeaderCorrelationID, "caller-supplied-id")
	require.NoError(t, comps.RequestInterceptors[0].Apply(tmpl))
	assert.Equal(t, "caller-supplied-id", tmpl.Headers.Get(HeaderCorrelationID))
}

func TestCapability_Transport_PassesThroughSuccessfulResponse(t *testing.T) {
	comps := &httpbind.Components{Transport: httpbind.TransportFunc(
		func(ctx context.Context, req *httpbind.Request, opts *httpbind.CallOptions) (*httpbind.Response, error) {
			return &httpbind.Response{StatusCode: 201}, nil
		},
	)}
	require.NoError(t, Capability("test-tracer").Apply(comps))

	req := &httpbind.Request{Method: "POST", Template: &httpbind.RequestTemplate{Metadata: &httpbind.MethodMetadata{ConfigKey: "svc#op()"}}}
	resp, err := comps.Transport.Execute(context.Background(), req, nil)
	require.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)
}

func TestCapability_Transport_PropagatesTransportError(t *testing.T) {
	boom := errors.New("boom")
	comps := &httpbind.Components{Transport: httpbind.TransportFunc(
		func(ctx context.Context, req *httpbind.Request, opts *httpbind.CallOptions) (*httpbind.Response, error) {
			return nil, boom
		},
	)}
	require.NoError(t, Capability("test-tracer").Apply(comps))

	_, err := comps.Transport.Execute(context.Background(), &httpbind.Request{}, nil)
	require.Equal(t, boom, err)
}
