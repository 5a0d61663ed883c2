// Package tracing adds one OpenTelemetry span per invocation and a
// correlation-ID request interceptor, modeled on the reference project's
// internal/tracing OTelProvider.
package tracing

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tombee/declarative-http/pkg/httpbind"
	"github.com/tombee/declarative-http/pkg/httpclient"
)

// HeaderCorrelationID is the header a correlation-ID interceptor sets on
// every outgoing request.
const HeaderCorrelationID = "X-Correlation-ID"

// Capability wraps Components.Transport in an OpenTelemetry span per call,
// tagging it with the configKey, method, sanitized URL and HTTP status, and
// appends a RequestInterceptor that stamps a fresh correlation ID onto every
// request that doesn't already carry one.
func Capability(tracerName string) httpbind.Capability {
	tracer := otel.Tracer(tracerName)
	return httpbind.CapabilityFunc(func(comps *httpbind.Components) error {
		comps.RequestInterceptors = append(comps.RequestInterceptors, httpbind.RequestInterceptorFunc(
			func(tmpl *httpbind.RequestTemplate) error {
				if tmpl.Headers.Get(HeaderCorrelationID) == "" {
					tmpl.SetHeader(HeaderCorrelationID, uuid.New().String())
				}
				return nil
			},
		))

		inner := comps.Transport
		comps.Transport = httpbind.TransportFunc(func(ctx context.Context, req *httpbind.Request, opts *httpbind.CallOptions) (*httpbind.Response, error) {
			configKey := ""
			if req.Template != nil && req.Template.Metadata != nil {
				configKey = req.Template.Metadata.ConfigKey
			}
			ctx, span := tracer.Start(ctx, configKey, trace.WithAttributes(
				attribute.String("httpbind.config_key", configKey),
				attribute.String("http.method", req.Method),
				attribute.String("http.url", httpclient.SanitizeURL(req.URL)),
			))
			defer span.End()

			resp, err := inner.Execute(ctx, req, opts)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return resp, err
			}
			span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
			if !resp.IsSuccess() {
				span.SetStatus(codes.Error, resp.Status)
			}
			return resp, nil
		})
		return nil
	})
}
