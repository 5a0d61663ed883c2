package httpbind

import (
	"context"
	"reflect"
	"time"
)

// CallOptions carries per-call transport options: a timeout override and a
// free-form metadata bag capabilities can use to pass data down to the
// Transport (e.g. an idempotency key). A Target's default CallOptions is
// used unless a method argument of type *CallOptions is supplied, in which
// case it overrides the default for that call (see MethodMetadata.OptionsIndex).
type CallOptions struct {
	Timeout  time.Duration
	Metadata map[string]any
}

// Clone returns a deep-enough copy so that per-call mutation (by
// capabilities) never leaks into the Target's default options.
func (o *CallOptions) Clone() *CallOptions {
	if o == nil {
		return &CallOptions{Metadata: map[string]any{}}
	}
	clone := &CallOptions{Timeout: o.Timeout, Metadata: make(map[string]any, len(o.Metadata))}
	for k, v := range o.Metadata {
		clone.Metadata[k] = v
	}
	return clone
}

// Transport executes a frozen Request and returns a Response. Implementations
// must be safe for concurrent use. I/O failures should be returned as
// *TransportIOError (or any error satisfying errors.As to one); the core
// wraps transport errors into *RetryableError on the caller's behalf.
type Transport interface {
	Execute(ctx context.Context, req *Request, opts *CallOptions) (*Response, error)
}

// TransportFunc adapts a function to a Transport, mirroring the stdlib
// http.HandlerFunc convention.
type TransportFunc func(ctx context.Context, req *Request, opts *CallOptions) (*Response, error)

func (f TransportFunc) Execute(ctx context.Context, req *Request, opts *CallOptions) (*Response, error) {
	return f(ctx, req, opts)
}

// Encoder mutates tmpl's body to represent value. bodyType is the static
// Go type of the body parameter (or, when MethodMetadata.AlwaysEncodeBody
// is set with no body parameter, the type of the argument slice itself).
type Encoder interface {
	Encode(value any, bodyType reflect.Type, tmpl *RequestTemplate) error
}

// EncoderFunc adapts a function to an Encoder.
type EncoderFunc func(value any, bodyType reflect.Type, tmpl *RequestTemplate) error

func (f EncoderFunc) Encode(value any, bodyType reflect.Type, tmpl *RequestTemplate) error {
	return f(value, bodyType, tmpl)
}

// Decoder unmarshals a successful Response body into resultType.
type Decoder interface {
	Decode(resp *Response, resultType reflect.Type) (any, error)
}

// DecoderFunc adapts a function to a Decoder.
type DecoderFunc func(resp *Response, resultType reflect.Type) (any, error)

func (f DecoderFunc) Decode(resp *Response, resultType reflect.Type) (any, error) {
	return f(resp, resultType)
}

// ErrorDecoder turns a non-2xx Response into an error. Returning a
// *RetryableError (directly, or wrapped such that errors.As finds one)
// causes the pipeline to retry; any other non-nil error propagates
// immediately. Returning nil suppresses the status altogether - Handle
// treats the call as having succeeded with no value, rather than
// synthesizing a RemoteError.
type ErrorDecoder interface {
	Decode(configKey string, resp *Response) error
}

// ErrorDecoderFunc adapts a function to an ErrorDecoder.
type ErrorDecoderFunc func(configKey string, resp *Response) error

func (f ErrorDecoderFunc) Decode(configKey string, resp *Response) error {
	return f(configKey, resp)
}

// RequestInterceptor inspects or mutates a RequestTemplate before it is
// frozen into a Request. Interceptors run in the order they were installed
// on the Builder.
type RequestInterceptor interface {
	Apply(tmpl *RequestTemplate) error
}

// RequestInterceptorFunc adapts a function to a RequestInterceptor.
type RequestInterceptorFunc func(tmpl *RequestTemplate) error

func (f RequestInterceptorFunc) Apply(tmpl *RequestTemplate) error { return f(tmpl) }

// InvocationContext is the read-only handle response interceptors receive
// alongside the Response.
type InvocationContext struct {
	ConfigKey string
	Target    *Target
	Metadata  *MethodMetadata
}

// ResponseInterceptor inspects a Response, optionally replacing it, before
// ResponseHandler dispatches to the Decoder or ErrorDecoder. Returning a
// non-nil error short-circuits the pipeline with that error.
type ResponseInterceptor interface {
	Apply(ic *InvocationContext, resp *Response) (*Response, error)
}

// ResponseInterceptorFunc adapts a function to a ResponseInterceptor.
type ResponseInterceptorFunc func(ic *InvocationContext, resp *Response) (*Response, error)

func (f ResponseInterceptorFunc) Apply(ic *InvocationContext, resp *Response) (*Response, error) {
	return f(ic, resp)
}

// Capability transforms an installed Components set at Build time -
// wrapping the Transport, Decoder, Encoder, Retryer, or appending
// interceptors. Capabilities are applied in registration order.
type Capability interface {
	Apply(c *Components) error
}

// CapabilityFunc adapts a function to a Capability.
type CapabilityFunc func(c *Components) error

func (f CapabilityFunc) Apply(c *Components) error { return f(c) }
