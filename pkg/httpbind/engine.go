package httpbind

import (
	"fmt"
	"log/slog"
	"reflect"

	"github.com/tombee/declarative-http/pkg/httpclient"
)

// Components is the mutable set of installed building blocks a Builder
// accumulates before Target() freezes them into per-operation
// MethodHandlers. Capabilities receive a *Components at build time and may
// wrap any field in place - e.g. a metrics Capability replaces Transport
// with one that wraps the currently-installed Transport.
type Components struct {
	Contract             *Contract
	Encoder              Encoder
	Decoder              Decoder
	ErrorDecoder         ErrorDecoder
	Transport            Transport
	DefaultOptions       *CallOptions
	Retryer              *Retryer
	RequestInterceptors  []RequestInterceptor
	ResponseInterceptors []ResponseInterceptor
	LogLevel             slog.Level
	UnwrapCause          bool
	DecodeVoid           bool
	CloseAfterDecode     bool
}

// Builder assembles a Components set and a list of Capabilities, then
// freezes them against one or more Target interface descriptions into
// *Dispatch values. This is the Go-native stand-in for the source
// ecosystem's per-interface proxy-builder: one Builder's installed
// components are shared by every Target it builds; a Target whose
// interface is not an interface type is rejected at build time.
type Builder struct {
	components   *Components
	capabilities []Capability
	built        bool
}

// NewBuilder returns a Builder with sane ambient defaults: the default
// dialect Contract, a NeverRetry Retryer (retrying is opt-in), and an error
// decoder that classifies 5xx/429/408 responses as retryable and everything
// else as a terminal *RemoteError - the same status-class split as the
// reference project's retryTransport.shouldRetryStatus.
func NewBuilder() *Builder {
	return &Builder{
		components: &Components{
			Contract:       NewContract(),
			Retryer:        NeverRetry(),
			ErrorDecoder:   ErrorDecoderFunc(defaultErrorDecoder),
			DefaultOptions: &CallOptions{Metadata: map[string]any{}},
			LogLevel:       slog.LevelInfo,
		},
	}
}

// WithContract overrides the Contract used to parse ContractDescriptors
// (e.g. a YAML-dialect front-end instead of the default).
func (b *Builder) WithContract(c *Contract) *Builder { b.components.Contract = c; return b }

// WithEncoder installs the body Encoder.
func (b *Builder) WithEncoder(e Encoder) *Builder { b.components.Encoder = e; return b }

// WithDecoder installs the success-response Decoder.
func (b *Builder) WithDecoder(d Decoder) *Builder { b.components.Decoder = d; return b }

// WithErrorDecoder overrides the default status-class ErrorDecoder.
func (b *Builder) WithErrorDecoder(d ErrorDecoder) *Builder { b.components.ErrorDecoder = d; return b }

// WithTransport installs the Transport that executes frozen Requests.
func (b *Builder) WithTransport(t Transport) *Builder { b.components.Transport = t; return b }

// WithDefaultOptions sets the CallOptions used when a method call supplies
// no *CallOptions override argument.
func (b *Builder) WithDefaultOptions(o *CallOptions) *Builder { b.components.DefaultOptions = o; return b }

// WithRetryer overrides the default NeverRetry policy.
func (b *Builder) WithRetryer(r *Retryer) *Builder { b.components.Retryer = r; return b }

// WithRequestInterceptor appends a request interceptor, run in registration
// order.
func (b *Builder) WithRequestInterceptor(in RequestInterceptor) *Builder {
	b.components.RequestInterceptors = append(b.components.RequestInterceptors, in)
	return b
}

// WithResponseInterceptor appends a response interceptor, run in
// registration order.
func (b *Builder) WithResponseInterceptor(in ResponseInterceptor) *Builder {
	b.components.ResponseInterceptors = append(b.components.ResponseInterceptors, in)
	return b
}

// WithLogLevel records level in Components.LogLevel. MethodHandler does not
// read it and emits no log line for a retry attempt.
func (b *Builder) WithLogLevel(level slog.Level) *Builder { b.components.LogLevel = level; return b }

// UnwrapCause enables the "unwrap-inner-cause" propagation policy from
// once the retry budget is exhausted, return a *RetryableError's
// Cause instead of the wrapper.
func (b *Builder) UnwrapCause(unwrap bool) *Builder { b.components.UnwrapCause = unwrap; return b }

// DecodeVoid forces the Decoder to run even for VoidType results.
func (b *Builder) DecodeVoid(decode bool) *Builder { b.components.DecodeVoid = decode; return b }

// WithCapability appends a build-time Capability, applied in registration
// order when Target() is first called.
func (b *Builder) WithCapability(c Capability) *Builder {
	b.capabilities = append(b.capabilities, c)
	return b
}

// applyCapabilities runs every installed Capability against the Components
// exactly once, in registration order, regardless of how many Targets this
// Builder goes on to build.
func (b *Builder) applyCapabilities() error {
	if b.built {
		return nil
	}
	for _, cap := range b.capabilities {
		if err := cap.Apply(b.components); err != nil {
			return &ConfigurationError{Reason: fmt.Sprintf("capability %T: %v", cap, err)}
		}
	}
	b.built = true
	return nil
}

// Target validates desc, freezes it against this Builder's installed
// Components, and returns a *Dispatch routing configKey invocations to
// their MethodHandler. desc.Interface must be a Go interface type; a
// method whose declared return type's first result is a raw channel is
// rejected, the Go analogue of the source ecosystem's wildcard
// future-return rejection.
func (b *Builder) Target(desc *ContractDescriptor, name, baseURL string, opts *CallOptions) (*Dispatch, error) {
	if desc == nil || desc.Interface == nil || desc.Interface.Kind() != reflect.Interface {
		return nil, &ConfigurationError{Reason: "Target requires a ContractDescriptor naming an interface type"}
	}
	for _, m := range desc.Methods {
		if m.Func.Type != nil && m.Func.Type.NumOut() > 0 && m.Func.Type.Out(0).Kind() == reflect.Chan {
			return nil, &ConfigurationError{ConfigKey: m.Name, Reason: "method returns a raw channel; wildcard future-return shapes are rejected at build time"}
		}
	}

	if err := b.applyCapabilities(); err != nil {
		return nil, err
	}

	if opts == nil {
		opts = b.components.DefaultOptions
	}
	target, err := NewTarget(desc.Interface, name, baseURL, opts)
	if err != nil {
		return nil, err
	}

	metas, err := b.components.Contract.Parse(desc)
	if err != nil {
		return nil, err
	}

	return b.buildDispatch(target, metas), nil
}

// TargetFromMetadata wires an already-parsed metadata map (produced by a
// dialect front-end that has no Go interface type to hand Target - see
// yamlcontract) into a *Dispatch the same way Target does for the
// struct-tag dialect: same capability application, same resolver and
// ResponseHandler construction, same per-configKey MethodHandler wiring.
// The caller is responsible for having already run each MethodMetadata
// through Contract.ParseDescriptor (or an equivalent), so this method does
// no further validation of metas itself.
func (b *Builder) TargetFromMetadata(metas map[string]*MethodMetadata, name, baseURL string, opts *CallOptions) (*Dispatch, error) {
	if err := b.applyCapabilities(); err != nil {
		return nil, err
	}
	if opts == nil {
		opts = b.components.DefaultOptions
	}
	iface := reflect.TypeOf((*any)(nil)).Elem()
	target, err := NewTarget(iface, name, baseURL, opts)
	if err != nil {
		return nil, err
	}
	return b.buildDispatch(target, metas), nil
}

// buildDispatch wires a parsed metadata map against target into a
// *Dispatch, sharing the resolver/ResponseHandler/MethodHandler
// construction between Target and TargetFromMetadata.
func (b *Builder) buildDispatch(target *Target, metas map[string]*MethodMetadata) *Dispatch {
	resolver := NewRequestTemplateFactoryResolver(b.components.Encoder)
	respHandler := &ResponseHandler{
		Decoder:          b.components.Decoder,
		ErrorDecoder:     b.components.ErrorDecoder,
		Interceptors:     b.components.ResponseInterceptors,
		DecodeVoid:       b.components.DecodeVoid,
		CloseAfterDecode: b.components.CloseAfterDecode,
	}

	handlers := make(map[string]*MethodHandler, len(metas))
	for key, md := range metas {
		handlers[key] = &MethodHandler{
			Metadata:     md,
			Target:       target,
			Resolver:     resolver,
			Transport:    b.components.Transport,
			Retryer:      b.components.Retryer,
			ResponseH:    respHandler,
			Interceptors: b.components.RequestInterceptors,
			UnwrapCause:  b.components.UnwrapCause,
		}
	}
	return &Dispatch{target: target, handlers: handlers}
}

// defaultErrorDecoder classifies a non-2xx Response with
// httpclient.ShouldRetryStatus (5xx, 408 and 429 are retryable), and
// carries any Retry-After the server sent onto the RetryableError so
// Retryer's RetryAfter-precedence rule sees it.
func defaultErrorDecoder(configKey string, resp *Response) error {
	if httpclient.ShouldRetryStatus(resp.StatusCode) {
		method := ""
		if resp.Request != nil {
			method = resp.Request.Method
		}
		retryable := &RetryableError{
			Method: method,
			Cause: &RemoteError{
				ConfigKey:  configKey,
				StatusCode: resp.StatusCode,
				Status:     resp.Status,
				Body:       resp.Body,
			},
		}
		if d := httpclient.ParseRetryAfter(resp.Header); d > 0 {
			retryable.RetryAfter = RetryAfterFromDuration(d)
		}
		return retryable
	}
	return &RemoteError{
		ConfigKey:  configKey,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       resp.Body,
	}
}
