package httpbind

import (
	"context"
)

// MethodHandler is the per-method invocation pipeline: resolve args into a
// Request, run request interceptors, call the Transport (through the
// Retryer), and hand the Response to the ResponseHandler. Dispatch holds
// one MethodHandler per configKey.
type MethodHandler struct {
	Metadata     *MethodMetadata
	Target       *Target
	Resolver     *RequestTemplateFactoryResolver
	Transport    Transport
	Retryer      *Retryer
	ResponseH    *ResponseHandler
	Interceptors []RequestInterceptor
	// UnwrapCause, when true, makes Invoke return a *RetryableError's Cause
	// instead of the wrapper once the retry budget is exhausted (the
	// "unwrap-inner-cause" propagation policy, set via Builder.UnwrapCause).
	UnwrapCause bool
}

// Invoke runs the full binding pipeline for one method call: args is
// indexed exactly as MethodMetadata's Index* fields expect, i.e. by the
// original method signature's argument positions, including the ones
// consumed for ctx/options/body/etc.
func (h *MethodHandler) Invoke(ctx context.Context, args []any) (any, error) {
	if h.Metadata.Ignored {
		return nil, &ConfigurationError{ConfigKey: h.Metadata.ConfigKey, Reason: "method is marked Ignored and cannot be invoked"}
	}
	if h.Metadata.ContextIndex != -1 && h.Metadata.ContextIndex < len(args) {
		if c, ok := args[h.Metadata.ContextIndex].(context.Context); ok && c != nil {
			ctx = c
		}
	}

	tmpl, values, base, opts, err := h.Resolver.Resolve(h.Target, h.Metadata, args)
	if err != nil {
		return nil, err
	}

	// Expand once before the interceptors so they see the resolved URL,
	// headers and body (ResolvedURL is set by Freeze).
	if _, err := tmpl.Freeze(h.Target, h.Metadata, base, values); err != nil {
		return nil, err
	}
	for _, in := range h.Interceptors {
		if err := in.Apply(tmpl); err != nil {
			return nil, err
		}
	}
	// Freeze again after every interceptor has had a chance to add a query
	// parameter, set a header, or rewrite the method, so the Request
	// snapshot fed to the Transport reflects their mutations.
	req, err := tmpl.Freeze(h.Target, h.Metadata, base, values)
	if err != nil {
		return nil, err
	}

	ic := &InvocationContext{ConfigKey: h.Metadata.ConfigKey, Target: h.Target, Metadata: h.Metadata}

	if h.Retryer == nil {
		resp, err := h.call(ctx, req, opts)
		if err != nil {
			return nil, h.propagate(err)
		}
		return h.ResponseH.Handle(ic, resp, h.Metadata.ReturnType)
	}

	retryer := h.Retryer.Clone()
	var result any
	_, err = retryer.Do(ctx, func(int) (*Response, error) {
		resp, cerr := h.call(ctx, req, opts)
		if cerr != nil {
			return nil, cerr
		}
		result, err = h.ResponseH.Handle(ic, resp, h.Metadata.ReturnType)
		return resp, err
	})
	if err != nil {
		return nil, h.propagate(err)
	}
	return result, nil
}

func (h *MethodHandler) call(ctx context.Context, req *Request, opts *CallOptions) (*Response, error) {
	resp, err := h.Transport.Execute(ctx, req, opts)
	if err != nil {
		var retryable *RetryableError
		if asRetryable(err, &retryable) {
			return nil, retryable
		}
		ioErr := err
		if _, ok := err.(*TransportIOError); !ok {
			ioErr = &TransportIOError{ConfigKey: req.Template.Metadata.ConfigKey, Cause: err}
		}
		return nil, &RetryableError{Method: req.Method, Cause: ioErr}
	}
	return resp, nil
}

func asRetryable(err error, target **RetryableError) bool {
	re, ok := err.(*RetryableError)
	if ok {
		*target = re
		return true
	}
	return false
}

// propagate applies the UnwrapCause policy to a terminal error surviving
// the retry loop (attempt budget exhausted, or no Retryer configured at
// all): when enabled, a *RetryableError's Cause is returned instead of the
// wrapper itself.
func (h *MethodHandler) propagate(err error) error {
	if !h.UnwrapCause {
		return err
	}
	if re, ok := err.(*RetryableError); ok && re.Cause != nil {
		return re.Cause
	}
	return err
}
