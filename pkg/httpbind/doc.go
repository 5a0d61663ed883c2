// Package httpbind implements the binding pipeline of a declarative HTTP
// client framework: given a per-operation descriptor (the MethodMetadata),
// it turns typed method invocations into HTTP requests, executes them
// through a pluggable Transport, and decodes responses back into typed
// results.
//
// The pipeline, per invocation:
//
//	args -> RequestTemplate (from MethodMetadata + args) -> request
//	interceptors -> Transport -> Response -> response interceptors ->
//	Decoder/ErrorDecoder -> typed result OR *RetryableError -> Retryer -> loop
//
// Go has no runtime annotations and no dynamic proxies, so two adaptations
// are made relative to the source ecosystem this package's vocabulary comes
// from: binding metadata is supplied as explicit descriptor values (see
// ContractDescriptor, MethodDescriptor, ParamDescriptor) rather than parsed
// from interface annotations, and a built Engine exposes a table-driven
// Dispatch keyed by configKey rather than an implementation of the user's
// interface type. See dispatch.go.
package httpbind
