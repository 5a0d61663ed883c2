package httpbind

import "context"

// Dispatch is the Go-native replacement for a reflective dynamic proxy
// Go has no runtime mechanism to implement an arbitrary interface
// type on the fly, so Builder.Target returns this table-driven dispatcher
// keyed by configKey instead. A hand-written (or generated) adapter
// implementing the caller's interface type typically wraps one of these,
// each method forwarding to Invoke with its own configKey constant.
// cmd/httpbindctl uses no adapter and calls Invoke directly by configKey.
type Dispatch struct {
	target   *Target
	handlers map[string]*MethodHandler
}

// Invoke runs the bound operation identified by configKey with args,
// indexed exactly as its MethodMetadata's Index* fields expect (see
// MethodHandler.Invoke). Returns a *ConfigurationError if configKey names
// no operation on this Dispatch's Target.
func (d *Dispatch) Invoke(ctx context.Context, configKey string, args ...any) (any, error) {
	h, ok := d.handlers[configKey]
	if !ok {
		return nil, &ConfigurationError{ConfigKey: configKey, Reason: "no bound operation for this configKey"}
	}
	return h.Invoke(ctx, args)
}

// MethodMetadata returns the frozen MethodMetadata bound to configKey, for
// adapters and diagnostics that need to inspect it without invoking.
func (d *Dispatch) MethodMetadata(configKey string) (*MethodMetadata, bool) {
	h, ok := d.handlers[configKey]
	if !ok {
		return nil, false
	}
	return h.Metadata, true
}

// ConfigKeys returns every configKey this Dispatch can route, useful for
// diagnostics and adapter code generation.
func (d *Dispatch) ConfigKeys() []string {
	keys := make([]string, 0, len(d.handlers))
	for k := range d.handlers {
		keys = append(keys, k)
	}
	return keys
}

// Target returns the Target this Dispatch was built for.
func (d *Dispatch) Target() *Target { return d.target }

// String answers the interface-identity "toString" operation from the
// Target, the special-cased identity operation every binding interface gets for free.
func (d *Dispatch) String() string { return d.target.String() }
