package httpbind

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
)

var (
	contextType     = reflect.TypeOf((*context.Context)(nil)).Elem()
	callOptionsType = reflect.TypeOf((*CallOptions)(nil))
)

// Contract turns ContractDescriptor values into validated, frozen
// MethodMetadata, keyed by configKey. It is the Go replacement for the
// source ecosystem's annotation-reflecting contract parser: since Go has no
// method-level annotations, the descriptor values themselves carry what an
// annotation scan would otherwise have produced (see tags.go for one way to
// build them from a compact string grammar, and yamlcontract for another).
type Contract struct{}

// NewContract returns a Contract ready to Parse.
func NewContract() *Contract { return &Contract{} }

// Parse validates desc and returns its methods' MethodMetadata keyed by
// configKey. Every [MODULE] invariant from the binding-metadata contract is
// enforced here: at most one body/url/header-map/query-map/options
// parameter per method, every declared placeholder is reachable, form
// parameters never coexist with a body parameter, and a configKey collision
// (only reachable via two embedded interfaces declaring the same method) is
// resolved by the covariant-return tie-break (keep the more specific override).
func (c *Contract) Parse(desc *ContractDescriptor) (map[string]*MethodMetadata, error) {
	if desc == nil || desc.Interface == nil {
		return nil, &ConfigurationError{Reason: "contract descriptor must name an interface type"}
	}
	if desc.Interface.Kind() != reflect.Interface {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("%s is not an interface type", desc.Interface)}
	}

	out := make(map[string]*MethodMetadata, len(desc.Methods))

	for _, m := range desc.Methods {
		configKey := buildConfigKey(desc.Interface, m)

		md, err := c.parseMethod(desc, m, configKey)
		if err != nil {
			return nil, err
		}

		if existing, ok := out[configKey]; ok {
			out[configKey] = resolveCovariantOverride(configKey, existing, md)
			continue
		}
		out[configKey] = md
	}
	return out, nil
}

// resolveCovariantOverride keeps
// the newly-parsed metadata when its ReturnType is AssignableTo the
// existing one's (a strictly more specific override); otherwise keep the
// first metadata seen and log the silently-discarded conflict, matching the
// source ecosystem's documented "flag via a warning in diagnostics"
// instruction.
func resolveCovariantOverride(configKey string, existing, candidate *MethodMetadata) *MethodMetadata {
	if candidate.ReturnType != nil && existing.ReturnType != nil && candidate.ReturnType != existing.ReturnType {
		if candidate.ReturnType.AssignableTo(existing.ReturnType) {
			return candidate
		}
		slog.Warn("httpbind: covariant override conflict resolved by keeping first declaration",
			"configKey", configKey,
			"kept", existing.ReturnType.String(),
			"discarded", candidate.ReturnType.String(),
		)
		return existing
	}
	return existing
}

// ParseDescriptor runs the same validation and binding parseMethod applies
// during Parse, but takes configKey directly instead of deriving it from a
// reflect.Type - the hook a dialect front-end with no Go interface to
// reflect on (see yamlcontract) uses to share Contract's validation without
// duplicating it.
func (c *Contract) ParseDescriptor(configKey string, contractHeaders map[string][]string, m MethodDescriptor) (*MethodMetadata, error) {
	return c.parseMethod(&ContractDescriptor{Headers: contractHeaders}, m, configKey)
}

func (c *Contract) parseMethod(desc *ContractDescriptor, m MethodDescriptor, configKey string) (*MethodMetadata, error) {
	md := newMethodMetadata()
	md.ConfigKey = configKey
	md.Ignored = m.Ignored
	md.AlwaysEncodeBody = m.AlwaysEncodeBody

	if m.Func.Type != nil {
		md.NumIn = m.Func.Type.NumIn()
		if m.Func.Type.NumOut() > 0 {
			md.ReturnType = m.Func.Type.Out(0)
		}
	}
	for _, s := range m.Dismiss {
		md.Dismiss[s] = true
	}

	if md.Ignored {
		return md, nil
	}
	if m.HTTPVerb == "" {
		return nil, &ConfigurationError{ConfigKey: configKey, Reason: "missing HTTP verb"}
	}
	if m.Path == "" {
		return nil, &ConfigurationError{ConfigKey: configKey, Reason: "missing request path"}
	}

	tmpl := NewRequestTemplate()
	tmpl.Method = m.HTTPVerb
	tmpl.CollectionFormat = m.CollectionFormat
	if err := tmpl.SetURI(m.Path); err != nil {
		return nil, &ConfigurationError{ConfigKey: configKey, Reason: err.Error()}
	}

	headers := mergeHeaders(desc.Headers, m.Headers)
	for name, values := range headers {
		for _, v := range values {
			if v == "" {
				return nil, &ConfigurationError{ConfigKey: configKey, Reason: fmt.Sprintf("header %q has an empty value", name)}
			}
			if err := tmpl.AddHeader(name, v); err != nil {
				return nil, &ConfigurationError{ConfigKey: configKey, Reason: err.Error()}
			}
		}
	}

	declared := tmpl.Varnames()
	bound := make(map[string]bool, len(declared))

	for _, p := range m.Params {
		if err := c.bindParam(md, p, declared, bound); err != nil {
			return nil, &ConfigurationError{ConfigKey: configKey, Reason: err.Error()}
		}
	}

	for name := range declared {
		if !bound[name] {
			return nil, &ConfigurationError{ConfigKey: configKey, Reason: fmt.Sprintf("placeholder %q has no bound parameter", name)}
		}
	}

	if md.BodyIndex != -1 && len(md.FormParams) > 0 {
		return nil, &ConfigurationError{ConfigKey: configKey, Reason: "cannot mix form parameters with body parameter"}
	}

	md.Template = tmpl
	return md, nil
}

func (c *Contract) bindParam(md *MethodMetadata, p ParamDescriptor, declared, bound map[string]bool) error {
	switch p.Kind {
	case ParamHeader:
		if p.Name == "" {
			return fmt.Errorf("parameter %d: header binding requires a header name", p.Index)
		}
		exp := p.Expander
		if exp == nil {
			exp = DefaultExpander
		}
		md.IndexToName[p.Index] = p.Name
		md.IndexToKind[p.Index] = p.Kind
		md.IndexToFormat[p.Index] = p.Format
		md.IndexToExpander[p.Index] = exp
		// A header binding sets a literal header at resolve time - it is
		// never a URI/header-template placeholder, so it has no
		// declared/form-field fallback the way ParamPath does.
	case ParamPath:
		if p.Name == "" {
			return fmt.Errorf("parameter %d: path binding requires a placeholder name", p.Index)
		}
		exp := p.Expander
		if exp == nil {
			exp = DefaultExpander
		}
		md.IndexToName[p.Index] = p.Name
		md.IndexToKind[p.Index] = p.Kind
		md.IndexToFormat[p.Index] = p.Format
		md.IndexToExpander[p.Index] = exp
		if p.Format == Multi {
			md.MultiQueryParams[p.Index] = p.Name
		}
		if !declared[p.Name] {
			// Unreferenced by the URI/header/body template: the dialect
			// rule demotes it to a form field instead.
			md.FormParams = append(md.FormParams, p.Name)
			return nil
		}
		bound[p.Name] = true
	case ParamBody:
		if md.BodyIndex != -1 {
			return fmt.Errorf("parameter %d: method already has a body parameter at index %d", p.Index, md.BodyIndex)
		}
		md.BodyIndex = p.Index
	case ParamURL:
		if md.URLIndex != -1 {
			return fmt.Errorf("parameter %d: method already has a URL-override parameter at index %d", p.Index, md.URLIndex)
		}
		md.URLIndex = p.Index
	case ParamHeaderMap:
		if md.HeaderMapIndex != -1 {
			return fmt.Errorf("parameter %d: method already has a header-map parameter at index %d", p.Index, md.HeaderMapIndex)
		}
		md.HeaderMapIndex = p.Index
	case ParamQueryMap:
		if md.QueryMapIndex != -1 {
			return fmt.Errorf("parameter %d: method already has a query-map parameter at index %d", p.Index, md.QueryMapIndex)
		}
		md.QueryMapIndex = p.Index
	case ParamOptions:
		if md.OptionsIndex != -1 {
			return fmt.Errorf("parameter %d: method already has a *CallOptions parameter at index %d", p.Index, md.OptionsIndex)
		}
		md.OptionsIndex = p.Index
	case ParamContext:
		if md.ContextIndex != -1 {
			return fmt.Errorf("parameter %d: method already has a context.Context parameter at index %d", p.Index, md.ContextIndex)
		}
		md.ContextIndex = p.Index
	default:
		return fmt.Errorf("parameter %d: unrecognized ParamKind %d", p.Index, p.Kind)
	}
	return nil
}

// mergeHeaders overlays method-level headers onto contract-level defaults;
// a header name present in both is fully replaced by the method-level
// value, not appended to.
func mergeHeaders(base, override map[string][]string) map[string][]string {
	out := make(map[string][]string, len(base)+len(override))
	for k, v := range base {
		out[k] = append([]string(nil), v...)
	}
	for k, v := range override {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// buildConfigKey derives a unique per-overload method identifier from the
// interface name, method name, and argument types - the table key Dispatch
// uses in place of a dynamic proxy's runtime method resolution.
func buildConfigKey(iface reflect.Type, m MethodDescriptor) string {
	name := m.Name
	if m.Func.Name != "" {
		name = m.Func.Name
	}
	key := fmt.Sprintf("%s#%s(", shortTypeName(iface), name)
	if m.Func.Type != nil {
		t := m.Func.Type
		start := 0
		if t.NumIn() > 0 {
			// Func types captured via reflect.Type.MethodByName on the
			// interface itself have no receiver argument; captured via a
			// concrete implementation's Method they do. Detect the
			// receiver by checking it's assignable to iface.
			if t.In(0).AssignableTo(iface) || t.In(0) == iface {
				start = 1
			}
		}
		for i := start; i < t.NumIn(); i++ {
			if i > start {
				key += ","
			}
			key += shortTypeName(t.In(i))
		}
	}
	return key + ")"
}

// shortTypeName returns t's unqualified name, e.g. "string" or "Eg", the
// way Java's Class.getSimpleName() would - not its package-qualified
// String() form. Unnamed types (pointers, slices, maps, anonymous structs)
// have no Name(), so those fall back to String().
func shortTypeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	if name := t.Name(); name != "" {
		return name
	}
	return t.String()
}

// DetectAmbientKind reports whether t is one of the two parameter types the
// binding pipeline always recognizes by Go type alone, with no tag or
// descriptor needed: context.Context (skipped from binding entirely, Go's
// analogue of the source ecosystem's continuation-argument skip rule) and
// *CallOptions (the per-call transport-options override slot). A front-end
// building ParamDescriptor values should call this before falling back to
// its own tag/annotation grammar.
func DetectAmbientKind(t reflect.Type) (kind ParamKind, ok bool) {
	switch t {
	case contextType:
		return ParamContext, true
	case callOptionsType:
		return ParamOptions, true
	default:
		return 0, false
	}
}
