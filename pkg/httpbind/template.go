package httpbind

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	uritemplate "github.com/yosida95/uritemplate/v3"
)

// CollectionFormat controls how a slice-valued argument is joined into a
// single placeholder substitution. Multi is special-cased by the resolver:
// rather than joining, it passes the elements as a list to the URI
// template, so an exploded query placeholder ({?name*}) yields one
// repeated query entry per element (see resolver.go).
type CollectionFormat int

const (
	// CSV joins elements with ",".
	CSV CollectionFormat = iota
	// SSV joins elements with " ".
	SSV
	// TSV joins elements with "\t".
	TSV
	// PIPES joins elements with "|".
	PIPES
	// Multi produces repeated "name=v1&name=v2" query entries.
	Multi
)

func (c CollectionFormat) separator() string {
	switch c {
	case SSV:
		return " "
	case TSV:
		return "\t"
	case PIPES:
		return "|"
	default:
		return ","
	}
}

// queryParam is one ordered, possibly multi-valued query entry. Distinct
// names preserve first-seen insertion order; values within a name preserve
// append order.
type queryParam struct {
	name   string
	values []string
}

// RequestTemplate is the mutable builder for one outgoing request. A
// skeleton RequestTemplate lives on a MethodMetadata; RequestTemplateFactoryResolver
// clones it once per invocation (see resolver.go) before binding arguments.
type RequestTemplate struct {
	Method string

	rawURI  string
	uriTmpl *uritemplate.Template

	queries []queryParam

	Headers     http.Header
	headerTmpls map[string]*uritemplate.Template

	Body            []byte
	BodyCharset     string
	bodyTemplateRaw string
	bodyTmpl        *uritemplate.Template

	DecodeSlash      bool
	CollectionFormat CollectionFormat

	// Metadata and Target are read-only back-references for observability;
	// set once by the owning MethodMetadata/Engine and never mutated by the
	// resolver.
	Metadata *MethodMetadata
	Target   *Target

	resolvedURL string
}

// NewRequestTemplate returns an empty RequestTemplate ready for SetURI/
// AddHeader/etc.
func NewRequestTemplate() *RequestTemplate {
	return &RequestTemplate{
		Headers:     make(http.Header),
		headerTmpls: make(map[string]*uritemplate.Template),
	}
}

// SetURI compiles raw as a URI template skeleton. raw may be a relative
// path (the common case; joined onto the Target's base URL at freeze time)
// or an absolute URI (when bound via URLIndex).
func (t *RequestTemplate) SetURI(raw string) error {
	tmpl, err := uritemplate.New(raw)
	if err != nil {
		return fmt.Errorf("httpbind: invalid URI template %q: %w", raw, err)
	}
	t.rawURI = raw
	t.uriTmpl = tmpl
	return nil
}

// RawURI returns the uncompiled URI template skeleton text.
func (t *RequestTemplate) RawURI() string { return t.rawURI }

// Varnames returns every placeholder name referenced by the URI template,
// the header value templates, and the body template combined - used by
// Contract to validate every declared Param actually fills a slot.
func (t *RequestTemplate) Varnames() map[string]bool {
	names := make(map[string]bool)
	if t.uriTmpl != nil {
		for _, n := range t.uriTmpl.Varnames() {
			names[n] = true
		}
	}
	for _, tmpl := range t.headerTmpls {
		for _, n := range tmpl.Varnames() {
			names[n] = true
		}
	}
	if t.bodyTmpl != nil {
		for _, n := range t.bodyTmpl.Varnames() {
			names[n] = true
		}
	}
	return names
}

// AddHeader appends value under name, preserving insertion order. A value
// containing "{" is compiled as a placeholder template and expanded per
// invocation; a literal value is stored as-is.
func (t *RequestTemplate) AddHeader(name, value string) error {
	if strings.Contains(value, "{") {
		tmpl, err := uritemplate.New(value)
		if err != nil {
			return fmt.Errorf("httpbind: invalid header template %q: %w", value, err)
		}
		canon := http.CanonicalHeaderKey(name)
		t.headerTmpls[canon] = tmpl
		return nil
	}
	t.Headers.Add(name, value)
	return nil
}

// SetHeader replaces all values for name, preserving the replace-wins-over-class
// semantics Contract uses when merging contract-level and method-level headers.
func (t *RequestTemplate) SetHeader(name, value string) error {
	canon := http.CanonicalHeaderKey(name)
	delete(t.Headers, canon)
	delete(t.headerTmpls, canon)
	return t.AddHeader(name, value)
}

// AddQuery appends value under name, preserving insertion order of distinct
// names and append order of values within a name.
func (t *RequestTemplate) AddQuery(name, value string) {
	for i := range t.queries {
		if t.queries[i].name == name {
			t.queries[i].values = append(t.queries[i].values, value)
			return
		}
	}
	t.queries = append(t.queries, queryParam{name: name, values: []string{value}})
}

// Queries returns the ordered, possibly multi-valued query parameters
// accumulated so far (distinct from placeholders embedded in the URI
// template itself).
func (t *RequestTemplate) Queries() []queryParam { return t.queries }

// SetBody sets a literal, already-encoded body.
func (t *RequestTemplate) SetBody(data []byte, charset string) {
	t.Body = data
	t.BodyCharset = charset
	t.bodyTemplateRaw = ""
	t.bodyTmpl = nil
}

// SetBodyTemplate compiles raw as a body placeholder template, switching
// Body from literal to template per the dialect rule ("presence of any {
// switches Body from literal to template").
func (t *RequestTemplate) SetBodyTemplate(raw string) error {
	tmpl, err := uritemplate.New(raw)
	if err != nil {
		return fmt.Errorf("httpbind: invalid body template %q: %w", raw, err)
	}
	t.bodyTemplateRaw = raw
	t.bodyTmpl = tmpl
	t.Body = nil
	return nil
}

// HasBodyTemplate reports whether a body template (as opposed to a literal
// body or no body at all) was configured.
func (t *RequestTemplate) HasBodyTemplate() bool { return t.bodyTmpl != nil }

// ResolvedURL returns the fully expanded URL set by the most recent Freeze.
// MethodHandler freezes once before running RequestInterceptors, so they
// see it, and again afterwards to pick up their changes.
func (t *RequestTemplate) ResolvedURL() string { return t.resolvedURL }

// Clone returns a deep-enough copy for single-invocation use: compiled
// *uritemplate.Template values are immutable and safely shared, but the
// mutable header/query/body state is copied.
func (t *RequestTemplate) Clone() *RequestTemplate {
	clone := &RequestTemplate{
		Method:           t.Method,
		rawURI:           t.rawURI,
		uriTmpl:          t.uriTmpl,
		Headers:          t.Headers.Clone(),
		headerTmpls:      make(map[string]*uritemplate.Template, len(t.headerTmpls)),
		bodyTemplateRaw:  t.bodyTemplateRaw,
		bodyTmpl:         t.bodyTmpl,
		DecodeSlash:      t.DecodeSlash,
		CollectionFormat: t.CollectionFormat,
		Metadata:         t.Metadata,
		Target:           t.Target,
	}
	if t.Body != nil {
		clone.Body = append([]byte(nil), t.Body...)
	}
	clone.BodyCharset = t.BodyCharset
	for k, v := range t.headerTmpls {
		clone.headerTmpls[k] = v
	}
	clone.queries = make([]queryParam, len(t.queries))
	for i, q := range t.queries {
		clone.queries[i] = queryParam{name: q.name, values: append([]string(nil), q.values...)}
	}
	return clone
}

// expandURI expands the compiled URI template with values and appends any
// accumulated Queries(), returning the final URL. base, when non-empty and
// the expanded URI is not already absolute, is prefixed.
func (t *RequestTemplate) expandURI(values uritemplate.Values, base string) (string, error) {
	expanded := ""
	if t.uriTmpl != nil {
		var err error
		expanded, err = t.uriTmpl.Expand(values)
		if err != nil {
			return "", &BindingError{Reason: "failed to expand URI template", Cause: err}
		}
	}
	full := expanded
	if base != "" && !strings.HasPrefix(expanded, "http://") && !strings.HasPrefix(expanded, "https://") {
		if expanded != "" && !strings.HasPrefix(expanded, "/") && !strings.HasPrefix(expanded, "?") {
			expanded = "/" + expanded
		}
		full = base + expanded
	}
	if strings.Contains(full, "{") || strings.Contains(full, "}") {
		return "", &BindingError{Reason: fmt.Sprintf("unresolved placeholder remains in URI %q", full)}
	}
	if len(t.queries) == 0 {
		return full, nil
	}
	parsed, err := url.Parse(full)
	if err != nil {
		return "", &BindingError{Reason: "invalid resolved URL", Cause: err}
	}
	q := parsed.Query()
	for _, qp := range t.queries {
		for _, v := range qp.values {
			q.Add(qp.name, v)
		}
	}
	parsed.RawQuery = q.Encode()
	return parsed.String(), nil
}

func (t *RequestTemplate) expandHeaders(values uritemplate.Values) error {
	for name, tmpl := range t.headerTmpls {
		v, err := tmpl.Expand(values)
		if err != nil {
			return &BindingError{Reason: fmt.Sprintf("failed to expand header %q", name), Cause: err}
		}
		if strings.Contains(v, "{") {
			return &BindingError{Reason: fmt.Sprintf("unresolved placeholder remains in header %q", name)}
		}
		t.Headers.Set(name, v)
	}
	return nil
}

func (t *RequestTemplate) expandBody(values uritemplate.Values) error {
	if t.bodyTmpl == nil {
		return nil
	}
	v, err := t.bodyTmpl.Expand(values)
	if err != nil {
		return &BindingError{Reason: "failed to expand body template", Cause: err}
	}
	if strings.Contains(v, "{") {
		return &BindingError{Reason: "unresolved placeholder remains in body template"}
	}
	t.Body = []byte(v)
	return nil
}

// Freeze produces the immutable Request snapshot fed to the Transport.
// base is the URLIndex argument when one was bound (an absolute override);
// otherwise pass the Target's base URL.
func (t *RequestTemplate) Freeze(target *Target, metadata *MethodMetadata, base string, values uritemplate.Values) (*Request, error) {
	finalURL, err := t.expandURI(values, base)
	if err != nil {
		return nil, err
	}
	if err := t.expandHeaders(values); err != nil {
		return nil, err
	}
	if err := t.expandBody(values); err != nil {
		return nil, err
	}
	t.resolvedURL = finalURL
	return &Request{
		Method:   t.Method,
		URL:      finalURL,
		Header:   t.Headers.Clone(),
		Body:     append([]byte(nil), t.Body...),
		Template: t,
	}, nil
}

// Request is the frozen, post-interceptor snapshot fed to the Transport.
type Request struct {
	Method   string
	URL      string
	Header   http.Header
	Body     []byte
	Template *RequestTemplate
}

// Response is the result of a Transport call: status, reason, headers, a
// request handle, and a body read fully into memory (bodies are whole
// values, not streams, in this core).
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
	Request    *Request
}

// IsSuccess reports whether StatusCode is in the 2xx range.
func (r *Response) IsSuccess() bool { return r.StatusCode >= 200 && r.StatusCode < 300 }
