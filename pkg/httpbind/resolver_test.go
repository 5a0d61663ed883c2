package httpbind

import (
	"net/url"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTarget(t *testing.T, baseURL string) *Target {
	target, err := NewTarget(reflect.TypeOf((*userAPI)(nil)).Elem(), "svc", baseURL, nil)
	require.NoError(t, err)
	return target
}

func TestResolver_CollectionFormatsJoinSliceArguments(t *testing.T) {
	tests := []struct {
		name   string
		format CollectionFormat
		want   string
	}{
		{"csv", CSV, "a,b,c"},
		{"ssv", SSV, "a b c"},
		{"tsv", TSV, "a\tb\tc"},
		{"pipes", PIPES, "a|b|c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md := newMethodMetadata()
			md.ConfigKey = "svc#op(string)"
			md.Template = NewRequestTemplate()
			md.Template.Method = "GET"
			require.NoError(t, md.Template.SetURI("/items{?tags}"))
			md.IndexToName[0] = "tags"
			md.IndexToExpander[0] = DefaultExpander
			md.IndexToFormat[0] = tt.format

			r := NewRequestTemplateFactoryResolver(nil)
			target := newTestTarget(t, "https://api.example.com")
			tmpl, values, base, _, err := r.Resolve(target, md, []any{[]string{"a", "b", "c"}})
			require.NoError(t, err)
			req, err := tmpl.Freeze(target, md, base, values)
			require.NoError(t, err)
			parsed, err := url.Parse(req.URL)
			require.NoError(t, err)
			assert.Equal(t, tt.want, parsed.Query().Get("tags"))
		})
	}
}

func TestResolver_MultiFormatRepeatsQueryParam(t *testing.T) {
	md := newMethodMetadata()
	md.ConfigKey = "svc#op(string)"
	md.Template = NewRequestTemplate()
	md.Template.Method = "GET"
	require.NoError(t, md.Template.SetURI("/items{?tags*}"))
	md.IndexToName[0] = "tags"
	md.IndexToExpander[0] = DefaultExpander
	md.IndexToFormat[0] = Multi
	md.MultiQueryParams[0] = "tags"

	r := NewRequestTemplateFactoryResolver(nil)
	target := newTestTarget(t, "https://api.example.com")
	tmpl, values, base, _, err := r.Resolve(target, md, []any{[]string{"a", "b"}})
	require.NoError(t, err)
	req, err := tmpl.Freeze(target, md, base, values)
	require.NoError(t, err)
	parsed, err := url.Parse(req.URL)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, parsed.Query()["tags"])
}

// TestResolver_HeaderParamSetsLiteralHeader is the regression test for a
// ParamHeader binding: the argument must land on the frozen Request's
// header with the bound name, not be dropped because no URI/header
// template placeholder happens to share that name.
func TestResolver_HeaderParamSetsLiteralHeader(t *testing.T) {
	md := newMethodMetadata()
	md.ConfigKey = "svc#op(string)"
	md.Template = NewRequestTemplate()
	md.Template.Method = "GET"
	require.NoError(t, md.Template.SetURI("/items"))
	md.IndexToName[0] = "X-Request-Id"
	md.IndexToKind[0] = ParamHeader
	md.IndexToExpander[0] = DefaultExpander

	r := NewRequestTemplateFactoryResolver(nil)
	target := newTestTarget(t, "https://api.example.com")
	tmpl, values, base, _, err := r.Resolve(target, md, []any{"req-42"})
	require.NoError(t, err)
	req, err := tmpl.Freeze(target, md, base, values)
	require.NoError(t, err)
	assert.Equal(t, "req-42", req.Header.Get("X-Request-Id"))
}

func TestResolver_HeaderMapArgumentMergesIntoHeaders(t *testing.T) {
	md := newMethodMetadata()
	md.ConfigKey = "svc#op(map)"
	md.Template = NewRequestTemplate()
	md.Template.Method = "GET"
	require.NoError(t, md.Template.SetURI("/items"))
	md.HeaderMapIndex = 0

	r := NewRequestTemplateFactoryResolver(nil)
	target := newTestTarget(t, "https://api.example.com")
	tmpl, values, base, _, err := r.Resolve(target, md, []any{map[string]string{"X-Trace": "abc"}})
	require.NoError(t, err)
	req, err := tmpl.Freeze(target, md, base, values)
	require.NoError(t, err)
	assert.Equal(t, "abc", req.Header.Get("X-Trace"))
}

func TestResolver_QueryMapArgumentMergesIntoQuery(t *testing.T) {
	md := newMethodMetadata()
	md.ConfigKey = "svc#op(map)"
	md.Template = NewRequestTemplate()
	md.Template.Method = "GET"
	require.NoError(t, md.Template.SetURI("/items"))
	md.QueryMapIndex = 0

	r := NewRequestTemplateFactoryResolver(nil)
	target := newTestTarget(t, "https://api.example.com")
	tmpl, values, base, _, err := r.Resolve(target, md, []any{map[string]string{"active": "true"}})
	require.NoError(t, err)
	req, err := tmpl.Freeze(target, md, base, values)
	require.NoError(t, err)
	assert.Contains(t, req.URL, "active=true")
}

func TestResolver_URLOverrideReplacesBaseURL(t *testing.T) {
	md := newMethodMetadata()
	md.ConfigKey = "svc#op(string)"
	md.Template = NewRequestTemplate()
	md.Template.Method = "GET"
	require.NoError(t, md.Template.SetURI("/items"))
	md.URLIndex = 0

	r := NewRequestTemplateFactoryResolver(nil)
	target := newTestTarget(t, "https://api.example.com")
	tmpl, values, base, _, err := r.Resolve(target, md, []any{"https://override.example.com"})
	require.NoError(t, err)
	req, err := tmpl.Freeze(target, md, base, values)
	require.NoError(t, err)
	assert.Equal(t, "https://override.example.com/items", req.URL)
}

func TestResolver_OptionsOverrideReplacesDefault(t *testing.T) {
	md := newMethodMetadata()
	md.ConfigKey = "svc#op(*CallOptions)"
	md.Template = NewRequestTemplate()
	md.Template.Method = "GET"
	require.NoError(t, md.Template.SetURI("/items"))
	md.OptionsIndex = 0

	r := NewRequestTemplateFactoryResolver(nil)
	override := &CallOptions{Timeout: 5 * time.Second, Metadata: map[string]any{}}
	_, _, _, opts, err := r.Resolve(newTestTarget(t, "https://api.example.com"), md, []any{override})
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, opts.Timeout)
}

func TestResolver_NilArgumentSkipsSlot(t *testing.T) {
	md := newMethodMetadata()
	md.ConfigKey = "svc#op(*string)"
	md.Template = NewRequestTemplate()
	md.Template.Method = "GET"
	require.NoError(t, md.Template.SetURI("/items{?filter}"))
	md.IndexToName[0] = "filter"
	md.IndexToExpander[0] = DefaultExpander

	r := NewRequestTemplateFactoryResolver(nil)
	target := newTestTarget(t, "https://api.example.com")
	var nilPtr *string
	tmpl, values, base, _, err := r.Resolve(target, md, []any{nilPtr})
	require.NoError(t, err)
	req, err := tmpl.Freeze(target, md, base, values)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/items", req.URL)
}

func TestResolver_BodyWithoutEncoderIsConfigurationError(t *testing.T) {
	md := newMethodMetadata()
	md.ConfigKey = "svc#op(user)"
	md.Template = NewRequestTemplate()
	md.Template.Method = "POST"
	require.NoError(t, md.Template.SetURI("/items"))
	md.BodyIndex = 0

	r := NewRequestTemplateFactoryResolver(nil)
	_, _, _, _, err := r.Resolve(newTestTarget(t, "https://api.example.com"), md, []any{user{Name: "Ada"}})
	require.Error(t, err)
	var cfgErr *ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}
