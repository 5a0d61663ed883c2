package httpbind

import (
	"reflect"
	"testing"

	uritemplate "github.com/yosida95/uritemplate/v3"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestTemplate_SetURI_RejectsInvalidTemplate(t *testing.T) {
	tmpl := NewRequestTemplate()
	err := tmpl.SetURI("/users/{id")
	require.Error(t, err)
}

func TestRequestTemplate_Varnames_CollectsURIHeaderAndBodyPlaceholders(t *testing.T) {
	tmpl := NewRequestTemplate()
	require.NoError(t, tmpl.SetURI("/users/{id}{?active}"))
	require.NoError(t, tmpl.AddHeader("X-Trace", "{traceID}"))
	require.NoError(t, tmpl.SetBodyTemplate(`{"note":"{note}"}`))

	names := tmpl.Varnames()
	assert.True(t, names["id"])
	assert.True(t, names["active"])
	assert.True(t, names["traceID"])
	assert.True(t, names["note"])
}

func TestRequestTemplate_AddHeader_LiteralVsTemplate(t *testing.T) {
	tmpl := NewRequestTemplate()
	require.NoError(t, tmpl.AddHeader("Accept", "application/json"))
	require.NoError(t, tmpl.AddHeader("X-Trace", "{traceID}"))

	assert.Equal(t, []string{"application/json"}, tmpl.Headers["Accept"])
	assert.Empty(t, tmpl.Headers["X-Trace"])

	values := uritemplate.Values{}
	values.Set("traceID", uritemplate.String("abc"))
	require.NoError(t, tmpl.expandHeaders(values))
	assert.Equal(t, "abc", tmpl.Headers.Get("X-Trace"))
}

func TestRequestTemplate_SetHeader_ReplacesExistingLiteralAndTemplate(t *testing.T) {
	tmpl := NewRequestTemplate()
	require.NoError(t, tmpl.AddHeader("X-Trace", "{traceID}"))
	require.NoError(t, tmpl.SetHeader("X-Trace", "fixed"))

	assert.Equal(t, []string{"fixed"}, tmpl.Headers["X-Trace"])
	values := uritemplate.Values{}
	require.NoError(t, tmpl.expandHeaders(values))
	assert.Equal(t, "fixed", tmpl.Headers.Get("X-Trace"))
}

func TestRequestTemplate_AddQuery_PreservesOrderAndMultiValue(t *testing.T) {
	tmpl := NewRequestTemplate()
	tmpl.AddQuery("tag", "a")
	tmpl.AddQuery("tag", "b")
	tmpl.AddQuery("active", "true")

	queries := tmpl.Queries()
	require.Len(t, queries, 2)
	assert.Equal(t, "tag", queries[0].name)
	assert.Equal(t, []string{"a", "b"}, queries[0].values)
	assert.Equal(t, "active", queries[1].name)
}

func TestRequestTemplate_SetBody_ClearsBodyTemplate(t *testing.T) {
	tmpl := NewRequestTemplate()
	require.NoError(t, tmpl.SetBodyTemplate(`{body}`))
	require.True(t, tmpl.HasBodyTemplate())

	tmpl.SetBody([]byte(`{"literal":true}`), "application/json")
	assert.False(t, tmpl.HasBodyTemplate())
	assert.Equal(t, []byte(`{"literal":true}`), tmpl.Body)
}

func TestRequestTemplate_Clone_CopiesMutableStateIndependently(t *testing.T) {
	tmpl := NewRequestTemplate()
	require.NoError(t, tmpl.SetURI("/users/{id}"))
	require.NoError(t, tmpl.AddHeader("Accept", "application/json"))
	tmpl.AddQuery("active", "true")
	tmpl.SetBody([]byte("orig"), "text/plain")

	clone := tmpl.Clone()
	clone.AddQuery("extra", "1")
	clone.Headers.Set("Accept", "text/plain")
	clone.Body = []byte("changed")

	assert.Len(t, tmpl.Queries(), 1)
	assert.Len(t, clone.Queries(), 2)
	assert.Equal(t, "application/json", tmpl.Headers.Get("Accept"))
	assert.Equal(t, "text/plain", clone.Headers.Get("Accept"))
	assert.Equal(t, []byte("orig"), tmpl.Body)
	assert.Equal(t, []byte("changed"), clone.Body)
}

func TestRequestTemplate_ExpandURI_JoinsBaseAndAppendsQueries(t *testing.T) {
	tmpl := NewRequestTemplate()
	require.NoError(t, tmpl.SetURI("/users/{id}"))
	tmpl.AddQuery("active", "true")

	values := uritemplate.Values{}
	values.Set("id", uritemplate.String("42"))
	full, err := tmpl.expandURI(values, "https://api.example.com")
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/users/42?active=true", full)
}

func TestRequestTemplate_ExpandURI_AbsoluteTemplateIgnoresBase(t *testing.T) {
	tmpl := NewRequestTemplate()
	require.NoError(t, tmpl.SetURI("https://override.example.com/users/{id}"))

	values := uritemplate.Values{}
	values.Set("id", uritemplate.String("1"))
	full, err := tmpl.expandURI(values, "https://api.example.com")
	require.NoError(t, err)
	assert.Equal(t, "https://override.example.com/users/1", full)
}

func TestRequestTemplate_ExpandURI_NoTemplateYieldsEmptyString(t *testing.T) {
	tmpl := NewRequestTemplate()

	values := uritemplate.Values{}
	full, err := tmpl.expandURI(values, "")
	require.NoError(t, err)
	assert.Equal(t, "", full)
}

func TestRequestTemplate_Freeze_PopulatesRequestAndResolvedURL(t *testing.T) {
	target, err := NewTarget(reflect.TypeOf((*userAPI)(nil)).Elem(), "svc", "https://api.example.com", nil)
	require.NoError(t, err)

	tmpl := NewRequestTemplate()
	tmpl.Method = "GET"
	require.NoError(t, tmpl.SetURI("/users/{id}"))

	values := uritemplate.Values{}
	values.Set("id", uritemplate.String("9"))
	md := newMethodMetadata()
	req, err := tmpl.Freeze(target, md, target.BaseURL(), values)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/users/9", req.URL)
	assert.Equal(t, "https://api.example.com/users/9", tmpl.ResolvedURL())
	assert.Same(t, tmpl, req.Template)
}

func TestResponse_IsSuccess(t *testing.T) {
	assert.True(t, (&Response{StatusCode: 200}).IsSuccess())
	assert.True(t, (&Response{StatusCode: 299}).IsSuccess())
	assert.False(t, (&Response{StatusCode: 300}).IsSuccess())
	assert.False(t, (&Response{StatusCode: 199}).IsSuccess())
}

