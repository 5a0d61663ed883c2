package httpbind

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type userServiceIface interface {
	Get(id string) (string, error)
	List(active bool) (string, error)
}

func userServiceDescriptor() *ContractDescriptor {
	iface := reflect.TypeOf((*userServiceIface)(nil)).Elem()
	getMethod, _ := iface.MethodByName("Get")
	listMethod, _ := iface.MethodByName("List")
	return &ContractDescriptor{
		Interface: iface,
		Headers:   map[string][]string{"Accept": {"application/json"}},
		Methods: []MethodDescriptor{
			{
				Name:     "Get",
				Func:     getMethod,
				HTTPVerb: "GET",
				Path:     "/users/{id}",
				Params: []ParamDescriptor{
					{Index: 0, Kind: ParamPath, Name: "id"},
				},
			},
			{
				Name:     "List",
				Func:     listMethod,
				HTTPVerb: "GET",
				Path:     "/users",
				Params: []ParamDescriptor{
					{Index: 0, Kind: ParamPath, Name: "active"},
				},
			},
		},
	}
}

func TestContract_Parse_BuildsConfigKeys(t *testing.T) {
	c := NewContract()
	metas, err := c.Parse(userServiceDescriptor())
	require.NoError(t, err)

	_, ok := metas["userServiceIface#Get(string)"]
	assert.True(t, ok, "expected a configKey for Get(string)")
	_, ok = metas["userServiceIface#List(bool)"]
	assert.True(t, ok, "expected a configKey for List(bool)")
}

func TestContract_Parse_MergesContractAndMethodHeaders(t *testing.T) {
	desc := userServiceDescriptor()
	desc.Methods[0].Headers = map[string][]string{"X-Trace": {"1"}}

	c := NewContract()
	metas, err := c.Parse(desc)
	require.NoError(t, err)

	md := metas["userServiceIface#Get(string)"]
	require.NotNil(t, md)
	assert.Equal(t, []string{"application/json"}, md.Template.Headers["Accept"])
	assert.Equal(t, []string{"1"}, md.Template.Headers["X-Trace"])
}

func TestContract_Parse_MissingVerbOrPath(t *testing.T) {
	c := NewContract()

	desc := userServiceDescriptor()
	desc.Methods[0].HTTPVerb = ""
	_, err := c.Parse(desc)
	require.Error(t, err)
	var cfgErr *ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)

	desc = userServiceDescriptor()
	desc.Methods[0].Path = ""
	_, err = c.Parse(desc)
	require.Error(t, err)
	assert.ErrorAs(t, err, &cfgErr)
}

func TestContract_Parse_UnboundPlaceholderRejected(t *testing.T) {
	desc := userServiceDescriptor()
	desc.Methods[0].Params = nil // {id} never bound

	c := NewContract()
	_, err := c.Parse(desc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "id")
}

func TestContract_Parse_BodyAndFormParamsMutuallyExclusive(t *testing.T) {
	desc := userServiceDescriptor()
	desc.Methods[1].Path = "/users" // no placeholders at all
	desc.Methods[1].Params = []ParamDescriptor{
		{Index: 0, Kind: ParamPath, Name: "active"}, // unreferenced -> form field
		{Index: 1, Kind: ParamBody},
	}

	c := NewContract()
	_, err := c.Parse(desc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "form")
}

func TestContract_Parse_DuplicateBodyParamRejected(t *testing.T) {
	desc := userServiceDescriptor()
	desc.Methods[1].Path = "/users"
	desc.Methods[1].Params = []ParamDescriptor{
		{Index: 0, Kind: ParamBody},
		{Index: 1, Kind: ParamBody},
	}

	c := NewContract()
	_, err := c.Parse(desc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already has a body parameter")
}

func TestContract_Parse_RejectsNonInterfaceDescriptor(t *testing.T) {
	c := NewContract()
	_, err := c.Parse(&ContractDescriptor{Interface: reflect.TypeOf(struct{}{})})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not an interface")
}

func TestContract_ParseDescriptor_UsesLiteralConfigKey(t *testing.T) {
	c := NewContract()
	md, err := c.ParseDescriptor("UserService#Get(string)", map[string][]string{"Accept": {"application/json"}}, MethodDescriptor{
		Name:     "Get",
		HTTPVerb: "GET",
		Path:     "/users/{id}",
		Params: []ParamDescriptor{
			{Index: 0, Kind: ParamPath, Name: "id"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "UserService#Get(string)", md.ConfigKey)
	assert.Equal(t, []string{"application/json"}, md.Template.Headers["Accept"])
}

// TestContract_ParseDescriptor_HeaderParamFlowsToFrozenRequest is the
// end-to-end regression test for a header-kind dialect binding: it must
// survive Contract.ParseDescriptor's validation and actually appear on the
// wire, not vanish because no URI placeholder shares its name.
func TestContract_ParseDescriptor_HeaderParamFlowsToFrozenRequest(t *testing.T) {
	c := NewContract()
	md, err := c.ParseDescriptor("svc#Get(string,string)", nil, MethodDescriptor{
		Name:     "Get",
		HTTPVerb: "GET",
		Path:     "/users/{id}",
		Params: []ParamDescriptor{
			{Index: 0, Kind: ParamPath, Name: "id"},
			{Index: 1, Kind: ParamHeader, Name: "X-Request-Id"},
		},
	})
	require.NoError(t, err)

	target, err := NewTarget(reflect.TypeOf((*userAPI)(nil)).Elem(), "svc", "https://api.example.com", nil)
	require.NoError(t, err)
	r := NewRequestTemplateFactoryResolver(nil)
	tmpl, values, base, _, err := r.Resolve(target, md, []any{"42", "req-id-9"})
	require.NoError(t, err)
	req, err := tmpl.Freeze(target, md, base, values)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/users/42", req.URL)
	assert.Equal(t, "req-id-9", req.Header.Get("X-Request-Id"))
}

func TestDetectAmbientKind(t *testing.T) {
	kind, ok := DetectAmbientKind(contextType)
	assert.True(t, ok)
	assert.Equal(t, ParamContext, kind)

	kind, ok = DetectAmbientKind(callOptionsType)
	assert.True(t, ok)
	assert.Equal(t, ParamOptions, kind)

	_, ok = DetectAmbientKind(reflect.TypeOf(""))
	assert.False(t, ok)
}
