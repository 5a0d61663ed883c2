package jqdecode

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/declarative-http/pkg/httpbind"
)

func TestNewDecoder_RejectsInvalidExpression(t *testing.T) {
	_, err := NewDecoder("this is [ not valid", nil)
	require.Error(t, err)
}

func TestDecoder_Decode_NoInnerReturnsFilteredValue(t *testing.T) {
	d, err := NewDecoder(".users[0].name", nil)
	require.NoError(t, err)

	resp := &httpbind.Response{Body: []byte(`{"users":[{"name":"Grace"},{"name":"Ada"}]}`)}
	got, err := d.Decode(resp, nil)
	require.NoError(t, err)
	assert.Equal(t, "Grace", got)
}

func TestDecoder_Decode_InnerReceivesReMarshalledFilteredValue(t *testing.T) {
	var sawBody []byte
	inner := httpbind.DecoderFunc(func(resp *httpbind.Response, resultType reflect.Type) (any, error) {
		sawBody = resp.Body
		return "decoded", nil
	})
	d, err := NewDecoder(".user", inner)
	require.NoError(t, err)

	resp := &httpbind.Response{Body: []byte(`{"user":{"id":1,"name":"Ada"}}`)}
	got, err := d.Decode(resp, reflect.TypeOf(""))
	require.NoError(t, err)
	assert.Equal(t, "decoded", got)
	assert.JSONEq(t, `{"id":1,"name":"Ada"}`, string(sawBody))
}

func TestDecoder_Decode_RejectsOversizedBody(t *testing.T) {
	d, err := NewDecoder(".", nil)
	require.NoError(t, err)
	d.MaxBodySize = 4

	resp := &httpbind.Response{Body: []byte(`{"a":1}`)}
	_, err = d.Decode(resp, nil)
	require.Error(t, err)
}

func TestDecoder_Decode_InvalidJSONBodyIsError(t *testing.T) {
	d, err := NewDecoder(".", nil)
	require.NoError(t, err)

	_, err = d.Decode(&httpbind.Response{Body: []byte("not json")}, nil)
	require.Error(t, err)
}

func TestDecoder_Decode_ExpressionProducingNoOutputIsError(t *testing.T) {
	d, err := NewDecoder("empty", nil)
	require.NoError(t, err)

	_, err = d.Decode(&httpbind.Response{Body: []byte(`{}`)}, nil)
	require.Error(t, err)
}

func TestDecoder_Decode_RuntimeErrorFromExpressionIsWrapped(t *testing.T) {
	d, err := NewDecoder(".missing[]", nil)
	require.NoError(t, err)

	_, err = d.Decode(&httpbind.Response{Body: []byte(`{}`)}, nil)
	require.Error(t, err)
}

func TestDecoder_Decode_TinyTimeoutDoesNotPanic(t *testing.T) {
	d, err := NewDecoder(".", nil)
	require.NoError(t, err)
	d.Timeout = time.Nanosecond

	_, err = d.Decode(&httpbind.Response{Body: []byte(`{"a":1}`)}, nil)
	// either the deadline fires mid-evaluation or the filter finishes first;
	// both are acceptable, this just exercises the timeout plumbing without flaking.
	_ = err
}
