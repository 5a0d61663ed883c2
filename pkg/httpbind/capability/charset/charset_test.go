package charset

import (
	"net/http"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/declarative-http/pkg/httpbind"
)

func capturingInner() (httpbind.Decoder, *[]byte) {
	var got []byte
	return httpbind.DecoderFunc(func(resp *httpbind.Response, resultType reflect.Type) (any, error) {
		got = resp.Body
		return string(resp.Body), nil
	}), &got
}

func TestDecoder_Decode_TranscodesDeclaredCharsetToUTF8(t *testing.T) {
	inner, got := capturingInner()
	d := &Decoder{Inner: inner}

	header := http.Header{}
	header.Set("Content-Type", "text/plain; charset=iso-8859-1")
	resp := &httpbind.Response{Header: header, Body: []byte{'c', 'a', 'f', 0xE9}}

	result, err := d.Decode(resp, nil)
	require.NoError(t, err)
	assert.Equal(t, "café", result)
	assert.Equal(t, []byte("café"), *got)
}

func TestDecoder_Decode_UTF8ContentTypePassesThroughUnchanged(t *testing.T) {
	inner, got := capturingInner()
	d := &Decoder{Inner: inner}

	header := http.Header{}
	header.Set("Content-Type", "application/json; charset=utf-8")
	body := []byte(`{"name":"café"}`)
	resp := &httpbind.Response{Header: header, Body: body}

	_, err := d.Decode(resp, nil)
	require.NoError(t, err)
	assert.Equal(t, body, *got)
}

func TestDecoder_Decode_NoContentTypeFallsBackToDefault(t *testing.T) {
	inner, got := capturingInner()
	d := &Decoder{Inner: inner, Default: "iso-8859-1"}

	resp := &httpbind.Response{Header: http.Header{}, Body: []byte{'c', 'a', 'f', 0xE9}}

	_, err := d.Decode(resp, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("café"), *got)
}

func TestDecoder_Decode_UnrecognizedCharsetIsError(t *testing.T) {
	inner, _ := capturingInner()
	d := &Decoder{Inner: inner}

	header := http.Header{}
	header.Set("Content-Type", "text/plain; charset=not-a-real-charset")
	resp := &httpbind.Response{Header: header, Body: []byte("x")}

	_, err := d.Decode(resp, nil)
	require.Error(t, err)
}
