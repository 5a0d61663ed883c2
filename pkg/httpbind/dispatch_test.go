package httpbind

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatch_MethodMetadataLookup(t *testing.T) {
	dispatch, err := NewBuilder().
		WithTransport(&recordingTransport{}).
		Target(userAPIDescriptor(), "users", "https://api.example.com", nil)
	require.NoError(t, err)

	md, ok := dispatch.MethodMetadata("userAPI#Get(string)")
	require.True(t, ok)
	assert.Equal(t, "userAPI#Get(string)", md.ConfigKey)

	_, ok = dispatch.MethodMetadata("no.such#Method()")
	assert.False(t, ok)
}

func TestDispatch_StringIdentifiesTarget(t *testing.T) {
	dispatch, err := NewBuilder().
		WithTransport(&recordingTransport{}).
		Target(userAPIDescriptor(), "users", "https://api.example.com", nil)
	require.NoError(t, err)

	assert.Equal(t, "users(https://api.example.com)", dispatch.String())
	assert.Equal(t, "users(https://api.example.com)", dispatch.Target().String())
}

func TestDispatch_InvokeOnIgnoredMethodFails(t *testing.T) {
	desc := userAPIDescriptor()
	desc.Methods[0].Ignored = true

	dispatch, err := NewBuilder().
		WithTransport(&recordingTransport{}).
		Target(desc, "users", "https://api.example.com", nil)
	require.NoError(t, err)

	_, err = dispatch.Invoke(context.Background(), "userAPI#Get(string)", "1")
	require.Error(t, err)
	var cfgErr *ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}
