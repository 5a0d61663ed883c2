package cache

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/declarative-http/pkg/httpbind"
)

func newCountingTransport(status int, body string) (httpbind.Transport, *int) {
	calls := 0
	return httpbind.TransportFunc(func(ctx context.Context, req *httpbind.Request, opts *httpbind.CallOptions) (*httpbind.Response, error) {
		calls++
		return &httpbind.Response{StatusCode: status, Status: "OK", Body: []byte(body)}, nil
	}), &calls
}

func openStore(t *testing.T, ttl time.Duration) *Store {
	path := filepath.Join(t.TempDir(), "cache.sqlite")
	s, err := Open(path, ttl)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCapability_CachesSuccessfulGETAcrossCalls(t *testing.T) {
	s := openStore(t, time.Hour)
	inner, calls := newCountingTransport(200, "hello")
	comps := &httpbind.Components{Transport: inner}
	require.NoError(t, s.Capability().Apply(comps))

	req := &httpbind.Request{Method: http.MethodGet, URL: "https://api.example.com/users/1"}

	first, err := comps.Transport.Execute(context.Background(), req, nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(first.Body))
	assert.Equal(t, 1, *calls)

	second, err := comps.Transport.Execute(context.Background(), req, nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(second.Body))
	assert.Equal(t, 1, *calls, "second GET served from cache, inner transport not called again")
}

func TestCapability_NeverCachesNonGET(t *testing.T) {
	s := openStore(t, time.Hour)
	inner, calls := newCountingTransport(200, "created")
	comps := &httpbind.Components{Transport: inner}
	require.NoError(t, s.Capability().Apply(comps))

	req := &httpbind.Request{Method: http.MethodPost, URL: "https://api.example.com/users"}

	_, err := comps.Transport.Execute(context.Background(), req, nil)
	require.NoError(t, err)
	_, err = comps.Transport.Execute(context.Background(), req, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, *calls)
}

func TestCapability_DoesNotCacheErrorResponses(t *testing.T) {
	s := openStore(t, time.Hour)
	inner, calls := newCountingTransport(500, "boom")
	comps := &httpbind.Components{Transport: inner}
	require.NoError(t, s.Capability().Apply(comps))

	req := &httpbind.Request{Method: http.MethodGet, URL: "https://api.example.com/flaky"}

	_, err := comps.Transport.Execute(context.Background(), req, nil)
	require.NoError(t, err)
	_, err = comps.Transport.Execute(context.Background(), req, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, *calls, "5xx responses are never cached, so both calls reach the inner transport")
}

func TestCapability_ExpiredEntryIsRefetched(t *testing.T) {
	s := openStore(t, time.Nanosecond)
	inner, calls := newCountingTransport(200, "fresh")
	comps := &httpbind.Components{Transport: inner}
	require.NoError(t, s.Capability().Apply(comps))

	req := &httpbind.Request{Method: http.MethodGet, URL: "https://api.example.com/users/1"}

	_, err := comps.Transport.Execute(context.Background(), req, nil)
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	_, err = comps.Transport.Execute(context.Background(), req, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, *calls, "TTL expired, so the stale entry is ignored and the inner transport runs again")
}
