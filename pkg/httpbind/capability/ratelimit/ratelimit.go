// Package ratelimit throttles outgoing calls with a token-bucket limiter,
// modeled on the RateLimiter hook the reference project's AWS SigV4
// transport exposes via SetRateLimiter.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/tombee/declarative-http/pkg/httpbind"
)

// Capability wraps Components.Transport so every call blocks on lim.Wait
// before reaching the wrapped Transport. A request whose context is
// cancelled while waiting returns a *httpbind.TransportIOError wrapping the
// wait error, without ever reaching the network.
func Capability(lim *rate.Limiter) httpbind.Capability {
	return httpbind.CapabilityFunc(func(comps *httpbind.Components) error {
		inner := comps.Transport
		comps.Transport = httpbind.TransportFunc(func(ctx context.Context, req *httpbind.Request, opts *httpbind.CallOptions) (*httpbind.Response, error) {
			if err := lim.Wait(ctx); err != nil {
				return nil, &httpbind.TransportIOError{ConfigKey: configKeyOf(req), Cause: err}
			}
			return inner.Execute(ctx, req, opts)
		})
		return nil
	})
}

func configKeyOf(req *httpbind.Request) string {
	if req.Template != nil && req.Template.Metadata != nil {
		return req.Template.Metadata.ConfigKey
	}
	return ""
}
