// Package urlguard restricts which URLs a request may be sent to, matching
// each request's resolved URL against glob allow/deny lists, modeled on the reference project's
// internal/permissions path-matching (doublestar.Match over normalized
// patterns, deny-by-default when no allow list matches).
package urlguard

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/tombee/declarative-http/pkg/httpbind"
)

// Guard holds glob allow/deny patterns matched against a full URL.
// An empty Allow list means "no restriction" (every URL is allowed
// unless it matches Deny); a non-empty Allow list means "nothing is allowed
// unless it matches" - the reference project's deny-by-default rule.
type Guard struct {
	Allow []string
	Deny  []string
}

// Check reports an error if baseURL is not permitted by g.
func (g *Guard) Check(baseURL string) error {
	for _, pattern := range g.Deny {
		matched, err := doublestar.Match(pattern, baseURL)
		if err == nil && matched {
			return fmt.Errorf("urlguard: base URL %q matches deny pattern %q", baseURL, pattern)
		}
	}
	if len(g.Allow) == 0 {
		return nil
	}
	for _, pattern := range g.Allow {
		matched, err := doublestar.Match(pattern, baseURL)
		if err == nil && matched {
			return nil
		}
	}
	return fmt.Errorf("urlguard: base URL %q matches no allow pattern", baseURL)
}

// Capability appends a RequestInterceptor that checks the request's full
// resolved URL (scheme, host, path and query) against g on every call -
// covering URLIndex overrides, which bypass the Target's base URL entirely.
func (g *Guard) Capability() httpbind.Capability {
	return httpbind.CapabilityFunc(func(comps *httpbind.Components) error {
		comps.RequestInterceptors = append(comps.RequestInterceptors, httpbind.RequestInterceptorFunc(
			func(tmpl *httpbind.RequestTemplate) error {
				return g.Check(tmpl.ResolvedURL())
			},
		))
		return nil
	})
}
