// Package oauth2 attaches an OAuth2 client-credentials bearer token to
// outgoing requests, refreshing it via the token endpoint as needed.
// Modeled on the reference project's OAuth2Transport, but implemented as a
// RequestInterceptor rather than a transport replacement.
package oauth2

import (
	"context"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/tombee/declarative-http/pkg/httpbind"
)

// Config configures the client-credentials flow. ClientSecret is expected
// to already be resolved (e.g. via a credsource.Source) before Config is
// built - this package never reads environment variables itself.
type Config struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	Scopes       []string
}

// Capability returns a Capability that appends a RequestInterceptor
// attaching "Authorization: Bearer <token>" to every request, fetching and
// caching the token via cfg's client-credentials flow and refreshing it
// automatically when it expires (oauth2.TokenSource handles the caching).
func Capability(ctx context.Context, cfg Config) httpbind.Capability {
	ccCfg := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		Scopes:       cfg.Scopes,
	}
	source := ccCfg.TokenSource(ctx)

	return httpbind.CapabilityFunc(func(comps *httpbind.Components) error {
		comps.RequestInterceptors = append(comps.RequestInterceptors, httpbind.RequestInterceptorFunc(
			func(tmpl *httpbind.RequestTemplate) error {
				tok, err := source.Token()
				if err != nil {
					return &httpbind.ConfigurationError{Reason: "oauth2: fetching token: " + err.Error()}
				}
				return tmpl.SetHeader("Authorization", "Bearer "+tok.AccessToken)
			},
		))
		return nil
	})
}
