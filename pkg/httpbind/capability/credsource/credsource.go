// Package credsource resolves ${VAR}-style secret placeholders from the OS
// keyring instead of the environment, modeled on the reference project's
// KeychainBackend (availability probing via a sentinel Get call).
package credsource

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/zalando/go-keyring"
)

const service = "httpbind"

var placeholder = regexp.MustCompile(`\$\{([A-Za-z0-9_]+)\}`)

// Source resolves ${VAR}-style placeholders against the system keyring.
type Source struct {
	available bool
}

// NewSource probes keyring availability once at construction time, the
// same way the reference project detects a locked or absent keychain.
func NewSource() *Source {
	s := &Source{available: true}
	_, err := keyring.Get(service, "__httpbind_availability_probe__")
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		s.available = false
	}
	return s
}

// Available reports whether the OS keyring backend could be reached.
func (s *Source) Available() bool { return s.available }

// Set stores name's value in the keyring under this package's service name.
func (s *Source) Set(name, value string) error {
	return keyring.Set(service, name, value)
}

// Resolve replaces every ${VAR} placeholder in raw with the corresponding
// keyring entry. A placeholder with no matching entry is an error.
func (s *Source) Resolve(raw string) (string, error) {
	if !s.available {
		return "", fmt.Errorf("credsource: keyring backend unavailable")
	}
	var firstErr error
	resolved := placeholder.ReplaceAllStringFunc(raw, func(match string) string {
		if firstErr != nil {
			return match
		}
		name := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		value, err := keyring.Get(service, name)
		if err != nil {
			firstErr = fmt.Errorf("credsource: resolving %q: %w", name, err)
			return match
		}
		return value
	})
	if firstErr != nil {
		return "", firstErr
	}
	return resolved, nil
}
