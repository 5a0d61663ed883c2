package httpbind

import (
	"fmt"
	"reflect"
	"strings"
)

// Target identifies a bound remote API: an interface description paired
// with a base URL and a symbolic name. Targets are immutable after
// construction and safe for concurrent use.
type Target struct {
	iface   reflect.Type
	name    string
	baseURL string
	options *CallOptions
}

// NewTarget validates iface is an interface type and returns a Target with
// the given symbolic name and base URL. A nil options argument installs an
// empty default CallOptions.
func NewTarget(iface reflect.Type, name, baseURL string, options *CallOptions) (*Target, error) {
	if iface == nil || iface.Kind() != reflect.Interface {
		return nil, &ConfigurationError{Reason: "target interface must be a non-nil interface type"}
	}
	if name == "" {
		return nil, &ConfigurationError{Reason: "target name must not be empty"}
	}
	if baseURL == "" {
		return nil, &ConfigurationError{Reason: "target base URL must not be empty"}
	}
	if options == nil {
		options = &CallOptions{Metadata: map[string]any{}}
	}
	return &Target{
		iface:   iface,
		name:    name,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		options: options,
	}, nil
}

// Interface returns the interface type this Target describes.
func (t *Target) Interface() reflect.Type { return t.iface }

// Name returns the Target's symbolic name.
func (t *Target) Name() string { return t.name }

// BaseURL returns the Target's base URL, with any trailing slash trimmed.
func (t *Target) BaseURL() string { return t.baseURL }

// Options returns the Target's default CallOptions.
func (t *Target) Options() *CallOptions { return t.options }

// URL joins path onto the Target's base URL. path is expected to begin
// with "/"; a missing leading slash is tolerated and corrected.
func (t *Target) URL(path string) string {
	if path == "" {
		return t.baseURL
	}
	if !strings.HasPrefix(path, "/") && !strings.HasPrefix(path, "?") {
		path = "/" + path
	}
	return t.baseURL + path
}

// String implements the interface-identity "toString" operation described
// in the binding pipeline's special-cased identity operations.
func (t *Target) String() string {
	return fmt.Sprintf("%s(%s)", t.name, t.baseURL)
}
