package proxy

import (
	"fmt"
	"net/url"
	"sort"

	"github.com/genosentinel/auth-gateway/internal/core/domain"
)

// Registry maps logical backend names to their base URLs. It is built once
// at startup and immutable afterwards.
type Registry struct {
	backends map[string]*url.URL
}

// NewRegistry parses and validates the configured backend base URLs.
func NewRegistry(backends map[string]string) (*Registry, error) {
	r := &Registry{backends: make(map[string]*url.URL, len(backends))}
	for name, raw := range backends {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("backend %q: invalid base URL %q", name, raw)
		}
		r.backends[name] = u
	}
	return r, nil
}

// Resolve returns the base URL for a logical backend name, failing closed
// on unconfigured names.
func (r *Registry) Resolve(name string) (*url.URL, error) {
	u, ok := r.backends[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownBackend, name)
	}
	return u, nil
}

// Names returns the configured backend names in stable order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
