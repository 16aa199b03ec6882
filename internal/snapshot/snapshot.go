// Package snapshot defines the pluggable portal-snapshot provider contract.
// How the portal page is acquired (plain HTTP, headless browser) is an
// implementation detail behind the Provider interface; the check pipeline
// only sees ID sets.
package snapshot

import (
	"context"
	"fmt"

	"UploadWatcher/internal/domain"
)

// Request carries all parameters required to capture a portal snapshot.
type Request struct {
	URL           string
	ArticleHeader string
	ActionHeader  string
	QAPendingText string
}

// Provider captures the portal work queue with one acquisition strategy.
type Provider interface {
	Name() string
	Snapshot(ctx context.Context, req Request) (domain.PortalSnapshot, error)
}

// Registry keeps a mapping from provider names to their implementations.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: map[string]Provider{}}
}

// Register adds or replaces a provider implementation.
func (r *Registry) Register(provider Provider) {
	if r.providers == nil {
		r.providers = map[string]Provider{}
	}
	r.providers[provider.Name()] = provider
}

// Resolve returns a provider by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Provider, error) {
	if provider, ok := r.providers[name]; ok {
		return provider, nil
	}
	return nil, fmt.Errorf("snapshot provider %s is not registered", name)
}
