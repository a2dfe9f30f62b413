// Package providers resolves source URLs into local audio files. Each
// provider knows how one hosting service serves its audio and metadata;
// the registry hands the pipeline the right adapter for a source.
package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/voxnote/snippets-api/internal/models"
)

var (
	// ErrUnsupportedProvider is returned for providers with no adapter
	ErrUnsupportedProvider = errors.New("unsupported provider")
	// ErrNoDownloadLink is returned when a page yields no audio URL
	ErrNoDownloadLink = errors.New("no download link found")
)

// ResolveRequest describes one resolution job
type ResolveRequest struct {
	// URL is the canonical source URL, without time markers
	URL string
	// WorkDir is a per-job scratch directory the adapter may write to
	WorkDir string
	// UserID identifies the requesting user, for providers that need
	// per-user credentials
	UserID uint
}

// Resolution is the outcome of a successful resolve: a playable audio
// file on disk plus whatever display metadata the provider exposes.
type Resolution struct {
	AudioPath    string
	Title        string
	ThumbnailURL string
}

// Adapter fetches the full audio for a source URL
type Adapter interface {
	Resolve(ctx context.Context, req ResolveRequest) (*Resolution, error)
}

// Registry maps providers to their adapters
type Registry struct {
	adapters map[models.SourceProvider]Adapter
}

// NewRegistry builds a registry from explicit bindings
func NewRegistry(adapters map[models.SourceProvider]Adapter) *Registry {
	return &Registry{adapters: adapters}
}

// For returns the adapter for a provider
func (r *Registry) For(provider models.SourceProvider) (Adapter, error) {
	adapter, ok := r.adapters[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, provider)
	}
	return adapter, nil
}
