package sources

import (
	"context"

	"github.com/voxnote/snippets-api/internal/models"
)

// Repository defines the data access interface for sources
type Repository interface {
	CreateSource(ctx context.Context, source *models.Source) error
	GetByID(ctx context.Context, id uint) (*models.Source, error)
	GetByURL(ctx context.Context, canonicalURL string) (*models.Source, error)
	ListForUser(ctx context.Context, userID uint) ([]models.Source, error)
	UpdateMetadata(ctx context.Context, id uint, title, thumbURL string) error
	DeleteSource(ctx context.Context, id uint) error
}

// Service defines the business logic interface for source operations
type Service interface {
	// FindOrCreate resolves a raw URL to its canonical source row, creating
	// it with the given provider tag on first reference. Exactly one row
	// exists per canonical URL regardless of concurrent callers.
	FindOrCreate(ctx context.Context, rawURL string, provider models.SourceProvider) (*models.Source, error)

	// EnsureMetadata fills in title/thumbnail if the source does not have
	// them yet. The provider tag is never touched.
	EnsureMetadata(ctx context.Context, id uint, title, thumbURL string) error

	GetByID(ctx context.Context, id uint) (*models.Source, error)
	ListForUser(ctx context.Context, userID uint) ([]models.Source, error)
	Delete(ctx context.Context, id uint) error
}
