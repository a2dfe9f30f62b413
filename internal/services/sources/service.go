package sources

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/voxnote/snippets-api/internal/models"
	"github.com/voxnote/snippets-api/pkg/timeparse"
)

type service struct {
	repo Repository
}

// NewService creates a new source service
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// FindOrCreate canonicalizes the URL and returns the matching source,
// inserting it on first reference. A lost creation race resolves by
// re-reading the winner's row rather than failing.
func (s *service) FindOrCreate(ctx context.Context, rawURL string, provider models.SourceProvider) (*models.Source, error) {
	canonical := timeparse.Canonicalize(rawURL)

	existing, err := s.repo.GetByURL(ctx, canonical)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrSourceNotFound) {
		return nil, err
	}

	source := &models.Source{
		URL:      canonical,
		Provider: provider,
	}
	if err := s.repo.CreateSource(ctx, source); err != nil {
		// Unique constraint on URL: another caller created it first
		winner, getErr := s.repo.GetByURL(ctx, canonical)
		if getErr == nil {
			return winner, nil
		}
		return nil, fmt.Errorf("creating source: %w", err)
	}

	log.Printf("[DEBUG] Created source %d (%s, provider %s)", source.ID, canonical, provider)
	return source, nil
}

func (s *service) EnsureMetadata(ctx context.Context, id uint, title, thumbURL string) error {
	source, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if source.HasMetadata() {
		return nil
	}
	return s.repo.UpdateMetadata(ctx, id, title, thumbURL)
}

func (s *service) GetByID(ctx context.Context, id uint) (*models.Source, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListForUser(ctx context.Context, userID uint) ([]models.Source, error) {
	return s.repo.ListForUser(ctx, userID)
}

func (s *service) Delete(ctx context.Context, id uint) error {
	return s.repo.DeleteSource(ctx, id)
}
