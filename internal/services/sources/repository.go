package sources

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/voxnote/snippets-api/internal/models"
)

// ErrSourceNotFound is returned when no source matches the lookup
var ErrSourceNotFound = errors.New("source not found")

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new source repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateSource(ctx context.Context, source *models.Source) error {
	return r.db.WithContext(ctx).Create(source).Error
}

func (r *repository) GetByID(ctx context.Context, id uint) (*models.Source, error) {
	var source models.Source
	if err := r.db.WithContext(ctx).First(&source, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSourceNotFound
		}
		return nil, fmt.Errorf("getting source: %w", err)
	}
	return &source, nil
}

func (r *repository) GetByURL(ctx context.Context, canonicalURL string) (*models.Source, error) {
	var source models.Source
	err := r.db.WithContext(ctx).
		Where("url = ?", canonicalURL).
		First(&source).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSourceNotFound
		}
		return nil, fmt.Errorf("getting source by url: %w", err)
	}
	return &source, nil
}

// ListForUser returns sources having at least one completed snippet for the
// user, most recently clipped first, with the user's completed snippets
// preloaded in start-time order.
func (r *repository) ListForUser(ctx context.Context, userID uint) ([]models.Source, error) {
	var sources []models.Source
	err := r.db.WithContext(ctx).
		Joins("JOIN snippets ON snippets.source_id = sources.id").
		Where("snippets.user_id = ? AND snippets.status = ? AND snippets.deleted_at IS NULL",
			userID, models.SnippetStatusDone).
		Group("sources.id").
		Order("MAX(snippets.created_at) DESC").
		Preload("Snippets", func(db *gorm.DB) *gorm.DB {
			return db.Where("user_id = ? AND status = ?", userID, models.SnippetStatusDone).
				Order("start_time ASC")
		}).
		Find(&sources).Error
	if err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}
	return sources, nil
}

func (r *repository) UpdateMetadata(ctx context.Context, id uint, title, thumbURL string) error {
	updates := map[string]interface{}{}
	if title != "" {
		updates["title"] = title
	}
	if thumbURL != "" {
		updates["thumb_url"] = thumbURL
	}
	if len(updates) == 0 {
		return nil
	}

	result := r.db.WithContext(ctx).
		Model(&models.Source{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("updating source metadata: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrSourceNotFound
	}
	return nil
}

// DeleteSource removes the source and its snippets.
func (r *repository) DeleteSource(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("source_id = ?", id).Delete(&models.Snippet{}).Error; err != nil {
			return fmt.Errorf("deleting source snippets: %w", err)
		}
		result := tx.Delete(&models.Source{}, id)
		if result.Error != nil {
			return fmt.Errorf("deleting source: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrSourceNotFound
		}
		return nil
	})
}
