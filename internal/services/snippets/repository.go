package snippets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/voxnote/snippets-api/internal/models"
)

var (
	// ErrSnippetNotFound is returned when a snippet cannot be found
	ErrSnippetNotFound = errors.New("snippet not found")
	// ErrNoneAvailable is returned when no queued snippet can be claimed,
	// either because the queue is empty or the in-flight limit is reached
	ErrNoneAvailable = errors.New("no snippets available")
	// ErrInvalidTransition is returned when a status change would move
	// backwards or out of a terminal state
	ErrInvalidTransition = errors.New("invalid status transition")
)

// SnippetRepository implements Repository using GORM
type SnippetRepository struct {
	db *gorm.DB
}

// NewRepository creates a new snippet repository
func NewRepository(db *gorm.DB) *SnippetRepository {
	return &SnippetRepository{db: db}
}

func (r *SnippetRepository) CreateSnippet(ctx context.Context, snippet *models.Snippet) error {
	if err := r.db.WithContext(ctx).Create(snippet).Error; err != nil {
		return fmt.Errorf("failed to create snippet: %w", err)
	}
	return nil
}

func (r *SnippetRepository) GetByID(ctx context.Context, id uint) (*models.Snippet, error) {
	var snippet models.Snippet
	err := r.db.WithContext(ctx).Preload("Source").First(&snippet, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSnippetNotFound
		}
		return nil, fmt.Errorf("failed to get snippet: %w", err)
	}
	return &snippet, nil
}

// FindDuplicate looks up an existing snippet with the same identity tuple.
func (r *SnippetRepository) FindDuplicate(ctx context.Context, userID, sourceID uint, start, end int) (*models.Snippet, error) {
	var snippet models.Snippet
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND source_id = ? AND start_time = ? AND end_time = ?", userID, sourceID, start, end).
		First(&snippet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSnippetNotFound
		}
		return nil, fmt.Errorf("failed to find duplicate snippet: %w", err)
	}
	return &snippet, nil
}

// ClaimNextQueued atomically claims the oldest queued snippet, respecting the
// in-flight limit. Counting and claiming happen in one transaction so two
// pollers cannot both slip past the gate.
func (r *SnippetRepository) ClaimNextQueued(ctx context.Context, maxInFlight int) (*models.Snippet, error) {
	var claimed *models.Snippet

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inFlight int64
		if err := tx.Model(&models.Snippet{}).
			Where("status IN ?", models.InFlightStatuses).
			Count(&inFlight).Error; err != nil {
			return fmt.Errorf("failed to count in-flight snippets: %w", err)
		}
		if inFlight >= int64(maxInFlight) {
			return ErrNoneAvailable
		}

		var snippet models.Snippet
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("status = ?", models.SnippetStatusQueued).
			Order("created_at ASC, id ASC").
			First(&snippet).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNoneAvailable
			}
			return fmt.Errorf("failed to find queued snippet: %w", err)
		}

		result := tx.Model(&models.Snippet{}).
			Where("id = ? AND status = ?", snippet.ID, models.SnippetStatusQueued).
			Update("status", models.SnippetStatusProcessing)
		if result.Error != nil {
			return fmt.Errorf("failed to claim snippet: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNoneAvailable
		}

		snippet.Status = models.SnippetStatusProcessing
		claimed = &snippet
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// UpdateStatus moves a snippet along the pipeline. Transitions only move
// forward; anything else returns ErrInvalidTransition.
func (r *SnippetRepository) UpdateStatus(ctx context.Context, id uint, status models.SnippetStatus) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var snippet models.Snippet
		if err := tx.Select("id", "status").First(&snippet, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSnippetNotFound
			}
			return fmt.Errorf("failed to get snippet: %w", err)
		}
		if !snippet.Status.CanTransition(status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, snippet.Status, status)
		}
		if err := tx.Model(&models.Snippet{}).Where("id = ?", id).
			Update("status", status).Error; err != nil {
			return fmt.Errorf("failed to update status: %w", err)
		}
		return nil
	})
}

// SetText stores the transcript and marks the snippet done in one update.
func (r *SnippetRepository) SetText(ctx context.Context, id uint, text string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var snippet models.Snippet
		if err := tx.Select("id", "status").First(&snippet, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSnippetNotFound
			}
			return fmt.Errorf("failed to get snippet: %w", err)
		}
		if !snippet.Status.CanTransition(models.SnippetStatusDone) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, snippet.Status, models.SnippetStatusDone)
		}
		if err := tx.Model(&models.Snippet{}).Where("id = ?", id).
			Updates(map[string]interface{}{
				"status": models.SnippetStatusDone,
				"text":   text,
			}).Error; err != nil {
			return fmt.Errorf("failed to store transcript: %w", err)
		}
		return nil
	})
}

// Fail marks a snippet failed, recording which stage broke and why.
func (r *SnippetRepository) Fail(ctx context.Context, id uint, stage models.PipelineStage, reason string) error {
	result := r.db.WithContext(ctx).Model(&models.Snippet{}).
		Where("id = ? AND status NOT IN ?", id, []models.SnippetStatus{models.SnippetStatusDone, models.SnippetStatusFailed}).
		Updates(map[string]interface{}{
			"status":         models.SnippetStatusFailed,
			"failure_stage":  string(stage),
			"failure_reason": reason,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to mark snippet failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrSnippetNotFound
	}
	return nil
}

// Requeue puts a failed snippet back at the end of the queue.
func (r *SnippetRepository) Requeue(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var snippet models.Snippet
		if err := tx.Select("id", "status").First(&snippet, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSnippetNotFound
			}
			return fmt.Errorf("failed to get snippet: %w", err)
		}
		if snippet.Status != models.SnippetStatusFailed {
			return fmt.Errorf("%w: only failed snippets can be requeued, got %s", ErrInvalidTransition, snippet.Status)
		}
		if err := tx.Model(&models.Snippet{}).Where("id = ?", id).
			Updates(map[string]interface{}{
				"status":         models.SnippetStatusQueued,
				"failure_stage":  "",
				"failure_reason": "",
				"created_at":     time.Now(),
			}).Error; err != nil {
			return fmt.Errorf("failed to requeue snippet: %w", err)
		}
		return nil
	})
}

// UpdateText edits the transcript of a completed snippet without touching its status.
func (r *SnippetRepository) UpdateText(ctx context.Context, id uint, text string) error {
	result := r.db.WithContext(ctx).Model(&models.Snippet{}).
		Where("id = ?", id).
		Update("text", text)
	if result.Error != nil {
		return fmt.Errorf("failed to update text: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrSnippetNotFound
	}
	return nil
}

// UserQueue returns a user's pending and recently completed snippets: every
// snippet that is not done, plus done snippets completed within doneWindow.
func (r *SnippetRepository) UserQueue(ctx context.Context, userID uint, doneWindow time.Duration) ([]models.Snippet, error) {
	cutoff := time.Now().Add(-doneWindow)
	var snippets []models.Snippet
	err := r.db.WithContext(ctx).
		Preload("Source").
		Where("user_id = ? AND (status != ? OR updated_at >= ?)", userID, models.SnippetStatusDone, cutoff).
		Order("created_at ASC").
		Find(&snippets).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user queue: %w", err)
	}
	return snippets, nil
}

// SnippetsSince returns a user's completed snippets for a source created
// after the given time, ordered by start position.
func (r *SnippetRepository) SnippetsSince(ctx context.Context, sourceID, userID uint, since time.Time) ([]models.Snippet, error) {
	var snippets []models.Snippet
	err := r.db.WithContext(ctx).
		Where("source_id = ? AND user_id = ? AND status = ? AND created_at > ?",
			sourceID, userID, models.SnippetStatusDone, since).
		Order("start_time ASC").
		Find(&snippets).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch snippets: %w", err)
	}
	return snippets, nil
}

func (r *SnippetRepository) DeleteSnippet(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Snippet{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete snippet: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrSnippetNotFound
	}
	return nil
}
