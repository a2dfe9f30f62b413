package snippets

import (
	"context"
	"time"

	"github.com/voxnote/snippets-api/internal/models"
)

// Repository defines the data access interface for snippets
type Repository interface {
	CreateSnippet(ctx context.Context, snippet *models.Snippet) error
	GetByID(ctx context.Context, id uint) (*models.Snippet, error)
	FindDuplicate(ctx context.Context, userID, sourceID uint, start, end int) (*models.Snippet, error)

	// ClaimNextQueued is the concurrency gate: it returns the oldest queued
	// snippet only when fewer than maxInFlight snippets are in an in-flight
	// status, transitioning it to processing in the same transaction.
	ClaimNextQueued(ctx context.Context, maxInFlight int) (*models.Snippet, error)

	UpdateStatus(ctx context.Context, id uint, status models.SnippetStatus) error
	SetText(ctx context.Context, id uint, text string) error
	Fail(ctx context.Context, id uint, stage models.PipelineStage, reason string) error
	Requeue(ctx context.Context, id uint) error

	UpdateText(ctx context.Context, id uint, text string) error
	UserQueue(ctx context.Context, userID uint, doneWindow time.Duration) ([]models.Snippet, error)
	SnippetsSince(ctx context.Context, sourceID, userID uint, since time.Time) ([]models.Snippet, error)
	DeleteSnippet(ctx context.Context, id uint) error
}

// Service defines the business logic interface for snippet operations
type Service interface {
	// Enqueue records a clip request in the queued state. A duplicate
	// (user, source, start, end) request returns the existing row.
	Enqueue(ctx context.Context, userID, sourceID uint, start, end int) (*models.Snippet, error)

	GetByID(ctx context.Context, id uint) (*models.Snippet, error)
	ClaimNextQueued(ctx context.Context, maxInFlight int) (*models.Snippet, error)
	UpdateStatus(ctx context.Context, id uint, status models.SnippetStatus) error
	Complete(ctx context.Context, id uint, text string) error
	Fail(ctx context.Context, id uint, stage models.PipelineStage, reason string) error
	Requeue(ctx context.Context, id uint) error
	UpdateText(ctx context.Context, id uint, text string) error
	UserQueue(ctx context.Context, userID uint) ([]models.Snippet, error)
	Delete(ctx context.Context, id uint) error
}
