package snippets

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/voxnote/snippets-api/internal/models"
)

// SnippetService implements Service
type SnippetService struct {
	repo       Repository
	doneWindow time.Duration
}

// NewService creates a new snippet service. doneWindow controls how long
// completed snippets stay visible in the user queue.
func NewService(repo Repository, doneWindow time.Duration) *SnippetService {
	return &SnippetService{
		repo:       repo,
		doneWindow: doneWindow,
	}
}

// Enqueue records a clip request. If the same user already requested the same
// range of the same source, the existing snippet is returned instead of
// creating a second one.
func (s *SnippetService) Enqueue(ctx context.Context, userID, sourceID uint, start, end int) (*models.Snippet, error) {
	existing, err := s.repo.FindDuplicate(ctx, userID, sourceID, start, end)
	if err == nil {
		log.Printf("[DEBUG] Duplicate snippet request for user %d source %d [%d-%d], returning existing ID %d",
			userID, sourceID, start, end, existing.ID)
		return existing, nil
	}
	if !errors.Is(err, ErrSnippetNotFound) {
		return nil, err
	}

	snippet := &models.Snippet{
		UserID:    userID,
		SourceID:  sourceID,
		StartTime: start,
		EndTime:   end,
		Status:    models.SnippetStatusQueued,
	}
	if err := s.repo.CreateSnippet(ctx, snippet); err != nil {
		// A concurrent request may have won the unique-index race.
		if dup, dupErr := s.repo.FindDuplicate(ctx, userID, sourceID, start, end); dupErr == nil {
			return dup, nil
		}
		return nil, err
	}

	log.Printf("[DEBUG] Enqueued snippet ID %d for user %d source %d [%d-%d]",
		snippet.ID, userID, sourceID, start, end)
	return snippet, nil
}

func (s *SnippetService) GetByID(ctx context.Context, id uint) (*models.Snippet, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *SnippetService) ClaimNextQueued(ctx context.Context, maxInFlight int) (*models.Snippet, error) {
	return s.repo.ClaimNextQueued(ctx, maxInFlight)
}

func (s *SnippetService) UpdateStatus(ctx context.Context, id uint, status models.SnippetStatus) error {
	return s.repo.UpdateStatus(ctx, id, status)
}

// Complete stores the transcript and marks the snippet done.
func (s *SnippetService) Complete(ctx context.Context, id uint, text string) error {
	return s.repo.SetText(ctx, id, text)
}

func (s *SnippetService) Fail(ctx context.Context, id uint, stage models.PipelineStage, reason string) error {
	log.Printf("[ERROR] Snippet %d failed at %s stage: %s", id, stage, reason)
	return s.repo.Fail(ctx, id, stage, reason)
}

func (s *SnippetService) Requeue(ctx context.Context, id uint) error {
	return s.repo.Requeue(ctx, id)
}

func (s *SnippetService) UpdateText(ctx context.Context, id uint, text string) error {
	return s.repo.UpdateText(ctx, id, text)
}

func (s *SnippetService) UserQueue(ctx context.Context, userID uint) ([]models.Snippet, error) {
	return s.repo.UserQueue(ctx, userID, s.doneWindow)
}

func (s *SnippetService) Delete(ctx context.Context, id uint) error {
	return s.repo.DeleteSnippet(ctx, id)
}
