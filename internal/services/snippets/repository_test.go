package snippets

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxnote/snippets-api/internal/database"
	"github.com/voxnote/snippets-api/internal/models"
)

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Initialize(":memory:", false)
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { db.Close() })
	return db
}

func seedSource(t *testing.T, db *database.DB) *models.Source {
	t.Helper()
	source := &models.Source{
		URL:      "https://www.youtube.com/watch",
		Provider: models.ProviderYouTube,
	}
	require.NoError(t, db.Create(source).Error)
	return source
}

func seedSnippet(t *testing.T, db *database.DB, sourceID uint, start int, status models.SnippetStatus, createdAt time.Time) *models.Snippet {
	t.Helper()
	snippet := &models.Snippet{
		UserID:    1,
		SourceID:  sourceID,
		StartTime: start,
		EndTime:   start + 60,
		Status:    status,
	}
	require.NoError(t, db.Create(snippet).Error)
	require.NoError(t, db.Model(snippet).Update("created_at", createdAt).Error)
	snippet.CreatedAt = createdAt
	return snippet
}

func TestEnqueueDeduplicates(t *testing.T) {
	db := setupTestDB(t)
	source := seedSource(t, db)
	svc := NewService(NewRepository(db.DB), time.Minute)
	ctx := context.Background()

	first, err := svc.Enqueue(ctx, 1, source.ID, 30, 90)
	require.NoError(t, err)
	assert.Equal(t, models.SnippetStatusQueued, first.Status)

	second, err := svc.Enqueue(ctx, 1, source.ID, 30, 90)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	// A different range for the same user is a new snippet
	third, err := svc.Enqueue(ctx, 1, source.ID, 90, 150)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, third.ID)

	// Same range for a different user is a new snippet
	fourth, err := svc.Enqueue(ctx, 2, source.ID, 30, 90)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, fourth.ID)
}

func TestClaimNextQueuedOrdering(t *testing.T) {
	db := setupTestDB(t)
	source := seedSource(t, db)
	repo := NewRepository(db.DB)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	older := seedSnippet(t, db, source.ID, 0, models.SnippetStatusQueued, base)
	seedSnippet(t, db, source.ID, 60, models.SnippetStatusQueued, base.Add(time.Minute))

	claimed, err := repo.ClaimNextQueued(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, older.ID, claimed.ID)
	assert.Equal(t, models.SnippetStatusProcessing, claimed.Status)

	stored, err := repo.GetByID(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SnippetStatusProcessing, stored.Status)
}

func TestClaimNextQueuedRespectsInFlightLimit(t *testing.T) {
	db := setupTestDB(t)
	source := seedSource(t, db)
	repo := NewRepository(db.DB)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	inFlight := seedSnippet(t, db, source.ID, 0, models.SnippetStatusDownloading, base)
	seedSnippet(t, db, source.ID, 60, models.SnippetStatusQueued, base.Add(time.Minute))

	// One snippet is already in flight so the gate stays closed
	_, err := repo.ClaimNextQueued(ctx, 1)
	assert.ErrorIs(t, err, ErrNoneAvailable)

	// Finishing the in-flight snippet reopens the gate
	require.NoError(t, repo.UpdateStatus(ctx, inFlight.ID, models.SnippetStatusTranscribing))
	require.NoError(t, repo.SetText(ctx, inFlight.ID, "the transcript"))

	claimed, err := repo.ClaimNextQueued(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.SnippetStatusProcessing, claimed.Status)
}

func TestClaimNextQueuedReopensAfterFailure(t *testing.T) {
	db := setupTestDB(t)
	source := seedSource(t, db)
	repo := NewRepository(db.DB)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	inFlight := seedSnippet(t, db, source.ID, 0, models.SnippetStatusDownloading, base)
	seedSnippet(t, db, source.ID, 60, models.SnippetStatusQueued, base.Add(time.Minute))

	_, err := repo.ClaimNextQueued(ctx, 1)
	assert.ErrorIs(t, err, ErrNoneAvailable)

	require.NoError(t, repo.Fail(ctx, inFlight.ID, models.StageDownload, "connection reset"))

	claimed, err := repo.ClaimNextQueued(ctx, 1)
	require.NoError(t, err)
	assert.NotEqual(t, inFlight.ID, claimed.ID)
}

func TestClaimNextQueuedEmpty(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db.DB)

	_, err := repo.ClaimNextQueued(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNoneAvailable)
}

func TestUpdateStatusMonotonic(t *testing.T) {
	db := setupTestDB(t)
	source := seedSource(t, db)
	repo := NewRepository(db.DB)
	ctx := context.Background()

	snippet := seedSnippet(t, db, source.ID, 0, models.SnippetStatusProcessing, time.Now())

	require.NoError(t, repo.UpdateStatus(ctx, snippet.ID, models.SnippetStatusDownloading))
	require.NoError(t, repo.UpdateStatus(ctx, snippet.ID, models.SnippetStatusTranscribing))

	// Moving backwards is rejected
	err := repo.UpdateStatus(ctx, snippet.ID, models.SnippetStatusDownloading)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, repo.SetText(ctx, snippet.ID, "hello world"))

	// Done is terminal
	err = repo.UpdateStatus(ctx, snippet.ID, models.SnippetStatusTranscribing)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	stored, err := repo.GetByID(ctx, snippet.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SnippetStatusDone, stored.Status)
	assert.Equal(t, "hello world", stored.Text)
}

func TestFailAndRequeue(t *testing.T) {
	db := setupTestDB(t)
	source := seedSource(t, db)
	repo := NewRepository(db.DB)
	ctx := context.Background()

	snippet := seedSnippet(t, db, source.ID, 0, models.SnippetStatusDownloading, time.Now().Add(-time.Hour))

	require.NoError(t, repo.Fail(ctx, snippet.ID, models.StageDownload, "403 from origin"))

	stored, err := repo.GetByID(ctx, snippet.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SnippetStatusFailed, stored.Status)
	assert.Equal(t, string(models.StageDownload), stored.FailureStage)
	assert.Equal(t, "403 from origin", stored.FailureReason)

	// A done snippet cannot be failed
	done := seedSnippet(t, db, source.ID, 60, models.SnippetStatusDone, time.Now())
	err = repo.Fail(ctx, done.ID, models.StageTranscribe, "should not apply")
	assert.ErrorIs(t, err, ErrSnippetNotFound)

	require.NoError(t, repo.Requeue(ctx, snippet.ID))
	stored, err = repo.GetByID(ctx, snippet.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SnippetStatusQueued, stored.Status)
	assert.Empty(t, stored.FailureStage)
	assert.Empty(t, stored.FailureReason)

	// Only failed snippets can be requeued
	err = repo.Requeue(ctx, done.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUserQueueWindow(t *testing.T) {
	db := setupTestDB(t)
	source := seedSource(t, db)
	repo := NewRepository(db.DB)
	ctx := context.Background()

	queued := seedSnippet(t, db, source.ID, 0, models.SnippetStatusQueued, time.Now())
	recentDone := seedSnippet(t, db, source.ID, 60, models.SnippetStatusDone, time.Now())
	oldDone := seedSnippet(t, db, source.ID, 120, models.SnippetStatusDone, time.Now())
	require.NoError(t, db.Model(oldDone).Update("updated_at", time.Now().Add(-2*time.Hour)).Error)

	// Another user's snippet must not leak in
	other := &models.Snippet{UserID: 2, SourceID: source.ID, StartTime: 0, EndTime: 60, Status: models.SnippetStatusQueued}
	require.NoError(t, db.Create(other).Error)

	queue, err := repo.UserQueue(ctx, 1, time.Minute)
	require.NoError(t, err)
	require.Len(t, queue, 2)

	ids := []uint{queue[0].ID, queue[1].ID}
	assert.Contains(t, ids, queued.ID)
	assert.Contains(t, ids, recentDone.ID)
}

func TestSnippetsSince(t *testing.T) {
	db := setupTestDB(t)
	source := seedSource(t, db)
	repo := NewRepository(db.DB)
	ctx := context.Background()

	watermark := time.Now().Add(-time.Hour)

	seedSnippet(t, db, source.ID, 300, models.SnippetStatusDone, watermark.Add(-time.Minute))
	later := seedSnippet(t, db, source.ID, 120, models.SnippetStatusDone, watermark.Add(time.Minute))
	earlier := seedSnippet(t, db, source.ID, 30, models.SnippetStatusDone, watermark.Add(2*time.Minute))
	seedSnippet(t, db, source.ID, 60, models.SnippetStatusQueued, watermark.Add(time.Minute))

	results, err := repo.SnippetsSince(ctx, source.ID, 1, watermark)
	require.NoError(t, err)
	require.Len(t, results, 2)
	// Ordered by start position, not creation time
	assert.Equal(t, earlier.ID, results[0].ID)
	assert.Equal(t, later.ID, results[1].ID)
}

func TestUpdateText(t *testing.T) {
	db := setupTestDB(t)
	source := seedSource(t, db)
	repo := NewRepository(db.DB)
	ctx := context.Background()

	snippet := seedSnippet(t, db, source.ID, 0, models.SnippetStatusDone, time.Now())

	require.NoError(t, repo.UpdateText(ctx, snippet.ID, "corrected words"))
	stored, err := repo.GetByID(ctx, snippet.ID)
	require.NoError(t, err)
	assert.Equal(t, "corrected words", stored.Text)
	assert.Equal(t, models.SnippetStatusDone, stored.Status)

	err = repo.UpdateText(ctx, 9999, "nope")
	assert.ErrorIs(t, err, ErrSnippetNotFound)
}

func TestDeleteSnippet(t *testing.T) {
	db := setupTestDB(t)
	source := seedSource(t, db)
	repo := NewRepository(db.DB)
	ctx := context.Background()

	snippet := seedSnippet(t, db, source.ID, 0, models.SnippetStatusQueued, time.Now())

	require.NoError(t, repo.DeleteSnippet(ctx, snippet.ID))
	_, err := repo.GetByID(ctx, snippet.ID)
	assert.ErrorIs(t, err, ErrSnippetNotFound)

	err = repo.DeleteSnippet(ctx, snippet.ID)
	assert.ErrorIs(t, err, ErrSnippetNotFound)
}
