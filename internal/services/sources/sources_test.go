package sources

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

func TestFindOrCreateCanonicalizes(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(NewRepository(db.DB))
	ctx := context.Background()

	first, err := svc.FindOrCreate(ctx, "https://www.youtube.com/watch?v=abc&t=30", models.ProviderYouTube)
	require.NoError(t, err)
	assert.Equal(t, "https://www.youtube.com/watch", first.URL)
	assert.Equal(t, models.ProviderYouTube, first.Provider)

	// Different markers on the same page collapse to one source
	second, err := svc.FindOrCreate(ctx, "https://www.youtube.com/watch?v=abc&t=95", models.ProviderYouTube)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, db.Model(&models.Source{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestFindOrCreateKeepsOriginalProvider(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(NewRepository(db.DB))
	ctx := context.Background()

	first, err := svc.FindOrCreate(ctx, "https://example.com/a.mp3", models.ProviderDirect)
	require.NoError(t, err)

	// A second caller with a different guess still gets the stored tag
	second, err := svc.FindOrCreate(ctx, "https://example.com/a.mp3", models.ProviderPodcast)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, models.ProviderDirect, second.Provider)
}

func TestEnsureMetadataOnlyFillsOnce(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(NewRepository(db.DB))
	ctx := context.Background()

	source, err := svc.FindOrCreate(ctx, "https://pca.st/episode/1", models.ProviderPodcast)
	require.NoError(t, err)

	require.NoError(t, svc.EnsureMetadata(ctx, source.ID, "First Title", "https://img/1.jpg"))

	// Later resolutions do not overwrite
	require.NoError(t, svc.EnsureMetadata(ctx, source.ID, "Second Title", "https://img/2.jpg"))

	stored, err := svc.GetByID(ctx, source.ID)
	require.NoError(t, err)
	assert.Equal(t, "First Title", stored.Title)
	assert.Equal(t, "https://img/1.jpg", stored.ThumbURL)
}

func TestListForUserOnlyCompleted(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(NewRepository(db.DB))
	ctx := context.Background()

	withDone, err := svc.FindOrCreate(ctx, "https://example.com/done.mp3", models.ProviderDirect)
	require.NoError(t, err)
	pendingOnly, err := svc.FindOrCreate(ctx, "https://example.com/pending.mp3", models.ProviderDirect)
	require.NoError(t, err)

	require.NoError(t, db.Create(&models.Snippet{
		UserID: 1, SourceID: withDone.ID, StartTime: 0, EndTime: 60,
		Status: models.SnippetStatusDone, Text: "finished",
	}).Error)
	require.NoError(t, db.Create(&models.Snippet{
		UserID: 1, SourceID: pendingOnly.ID, StartTime: 0, EndTime: 60,
		Status: models.SnippetStatusQueued,
	}).Error)

	listed, err := svc.ListForUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, withDone.ID, listed[0].ID)
	require.Len(t, listed[0].Snippets, 1)
	assert.Equal(t, "finished", listed[0].Snippets[0].Text)

	// Another user sees nothing
	empty, err := svc.ListForUser(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestListForUserOrdersByRecentActivity(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(NewRepository(db.DB))
	ctx := context.Background()

	older, err := svc.FindOrCreate(ctx, "https://example.com/older.mp3", models.ProviderDirect)
	require.NoError(t, err)
	newer, err := svc.FindOrCreate(ctx, "https://example.com/newer.mp3", models.ProviderDirect)
	require.NoError(t, err)

	base := time.Now().Add(-time.Hour)
	for _, seed := range []struct {
		sourceID  uint
		createdAt time.Time
	}{
		{older.ID, base},
		{newer.ID, base.Add(30 * time.Minute)},
	} {
		snippet := &models.Snippet{
			UserID: 1, SourceID: seed.sourceID, StartTime: 0, EndTime: 60,
			Status: models.SnippetStatusDone, Text: "t",
		}
		require.NoError(t, db.Create(snippet).Error)
		require.NoError(t, db.Model(snippet).Update("created_at", seed.createdAt).Error)
	}

	listed, err := svc.ListForUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, newer.ID, listed[0].ID)
	assert.Equal(t, older.ID, listed[1].ID)
}

func TestDeleteCascades(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(NewRepository(db.DB))
	ctx := context.Background()

	source, err := svc.FindOrCreate(ctx, "https://example.com/gone.mp3", models.ProviderDirect)
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.Snippet{
		UserID: 1, SourceID: source.ID, StartTime: 0, EndTime: 60,
		Status: models.SnippetStatusDone,
	}).Error)

	require.NoError(t, svc.Delete(ctx, source.ID))

	_, err = svc.GetByID(ctx, source.ID)
	assert.ErrorIs(t, err, ErrSourceNotFound)

	var snippetCount int64
	require.NoError(t, db.Model(&models.Snippet{}).Count(&snippetCount).Error)
	assert.EqualValues(t, 0, snippetCount)

	err = svc.Delete(ctx, source.ID)
	assert.ErrorIs(t, err, ErrSourceNotFound)
}
