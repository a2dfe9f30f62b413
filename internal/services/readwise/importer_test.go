package readwise

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxnote/snippets-api/internal/database"
	"github.com/voxnote/snippets-api/internal/models"
	"github.com/voxnote/snippets-api/internal/services/snippets"
	"github.com/voxnote/snippets-api/internal/services/sources"
)

func setupImporter(t *testing.T, highlightsJSON string) (*database.DB, *Importer) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/highlights/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Token test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, highlightsJSON)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	db, err := database.Initialize(":memory:", false)
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { db.Close() })

	user := &models.User{Email: "listener@example.com"}
	require.NoError(t, db.Create(user).Error)
	require.NoError(t, db.Create(&models.UserSetting{UserID: user.ID, Name: models.SettingReadwiseToken, Value: "test-token"}).Error)
	require.NoError(t, db.Create(&models.UserSetting{UserID: user.ID, Name: models.SettingReadwiseTitles, Value: "42"}).Error)

	importer := NewImporter(
		db.DB,
		NewClient(server.URL, 5*time.Second),
		snippets.NewService(snippets.NewRepository(db.DB), time.Minute),
		sources.NewService(sources.NewRepository(db.DB)),
		time.Minute,
		60,
	)
	return db, importer
}

func TestImportAllEnqueuesHighlights(t *testing.T) {
	now := time.Now().UTC().Format(time.RFC3339)
	db, importer := setupImporter(t, fmt.Sprintf(`{"results": [
		{"id": 1, "text": "https://www.youtube.com/watch?v=abc", "note": "1:30-2:00", "highlighted_at": %q},
		{"id": 2, "text": "https://example.com/talk.mp3", "note": "", "highlighted_at": %q},
		{"id": 3, "text": "not a url at all", "note": "", "highlighted_at": %q}
	]}`, now, now, now))

	require.NoError(t, importer.ImportAll(context.Background()))

	var items []models.Snippet
	require.NoError(t, db.Order("id ASC").Find(&items).Error)
	require.Len(t, items, 2)

	// Note range wins
	assert.Equal(t, 90, items[0].StartTime)
	assert.Equal(t, 120, items[0].EndTime)
	assert.Equal(t, models.SnippetStatusQueued, items[0].Status)

	// No note falls back to the default duration from zero
	assert.Equal(t, 0, items[1].StartTime)
	assert.Equal(t, 60, items[1].EndTime)

	// The sources picked up the right providers
	var sourceRows []models.Source
	require.NoError(t, db.Order("id ASC").Find(&sourceRows).Error)
	require.Len(t, sourceRows, 2)
	assert.Equal(t, models.ProviderYouTube, sourceRows[0].Provider)
	assert.Equal(t, models.ProviderDirect, sourceRows[1].Provider)

	// The watermark was recorded
	var record models.ExternalSyncRecord
	require.NoError(t, db.Where("service = ?", ServiceName).First(&record).Error)
	assert.False(t, record.SyncedAt.IsZero())
}

func TestImportAllSkipsOldHighlights(t *testing.T) {
	old := time.Now().Add(-48 * time.Hour).UTC().Format(time.RFC3339)
	db, importer := setupImporter(t, fmt.Sprintf(`{"results": [
		{"id": 1, "text": "https://example.com/old.mp3", "note": "", "highlighted_at": %q}
	]}`, old))

	// Watermark is newer than the highlight
	require.NoError(t, db.Create(&models.ExternalSyncRecord{
		UserID:   1,
		Service:  ServiceName,
		SyncedAt: time.Now().Add(-time.Hour),
	}).Error)

	require.NoError(t, importer.ImportAll(context.Background()))

	var count int64
	require.NoError(t, db.Model(&models.Snippet{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestImportAllUsesUserDuration(t *testing.T) {
	now := time.Now().UTC().Format(time.RFC3339)
	db, importer := setupImporter(t, fmt.Sprintf(`{"results": [
		{"id": 1, "text": "https://example.com/talk.mp3", "note": "2:00", "highlighted_at": %q}
	]}`, now))

	require.NoError(t, db.Create(&models.UserSetting{UserID: 1, Name: models.SettingDefaultDuration, Value: "90"}).Error)

	require.NoError(t, importer.ImportAll(context.Background()))

	var item models.Snippet
	require.NoError(t, db.First(&item).Error)
	// A bare M:SS note marks the start; the user's duration sets the end
	assert.Equal(t, 120, item.StartTime)
	assert.Equal(t, 210, item.EndTime)
}

func TestImportAllWithoutTokenDoesNothing(t *testing.T) {
	db, importer := setupImporter(t, `{"results": []}`)
	require.NoError(t, db.Where("name = ?", models.SettingReadwiseToken).Delete(&models.UserSetting{}).Error)

	require.NoError(t, importer.ImportAll(context.Background()))

	var count int64
	require.NoError(t, db.Model(&models.ExternalSyncRecord{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestImportAllDeduplicatesAcrossRuns(t *testing.T) {
	now := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	db, importer := setupImporter(t, fmt.Sprintf(`{"results": [
		{"id": 1, "text": "https://example.com/talk.mp3", "note": "0:10-0:40", "highlighted_at": %q}
	]}`, now))

	ctx := context.Background()
	require.NoError(t, importer.ImportAll(ctx))
	require.NoError(t, importer.ImportAll(ctx))

	var count int64
	require.NoError(t, db.Model(&models.Snippet{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}
