package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxnote/snippets-api/internal/database"
	"github.com/voxnote/snippets-api/internal/models"
	"github.com/voxnote/snippets-api/internal/services/providers"
	"github.com/voxnote/snippets-api/internal/services/snippets"
	"github.com/voxnote/snippets-api/internal/services/sources"
)

// fakeAdapter writes a small audio file into the work dir and reports
// fixed metadata, standing in for a real provider.
type fakeAdapter struct {
	title string
	thumb string
	err   error
}

func (f *fakeAdapter) Resolve(_ context.Context, req providers.ResolveRequest) (*providers.Resolution, error) {
	if f.err != nil {
		return nil, f.err
	}
	audioPath := filepath.Join(req.WorkDir, "audio.mp3")
	if err := os.WriteFile(audioPath, []byte("full audio"), 0644); err != nil {
		return nil, err
	}
	return &providers.Resolution{AudioPath: audioPath, Title: f.title, ThumbnailURL: f.thumb}, nil
}

type fakeClipper struct {
	err error
}

func (f *fakeClipper) Clip(_ context.Context, src string, start, end float64) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	clipPath := src + "_clip.wav"
	if err := os.WriteFile(clipPath, []byte("clip"), 0644); err != nil {
		return "", err
	}
	return clipPath, nil
}

type fakeTranscriber struct {
	text string
	err  error
}

func (f *fakeTranscriber) Transcribe(_ context.Context, _ string) (string, error) {
	return f.text, f.err
}

type testEnv struct {
	db          *database.DB
	snippetSvc  snippets.Service
	sourceSvc   sources.Service
	adapter     *fakeAdapter
	clipper     *fakeClipper
	transcriber *fakeTranscriber
	processor   *Processor
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Initialize(":memory:", false)
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { db.Close() })

	env := &testEnv{
		db:          db,
		snippetSvc:  snippets.NewService(snippets.NewRepository(db.DB), time.Minute),
		sourceSvc:   sources.NewService(sources.NewRepository(db.DB)),
		adapter:     &fakeAdapter{title: "How Buildings Learn", thumb: "https://img.example.com/cover.jpg"},
		clipper:     &fakeClipper{},
		transcriber: &fakeTranscriber{text: "what gets measured gets managed"},
	}

	registry := providers.NewRegistry(map[models.SourceProvider]providers.Adapter{
		models.ProviderYouTube: env.adapter,
		models.ProviderDirect:  env.adapter,
	})
	env.processor = NewProcessor(env.snippetSvc, env.sourceSvc, registry, env.clipper, env.transcriber, t.TempDir())
	return env
}

func (e *testEnv) enqueue(t *testing.T, url string, provider models.SourceProvider, start, end int) *models.Snippet {
	t.Helper()
	ctx := context.Background()
	source, err := e.sourceSvc.FindOrCreate(ctx, url, provider)
	require.NoError(t, err)
	snippet, err := e.snippetSvc.Enqueue(ctx, 1, source.ID, start, end)
	require.NoError(t, err)
	return snippet
}

func TestWorkerProcessesSnippetEndToEnd(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	queued := env.enqueue(t, "https://www.youtube.com/watch?v=abc123", models.ProviderYouTube, 30, 90)

	worker := NewWorker("test-worker", env.snippetSvc, env.processor, 1, time.Millisecond)
	require.NoError(t, worker.ProcessNext(ctx))

	snippet, err := env.snippetSvc.GetByID(ctx, queued.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SnippetStatusDone, snippet.Status)
	assert.Equal(t, "what gets measured gets managed", snippet.Text)
	assert.Equal(t, 30, snippet.StartTime)
	assert.Equal(t, 90, snippet.EndTime)

	// Metadata from the resolution landed on the source
	source, err := env.sourceSvc.GetByID(ctx, snippet.SourceID)
	require.NoError(t, err)
	assert.Equal(t, models.ProviderYouTube, source.Provider)
	assert.Equal(t, "How Buildings Learn", source.Title)
	assert.Equal(t, "https://img.example.com/cover.jpg", source.ThumbURL)
}

func TestWorkerEmptyQueueIsNotAnError(t *testing.T) {
	env := setupEnv(t)
	worker := NewWorker("test-worker", env.snippetSvc, env.processor, 1, time.Millisecond)
	assert.NoError(t, worker.ProcessNext(context.Background()))
}

func TestWorkerRecordsDownloadFailure(t *testing.T) {
	env := setupEnv(t)
	env.adapter.err = errors.New("origin returned 403")
	ctx := context.Background()

	queued := env.enqueue(t, "https://example.com/talk.mp3", models.ProviderDirect, 0, 60)

	worker := NewWorker("test-worker", env.snippetSvc, env.processor, 1, time.Millisecond)
	require.Error(t, worker.ProcessNext(ctx))

	snippet, err := env.snippetSvc.GetByID(ctx, queued.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SnippetStatusFailed, snippet.Status)
	assert.Equal(t, string(models.StageDownload), snippet.FailureStage)
	assert.Contains(t, snippet.FailureReason, "failed to fetch audio")
}

func TestWorkerRecordsClipFailure(t *testing.T) {
	env := setupEnv(t)
	env.clipper.err = errors.New("invalid time range")
	ctx := context.Background()

	queued := env.enqueue(t, "https://example.com/talk.mp3", models.ProviderDirect, 0, 60)

	worker := NewWorker("test-worker", env.snippetSvc, env.processor, 1, time.Millisecond)
	require.Error(t, worker.ProcessNext(ctx))

	snippet, err := env.snippetSvc.GetByID(ctx, queued.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SnippetStatusFailed, snippet.Status)
	assert.Equal(t, string(models.StageClip), snippet.FailureStage)
}

func TestWorkerRecordsTranscribeFailure(t *testing.T) {
	env := setupEnv(t)
	env.transcriber.err = errors.New("model produced no output")
	ctx := context.Background()

	queued := env.enqueue(t, "https://example.com/talk.mp3", models.ProviderDirect, 0, 60)

	worker := NewWorker("test-worker", env.snippetSvc, env.processor, 1, time.Millisecond)
	require.Error(t, worker.ProcessNext(ctx))

	snippet, err := env.snippetSvc.GetByID(ctx, queued.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SnippetStatusFailed, snippet.Status)
	assert.Equal(t, string(models.StageTranscribe), snippet.FailureStage)
}

func TestFailedSnippetCanBeRequeuedAndReprocessed(t *testing.T) {
	env := setupEnv(t)
	env.adapter.err = errors.New("transient network error")
	ctx := context.Background()

	queued := env.enqueue(t, "https://example.com/talk.mp3", models.ProviderDirect, 0, 60)

	worker := NewWorker("test-worker", env.snippetSvc, env.processor, 1, time.Millisecond)
	require.Error(t, worker.ProcessNext(ctx))

	require.NoError(t, env.snippetSvc.Requeue(ctx, queued.ID))

	env.adapter.err = nil
	require.NoError(t, worker.ProcessNext(ctx))

	snippet, err := env.snippetSvc.GetByID(ctx, queued.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SnippetStatusDone, snippet.Status)
	assert.NotEmpty(t, snippet.Text)
}

func TestGateKeepsSecondSnippetQueued(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	first := env.enqueue(t, "https://example.com/a.mp3", models.ProviderDirect, 0, 60)
	second := env.enqueue(t, "https://example.com/b.mp3", models.ProviderDirect, 0, 60)

	// Hold the first snippet in flight by claiming without processing
	claimed, err := env.snippetSvc.ClaimNextQueued(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, first.ID, claimed.ID)

	worker := NewWorker("test-worker", env.snippetSvc, env.processor, 1, time.Millisecond)
	require.NoError(t, worker.ProcessNext(ctx))

	stored, err := env.snippetSvc.GetByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SnippetStatusQueued, stored.Status)
}
