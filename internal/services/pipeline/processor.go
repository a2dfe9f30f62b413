// Package pipeline turns queued snippets into transcripts. A worker pool
// polls the snippet store, and each claimed snippet walks the same path:
// resolve the source's audio, clip the requested window, transcribe it,
// and persist the text.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/voxnote/snippets-api/internal/models"
	"github.com/voxnote/snippets-api/internal/services/providers"
	"github.com/voxnote/snippets-api/internal/services/snippets"
	"github.com/voxnote/snippets-api/internal/services/sources"
	"github.com/voxnote/snippets-api/pkg/download"
)

// Clipper cuts a time window out of an audio file
type Clipper interface {
	Clip(ctx context.Context, src string, start, end float64) (string, error)
}

// Transcriber produces text from a prepared audio clip
type Transcriber interface {
	Transcribe(ctx context.Context, wavPath string) (string, error)
}

// Processor executes the full pipeline for one claimed snippet
type Processor struct {
	snippets    snippets.Service
	sources     sources.Service
	registry    *providers.Registry
	clipper     Clipper
	transcriber Transcriber
	tempDir     string
}

// NewProcessor creates a snippet processor
func NewProcessor(
	snippetService snippets.Service,
	sourceService sources.Service,
	registry *providers.Registry,
	clipper Clipper,
	transcriber Transcriber,
	tempDir string,
) *Processor {
	return &Processor{
		snippets:    snippetService,
		sources:     sourceService,
		registry:    registry,
		clipper:     clipper,
		transcriber: transcriber,
		tempDir:     tempDir,
	}
}

// Process runs a claimed snippet through download, clip and transcription.
// Errors are returned as PipelineError so the caller can record which
// stage broke.
func (p *Processor) Process(ctx context.Context, snippet *models.Snippet) error {
	source, err := p.sources.GetByID(ctx, snippet.SourceID)
	if err != nil {
		return &models.PipelineError{Stage: models.StageResolve, Code: "source_lookup", Message: err.Error(), Original: err}
	}

	adapter, err := p.registry.For(source.Provider)
	if err != nil {
		return &models.PipelineError{Stage: models.StageResolve, Code: "no_adapter", Message: err.Error(), Original: err}
	}

	workDir := filepath.Join(p.tempDir, uuid.New().String())
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return &models.PipelineError{Stage: models.StageResolve, Code: "workdir", Message: err.Error(), Original: err}
	}
	defer download.CleanupDir(workDir)

	if err := p.snippets.UpdateStatus(ctx, snippet.ID, models.SnippetStatusDownloading); err != nil {
		return &models.PipelineError{Stage: models.StageStore, Code: "status_update", Message: err.Error(), Original: err}
	}

	resolution, err := adapter.Resolve(ctx, providers.ResolveRequest{
		URL:     source.URL,
		WorkDir: workDir,
		UserID:  snippet.UserID,
	})
	if err != nil {
		return models.NewDownloadError("fetch_failed", fmt.Sprintf("failed to fetch audio for %s", source.URL), err)
	}

	// Fill in title and thumbnail the first time we see this source
	if err := p.sources.EnsureMetadata(ctx, source.ID, resolution.Title, resolution.ThumbnailURL); err != nil {
		log.Printf("[ERROR] Failed to store metadata for source %d: %v", source.ID, err)
	}

	if err := p.snippets.UpdateStatus(ctx, snippet.ID, models.SnippetStatusTranscribing); err != nil {
		return &models.PipelineError{Stage: models.StageStore, Code: "status_update", Message: err.Error(), Original: err}
	}

	clipPath, err := p.clipper.Clip(ctx, resolution.AudioPath, float64(snippet.StartTime), float64(snippet.EndTime))
	if err != nil {
		return models.NewClipError("clip_failed", fmt.Sprintf("failed to clip [%d-%d]", snippet.StartTime, snippet.EndTime), err)
	}

	text, err := p.transcriber.Transcribe(ctx, clipPath)
	if err != nil {
		return models.NewTranscribeError("transcribe_failed", "transcription failed", err)
	}

	if err := p.snippets.Complete(ctx, snippet.ID, text); err != nil {
		return &models.PipelineError{Stage: models.StageStore, Code: "persist", Message: err.Error(), Original: err}
	}

	log.Printf("[DEBUG] Snippet %d completed (%d chars)", snippet.ID, len(text))
	return nil
}

// FailureStage maps a processing error to the stage it happened in
func FailureStage(err error) models.PipelineStage {
	var pipeErr *models.PipelineError
	if errors.As(err, &pipeErr) {
		return pipeErr.Stage
	}
	return models.StageResolve
}
