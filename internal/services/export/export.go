// Package export renders a source's completed snippets as markdown and
// tracks per-user export watermarks so incremental exports only carry
// snippets captured since the last sync.
package export

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/voxnote/snippets-api/internal/models"
	"github.com/voxnote/snippets-api/internal/services/snippets"
	"github.com/voxnote/snippets-api/internal/services/sources"
)

// ErrNothingToExport is returned when no snippets match the export window
var ErrNothingToExport = errors.New("nothing to export")

// Options controls how the markdown document is built
type Options struct {
	// LatestOnly limits the export to snippets created after the user's
	// last recorded sync for this source
	LatestOnly bool
	// ExcludeHeader drops the title/thumbnail/link block
	ExcludeHeader bool
}

// Service renders markdown exports and records sync watermarks
type Service interface {
	Markdown(ctx context.Context, userID, sourceID uint, opts Options) (string, error)
	RecordSync(ctx context.Context, userID, sourceID uint) error
}

type service struct {
	db       *gorm.DB
	sources  sources.Service
	snippets snippets.Repository
}

// NewService creates an export service
func NewService(db *gorm.DB, sourceService sources.Service, snippetRepo snippets.Repository) Service {
	return &service{db: db, sources: sourceService, snippets: snippetRepo}
}

// Markdown renders the source's completed snippets for one user. With
// LatestOnly the SyncRecord watermark bounds the window; a full export
// always starts from the beginning. Headers are skipped on incremental
// exports since the destination document already has one.
func (s *service) Markdown(ctx context.Context, userID, sourceID uint, opts Options) (string, error) {
	source, err := s.sources.GetByID(ctx, sourceID)
	if err != nil {
		return "", err
	}

	var since time.Time
	if opts.LatestOnly {
		var record models.SyncRecord
		err := s.db.WithContext(ctx).
			Where("user_id = ? AND source_id = ?", userID, sourceID).
			First(&record).Error
		if err == nil {
			since = record.SyncedAt
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("failed to load sync record: %w", err)
		}
	}

	items, err := s.snippets.SnippetsSince(ctx, sourceID, userID, since)
	if err != nil {
		return "", err
	}
	if len(items) == 0 {
		return "", ErrNothingToExport
	}

	var b strings.Builder
	if !opts.ExcludeHeader && !opts.LatestOnly {
		writeHeader(&b, source)
	}

	for _, item := range items {
		fmt.Fprintf(&b, "%s [%s](%s?t=%d)\n\n",
			strings.TrimSpace(item.Text), formatClock(item.StartTime), source.URL, item.StartTime)
	}

	return b.String(), nil
}

// RecordSync stores now as the user's export watermark for the source
func (s *service) RecordSync(ctx context.Context, userID, sourceID uint) error {
	record := models.SyncRecord{
		UserID:   userID,
		SourceID: sourceID,
		SyncedAt: time.Now(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "source_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"synced_at", "updated_at"}),
	}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("failed to record sync: %w", err)
	}
	return nil
}

func writeHeader(b *strings.Builder, source *models.Source) {
	title := source.Title
	if title == "" {
		title = source.URL
	}
	fmt.Fprintf(b, "# %s\n\n", title)
	if source.ThumbURL != "" {
		fmt.Fprintf(b, "![%s](%s)\n\n", title, source.ThumbURL)
	}
	fmt.Fprintf(b, "[%s](%s)\n\n", source.URL, source.URL)
}

// formatClock renders seconds as M:SS for the link label
func formatClock(seconds int) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
