package readwise

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/voxnote/snippets-api/internal/models"
	"github.com/voxnote/snippets-api/internal/services/snippets"
	"github.com/voxnote/snippets-api/internal/services/sources"
	"github.com/voxnote/snippets-api/pkg/timeparse"
)

// ServiceName tags the importer's rows in external_sync_records
const ServiceName = "readwise"

// Importer periodically pulls new highlights for every user with a
// Readwise token and enqueues them as snippets.
type Importer struct {
	db              *gorm.DB
	client          *Client
	snippets        snippets.Service
	sources         sources.Service
	interval        time.Duration
	defaultDuration int
	stopChan        chan struct{}
	wg              sync.WaitGroup
}

// NewImporter creates a highlight importer. defaultDuration is the clip
// length in seconds used when a user has no duration setting and a
// highlight note carries no range.
func NewImporter(db *gorm.DB, client *Client, snippetService snippets.Service, sourceService sources.Service, interval time.Duration, defaultDuration int) *Importer {
	return &Importer{
		db:              db,
		client:          client,
		snippets:        snippetService,
		sources:         sourceService,
		interval:        interval,
		defaultDuration: defaultDuration,
		stopChan:        make(chan struct{}),
	}
}

// Start runs the import loop in a goroutine
func (i *Importer) Start(ctx context.Context) {
	i.wg.Add(1)
	go i.run(ctx)
}

// Stop stops the importer gracefully
func (i *Importer) Stop() {
	close(i.stopChan)
	i.wg.Wait()
}

func (i *Importer) run(ctx context.Context) {
	defer i.wg.Done()

	log.Printf("Readwise importer starting (every %s)", i.interval)
	defer log.Printf("Readwise importer stopped")

	ticker := time.NewTicker(i.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-i.stopChan:
			return
		case <-ticker.C:
			if err := i.ImportAll(ctx); err != nil {
				log.Printf("[ERROR] Readwise import failed: %v", err)
			}
		}
	}
}

// ImportAll runs one import pass over every user. Users without a token
// are skipped; a failure for one user does not stop the others.
func (i *Importer) ImportAll(ctx context.Context) error {
	var users []models.User
	if err := i.db.WithContext(ctx).Find(&users).Error; err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	for _, user := range users {
		if err := i.importForUser(ctx, user.ID); err != nil {
			log.Printf("[ERROR] Readwise import for user %d: %v", user.ID, err)
		}
	}
	return nil
}

func (i *Importer) importForUser(ctx context.Context, userID uint) error {
	token, err := i.setting(ctx, userID, models.SettingReadwiseToken)
	if err != nil || token == "" {
		return nil
	}

	bookIDs, err := i.syncedBookIDs(ctx, userID)
	if err != nil {
		return err
	}
	if len(bookIDs) == 0 {
		return nil
	}

	watermark, err := i.watermark(ctx, userID)
	if err != nil {
		return err
	}

	enqueued := 0
	for _, bookID := range bookIDs {
		highlights, err := i.client.Highlights(ctx, token, bookID)
		if err != nil {
			return fmt.Errorf("failed to fetch highlights for book %d: %w", bookID, err)
		}
		for _, highlight := range highlights {
			if !watermark.IsZero() && highlight.HighlightedAt.Before(watermark) {
				continue
			}
			if err := i.enqueueHighlight(ctx, userID, highlight); err != nil {
				log.Printf("[ERROR] Failed to enqueue highlight %d: %v", highlight.ID, err)
				continue
			}
			enqueued++
		}
	}

	if err := i.recordSync(ctx, userID); err != nil {
		return err
	}

	if enqueued > 0 {
		log.Printf("[DEBUG] Readwise import enqueued %d snippets for user %d", enqueued, userID)
	}
	return nil
}

// enqueueHighlight turns a single highlight into a queued snippet. The
// highlight text is the source URL; the note may narrow the window.
func (i *Importer) enqueueHighlight(ctx context.Context, userID uint, highlight Highlight) error {
	rawURL := highlight.Text
	if !supportedURL(rawURL) {
		log.Printf("[DEBUG] Skipping unsupported highlight url: %s", rawURL)
		return nil
	}

	start, end := i.window(ctx, userID, highlight.Note)

	source, err := i.sources.FindOrCreate(ctx, rawURL, models.DetectProvider(rawURL))
	if err != nil {
		return err
	}
	_, err = i.snippets.Enqueue(ctx, userID, source.ID, start, end)
	return err
}

// window derives the clip window from a highlight note. A well-formed
// M:SS-M:SS range wins; otherwise the clip starts at zero and runs for
// the user's configured duration.
func (i *Importer) window(ctx context.Context, userID uint, note string) (int, int) {
	if start, end, ok := timeparse.ParseTimeRange(note); ok {
		return start, end
	}
	duration := i.defaultDuration
	if value, err := i.setting(ctx, userID, models.SettingDefaultDuration); err == nil && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			duration = parsed
		}
	}
	if start, ok := timeparse.ParseClock(note); ok {
		return start, start + duration
	}
	return 0, duration
}

func (i *Importer) setting(ctx context.Context, userID uint, name string) (string, error) {
	var setting models.UserSetting
	err := i.db.WithContext(ctx).
		Where("user_id = ? AND name = ?", userID, name).
		First(&setting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to load setting %s: %w", name, err)
	}
	return setting.Value, nil
}

// syncedBookIDs lists the Readwise books the user chose to sync
func (i *Importer) syncedBookIDs(ctx context.Context, userID uint) ([]int, error) {
	var settings []models.UserSetting
	err := i.db.WithContext(ctx).
		Where("user_id = ? AND name = ?", userID, models.SettingReadwiseTitles).
		Find(&settings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load synced titles: %w", err)
	}

	ids := make([]int, 0, len(settings))
	for _, setting := range settings {
		id, err := strconv.Atoi(setting.Value)
		if err != nil {
			log.Printf("[ERROR] Invalid book id setting %q for user %d", setting.Value, userID)
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (i *Importer) watermark(ctx context.Context, userID uint) (time.Time, error) {
	var record models.ExternalSyncRecord
	err := i.db.WithContext(ctx).
		Where("user_id = ? AND service = ?", userID, ServiceName).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("failed to load sync record: %w", err)
	}
	return record.SyncedAt, nil
}

func (i *Importer) recordSync(ctx context.Context, userID uint) error {
	record := models.ExternalSyncRecord{
		UserID:   userID,
		Service:  ServiceName,
		SyncedAt: time.Now(),
	}
	err := i.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "service"}},
		DoUpdates: clause.AssignmentColumns([]string{"synced_at", "updated_at"}),
	}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("failed to record sync: %w", err)
	}
	return nil
}

// supportedURL filters highlight text down to fetchable audio pages
func supportedURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}
