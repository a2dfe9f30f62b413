package models

import (
	"time"

	"gorm.io/gorm"
)

// SyncRecord is a per (user, source) watermark of the last markdown export,
// used for incremental exports. Append-or-update, never deleted by the
// pipeline.
type SyncRecord struct {
	gorm.Model
	UserID   uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_sync_user_source"`
	SourceID uint      `json:"source_id" gorm:"not null;uniqueIndex:idx_sync_user_source"`
	SyncedAt time.Time `json:"synced_at" gorm:"not null"`
}

// TableName specifies the table name for GORM
func (SyncRecord) TableName() string {
	return "sync_records"
}

// ExternalSyncRecord is a per (user, external service) watermark with the
// same semantics as SyncRecord, keyed by service name instead of source.
type ExternalSyncRecord struct {
	gorm.Model
	UserID   uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_ext_sync_user_service"`
	Service  string    `json:"service" gorm:"not null;size:50;uniqueIndex:idx_ext_sync_user_service"`
	SyncedAt time.Time `json:"synced_at" gorm:"not null"`
}

// TableName specifies the table name for GORM
func (ExternalSyncRecord) TableName() string {
	return "external_sync_records"
}
