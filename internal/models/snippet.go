package models

import (
	"gorm.io/gorm"
)

// SnippetStatus represents the status of a snippet in the acquisition pipeline
type SnippetStatus string

const (
	SnippetStatusQueued       SnippetStatus = "queued"
	SnippetStatusProcessing   SnippetStatus = "processing"
	SnippetStatusDownloading  SnippetStatus = "downloading"
	SnippetStatusTranscribing SnippetStatus = "transcribing"
	SnippetStatusDone         SnippetStatus = "done"
	SnippetStatusFailed       SnippetStatus = "failed"
)

// statusRank orders the pipeline states. A snippet's status only moves
// forward along this order; the single exception is failed→queued on a
// manual requeue.
var statusRank = map[SnippetStatus]int{
	SnippetStatusQueued:       0,
	SnippetStatusProcessing:   1,
	SnippetStatusDownloading:  2,
	SnippetStatusTranscribing: 3,
	SnippetStatusDone:         4,
	SnippetStatusFailed:       5,
}

// CanTransition reports whether moving from s to next is a legal forward
// step. Every transition advances exactly one state; failed is reachable
// from any in-flight state.
func (s SnippetStatus) CanTransition(next SnippetStatus) bool {
	if next == SnippetStatusFailed {
		return s != SnippetStatusDone && s != SnippetStatusFailed
	}
	return statusRank[next] == statusRank[s]+1 && s != SnippetStatusFailed
}

// InFlight reports whether the status counts against the concurrency gate.
func (s SnippetStatus) InFlight() bool {
	switch s {
	case SnippetStatusProcessing, SnippetStatusDownloading, SnippetStatusTranscribing:
		return true
	}
	return false
}

// Terminal reports whether the snippet has left the pipeline.
func (s SnippetStatus) Terminal() bool {
	return s == SnippetStatusDone || s == SnippetStatusFailed
}

// InFlightStatuses is the set of statuses counted by the concurrency gate.
var InFlightStatuses = []SnippetStatus{
	SnippetStatusProcessing,
	SnippetStatusDownloading,
	SnippetStatusTranscribing,
}

// Snippet is one user's requested time-windowed clip of a Source. The
// (user, source, start, end) tuple is unique; duplicate requests collapse
// to the existing row.
type Snippet struct {
	gorm.Model
	UserID    uint          `json:"user_id" gorm:"not null;uniqueIndex:idx_snippets_identity"`
	SourceID  uint          `json:"source_id" gorm:"not null;uniqueIndex:idx_snippets_identity"`
	StartTime int           `json:"start_time" gorm:"not null;uniqueIndex:idx_snippets_identity"`
	EndTime   int           `json:"end_time" gorm:"not null;uniqueIndex:idx_snippets_identity"`
	Status    SnippetStatus `json:"status" gorm:"default:'queued';index;size:20"`
	Text      string        `json:"text" gorm:"type:text"`

	// Failure classification, set when status is failed
	FailureStage  string `json:"failure_stage,omitempty" gorm:"size:20"`
	FailureReason string `json:"failure_reason,omitempty" gorm:"size:500"`
}

// Duration returns the requested clip length in seconds.
func (s *Snippet) Duration() int {
	return s.EndTime - s.StartTime
}

// TableName specifies the table name for GORM
func (Snippet) TableName() string {
	return "snippets"
}

// PipelineStage names the stage of the pipeline in which an error occurred
type PipelineStage string

const (
	StageResolve    PipelineStage = "resolve"
	StageDownload   PipelineStage = "download"
	StageClip       PipelineStage = "clip"
	StageTranscribe PipelineStage = "transcribe"
	StageStore      PipelineStage = "store"
)

// PipelineError is a structured error carrying the stage that produced it,
// persisted onto the snippet when the pipeline gives up on an item.
type PipelineError struct {
	Stage    PipelineStage
	Code     string
	Message  string
	Original error
}

func (e *PipelineError) Error() string {
	return e.Message
}

func (e *PipelineError) Unwrap() error {
	return e.Original
}

// NewDownloadError creates a download-stage structured error
func NewDownloadError(code, message string, originalErr error) *PipelineError {
	return &PipelineError{Stage: StageDownload, Code: code, Message: message, Original: originalErr}
}

// NewClipError creates a clip-stage structured error
func NewClipError(code, message string, originalErr error) *PipelineError {
	return &PipelineError{Stage: StageClip, Code: code, Message: message, Original: originalErr}
}

// NewTranscribeError creates a transcription-stage structured error
func NewTranscribeError(code, message string, originalErr error) *PipelineError {
	return &PipelineError{Stage: StageTranscribe, Code: code, Message: message, Original: originalErr}
}
