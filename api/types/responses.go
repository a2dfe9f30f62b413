package types

import "github.com/voxnote/snippets-api/internal/models"

// Status constants for API responses
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// BaseResponse contains fields common to all API responses
type BaseResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse for failed requests
type ErrorResponse struct {
	Status  string      `json:"status"`
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

// SnippetResponse wraps a single snippet
type SnippetResponse struct {
	BaseResponse
	Snippet *models.Snippet `json:"snippet"`
}

// SnippetQueueResponse is the user's queue view
type SnippetQueueResponse struct {
	BaseResponse
	Snippets []models.Snippet `json:"snippets"`
	Count    int              `json:"count"`
}

// SourcesResponse lists a user's sources
type SourcesResponse struct {
	BaseResponse
	Sources []models.Source `json:"sources"`
	Count   int             `json:"count"`
}

// MarkdownResponse carries a rendered export
type MarkdownResponse struct {
	BaseResponse
	Markdown string `json:"markdown"`
}
