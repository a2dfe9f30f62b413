package types

import (
	"github.com/voxnote/snippets-api/internal/database"
	"github.com/voxnote/snippets-api/internal/services/export"
	"github.com/voxnote/snippets-api/internal/services/snippets"
	"github.com/voxnote/snippets-api/internal/services/sources"
)

// Dependencies holds all the dependencies needed by handlers
type Dependencies struct {
	DB             *database.DB
	SnippetService snippets.Service
	SourceService  sources.Service
	ExportService  export.Service

	// DefaultDuration is the clip length in seconds used when a request
	// carries no explicit end or duration
	DefaultDuration int
}
