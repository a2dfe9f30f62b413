package snippets

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/voxnote/snippets-api/api/types"
	"github.com/voxnote/snippets-api/internal/models"
	"github.com/voxnote/snippets-api/pkg/timeparse"
)

// CreateRequest is the enqueue payload. The window can come from an
// explicit start/end pair, a time plus duration, or a marker embedded
// in the URL itself.
type CreateRequest struct {
	URL      string `json:"url" binding:"required"`
	Time     string `json:"time"`
	Duration int    `json:"duration"`
	Start    *int   `json:"start"`
	End      *int   `json:"end"`
}

// Create handles snippet enqueue requests
func Create(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateRequest
		if !types.BindJSONOrError(c, &req) {
			return
		}

		start, end, ok := resolveWindow(&req, deps.DefaultDuration)
		if !ok {
			types.SendBadRequest(c, "Invalid time window: end must be after start")
			return
		}

		userID := types.CurrentUserID(c)
		provider := models.DetectProvider(req.URL)

		source, err := deps.SourceService.FindOrCreate(c.Request.Context(), req.URL, provider)
		if err != nil {
			types.SendInternalError(c, "Failed to register source")
			return
		}

		snippet, err := deps.SnippetService.Enqueue(c.Request.Context(), userID, source.ID, start, end)
		if err != nil {
			types.SendInternalError(c, "Failed to enqueue snippet")
			return
		}

		c.JSON(http.StatusAccepted, types.SnippetResponse{
			BaseResponse: types.BaseResponse{Status: types.StatusOK, Message: "Snippet queued"},
			Snippet:      snippet,
		})
	}
}

// resolveWindow derives the clip window from the request. Precedence:
// explicit start/end, then the time field, then a t marker in the URL.
func resolveWindow(req *CreateRequest, defaultDuration int) (int, int, bool) {
	if req.Start != nil && req.End != nil {
		if *req.Start < 0 || *req.End <= *req.Start {
			return 0, 0, false
		}
		return *req.Start, *req.End, true
	}

	duration := req.Duration
	if duration <= 0 {
		duration = defaultDuration
	}

	start := 0
	if req.Time != "" {
		if clock, ok := timeparse.ParseClock(req.Time); ok {
			start = clock
		} else if seconds, err := strconv.Atoi(req.Time); err == nil && seconds >= 0 {
			start = seconds
		}
	} else if marker, ok := timeparse.ExtractTimeMarker(req.URL); ok {
		start = marker
	}

	return start, start + duration, true
}
