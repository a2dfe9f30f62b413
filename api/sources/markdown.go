package sources

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/voxnote/snippets-api/api/types"
	"github.com/voxnote/snippets-api/internal/services/export"
	sourcestore "github.com/voxnote/snippets-api/internal/services/sources"
)

// Markdown renders a source's snippets as a markdown document.
// Query params: latest=true limits to snippets since the last sync;
// exclude=header drops the title block.
func Markdown(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := types.ParseUintParam(c, "id")
		if !ok {
			return
		}

		opts := export.Options{
			LatestOnly:    strings.EqualFold(c.Query("latest"), "true"),
			ExcludeHeader: strings.Contains(c.Query("exclude"), "header"),
		}
		userID := types.CurrentUserID(c)

		doc, err := deps.ExportService.Markdown(c.Request.Context(), userID, id, opts)
		if err != nil {
			switch {
			case errors.Is(err, sourcestore.ErrSourceNotFound):
				types.SendNotFound(c, "Source not found")
			case errors.Is(err, export.ErrNothingToExport):
				c.JSON(http.StatusOK, types.MarkdownResponse{
					BaseResponse: types.BaseResponse{Status: types.StatusOK, Message: "Nothing to export"},
				})
			default:
				types.SendInternalError(c, "Failed to render markdown")
			}
			return
		}

		c.JSON(http.StatusOK, types.MarkdownResponse{
			BaseResponse: types.BaseResponse{Status: types.StatusOK},
			Markdown:     doc,
		})
	}
}
