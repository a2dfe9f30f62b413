package sources

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/voxnote/snippets-api/api/types"
	sourcestore "github.com/voxnote/snippets-api/internal/services/sources"
)

// Sync records that the caller exported this source just now, so the
// next latest-only export starts from here.
func Sync(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := types.ParseUintParam(c, "id")
		if !ok {
			return
		}
		userID := types.CurrentUserID(c)

		// Verify the source exists before recording anything
		if _, err := deps.SourceService.GetByID(c.Request.Context(), id); err != nil {
			if errors.Is(err, sourcestore.ErrSourceNotFound) {
				types.SendNotFound(c, "Source not found")
				return
			}
			types.SendInternalError(c, "Failed to load source")
			return
		}

		if err := deps.ExportService.RecordSync(c.Request.Context(), userID, id); err != nil {
			types.SendInternalError(c, "Failed to record sync")
			return
		}

		c.JSON(http.StatusOK, types.BaseResponse{Status: types.StatusOK, Message: "Sync recorded"})
	}
}
