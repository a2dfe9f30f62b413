package sources

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/voxnote/snippets-api/api/types"
	sourcestore "github.com/voxnote/snippets-api/internal/services/sources"
)

// Delete removes a source and all of its snippets
func Delete(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := types.ParseUintParam(c, "id")
		if !ok {
			return
		}

		if err := deps.SourceService.Delete(c.Request.Context(), id); err != nil {
			if errors.Is(err, sourcestore.ErrSourceNotFound) {
				types.SendNotFound(c, "Source not found")
				return
			}
			types.SendInternalError(c, "Failed to delete source")
			return
		}

		c.JSON(http.StatusOK, types.BaseResponse{Status: types.StatusOK, Message: "Source deleted"})
	}
}
