package sources

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/voxnote/snippets-api/api/types"
)

// List returns the caller's sources with their completed snippets
func List(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := types.CurrentUserID(c)

		items, err := deps.SourceService.ListForUser(c.Request.Context(), userID)
		if err != nil {
			types.SendInternalError(c, "Failed to load sources")
			return
		}

		c.JSON(http.StatusOK, types.SourcesResponse{
			BaseResponse: types.BaseResponse{Status: types.StatusOK},
			Sources:      items,
			Count:        len(items),
		})
	}
}
