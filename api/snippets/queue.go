package snippets

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/voxnote/snippets-api/api/types"
)

// Queue returns the caller's pending and recently completed snippets
func Queue(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := types.CurrentUserID(c)

		items, err := deps.SnippetService.UserQueue(c.Request.Context(), userID)
		if err != nil {
			types.SendInternalError(c, "Failed to load queue")
			return
		}

		c.JSON(http.StatusOK, types.SnippetQueueResponse{
			BaseResponse: types.BaseResponse{Status: types.StatusOK},
			Snippets:     items,
			Count:        len(items),
		})
	}
}
