package snippets

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/voxnote/snippets-api/api/types"
	snippetstore "github.com/voxnote/snippets-api/internal/services/snippets"
)

// Delete removes a snippet
func Delete(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := types.ParseUintParam(c, "id")
		if !ok {
			return
		}

		if err := deps.SnippetService.Delete(c.Request.Context(), id); err != nil {
			if errors.Is(err, snippetstore.ErrSnippetNotFound) {
				types.SendNotFound(c, "Snippet not found")
				return
			}
			types.SendInternalError(c, "Failed to delete snippet")
			return
		}

		c.JSON(http.StatusOK, types.BaseResponse{Status: types.StatusOK, Message: "Snippet deleted"})
	}
}
