package snippets

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/voxnote/snippets-api/api/types"
	snippetstore "github.com/voxnote/snippets-api/internal/services/snippets"
)

// Requeue puts a failed snippet back in the queue for another attempt
func Requeue(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := types.ParseUintParam(c, "id")
		if !ok {
			return
		}

		err := deps.SnippetService.Requeue(c.Request.Context(), id)
		if err != nil {
			switch {
			case errors.Is(err, snippetstore.ErrSnippetNotFound):
				types.SendNotFound(c, "Snippet not found")
			case errors.Is(err, snippetstore.ErrInvalidTransition):
				types.SendConflict(c, "Only failed snippets can be requeued")
			default:
				types.SendInternalError(c, "Failed to requeue snippet")
			}
			return
		}

		snippet, err := deps.SnippetService.GetByID(c.Request.Context(), id)
		if err != nil {
			types.SendInternalError(c, "Failed to load snippet")
			return
		}

		c.JSON(http.StatusAccepted, types.SnippetResponse{
			BaseResponse: types.BaseResponse{Status: types.StatusOK, Message: "Snippet requeued"},
			Snippet:      snippet,
		})
	}
}
