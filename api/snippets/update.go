package snippets

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/voxnote/snippets-api/api/types"
	snippetstore "github.com/voxnote/snippets-api/internal/services/snippets"
)

// UpdateRequest carries an edited transcript
type UpdateRequest struct {
	Text string `json:"text" binding:"required"`
}

// Update handles transcript edits
func Update(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := types.ParseUintParam(c, "id")
		if !ok {
			return
		}

		var req UpdateRequest
		if !types.BindJSONOrError(c, &req) {
			return
		}

		if err := deps.SnippetService.UpdateText(c.Request.Context(), id, req.Text); err != nil {
			if errors.Is(err, snippetstore.ErrSnippetNotFound) {
				types.SendNotFound(c, "Snippet not found")
				return
			}
			types.SendInternalError(c, "Failed to update snippet")
			return
		}

		snippet, err := deps.SnippetService.GetByID(c.Request.Context(), id)
		if err != nil {
			types.SendInternalError(c, "Failed to load snippet")
			return
		}

		c.JSON(http.StatusOK, types.SnippetResponse{
			BaseResponse: types.BaseResponse{Status: types.StatusOK},
			Snippet:      snippet,
		})
	}
}
