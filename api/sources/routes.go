package sources

import (
	"github.com/gin-gonic/gin"

	"github.com/voxnote/snippets-api/api/types"
)

// RegisterRoutes registers source routes on the given group
func RegisterRoutes(group *gin.RouterGroup, deps *types.Dependencies) {
	group.GET("", List(deps))
	group.GET("/:id/markdown", Markdown(deps))
	group.POST("/:id/sync", Sync(deps))
	group.DELETE("/:id", Delete(deps))
}
