package snippets

import (
	"github.com/gin-gonic/gin"

	"github.com/voxnote/snippets-api/api/types"
)

// RegisterRoutes registers snippet routes on the given group
func RegisterRoutes(group *gin.RouterGroup, deps *types.Dependencies) {
	group.POST("", Create(deps))
	group.GET("/queue", Queue(deps))
	group.PUT("/:id", Update(deps))
	group.POST("/:id/requeue", Requeue(deps))
	group.DELETE("/:id", Delete(deps))
}
