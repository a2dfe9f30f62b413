package api

import (
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/voxnote/snippets-api/api/health"
	"github.com/voxnote/snippets-api/api/snippets"
	"github.com/voxnote/snippets-api/api/sources"
	"github.com/voxnote/snippets-api/api/types"
	"github.com/voxnote/snippets-api/api/version"
)

// RegisterRoutes registers all API routes
func RegisterRoutes(engine *gin.Engine, deps *types.Dependencies, rateLimiters *sync.Map, cleanupStop chan struct{}, cleanupInitialized *sync.Once) error {
	// Public routes, no rate limiting
	health.RegisterRoutes(engine, deps)
	version.RegisterRoutes(engine)

	engine.NoRoute(NotFoundHandler())

	if deps == nil {
		deps = &types.Dependencies{}
	}

	v1 := engine.Group("/api/v1")

	// Snippet routes: enqueue is cheap but kicks off heavy background
	// work, so keep the limit modest (5 req/s, burst of 10)
	snippetGroup := v1.Group("/snippets")
	snippetGroup.Use(PerClientRateLimit(rateLimiters, cleanupStop, cleanupInitialized, 5, 10))
	snippets.RegisterRoutes(snippetGroup, deps)

	// Source routes are read-heavy (10 req/s, burst of 20)
	sourceGroup := v1.Group("/sources")
	sourceGroup.Use(PerClientRateLimit(rateLimiters, cleanupStop, cleanupInitialized, 10, 20))
	sources.RegisterRoutes(sourceGroup, deps)

	return nil
}
