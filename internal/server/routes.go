package server

import (
	"github.com/labstack/echo/v4"

	"github.com/aurelia-app/aurelia/backend/internal/server/middleware"
	"github.com/aurelia-app/aurelia/backend/internal/server/routes"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Graph routes
	apiRoutes.GET("/graph", routes.GetGraphHandler)
	apiRoutes.POST("/graph/layout", routes.LayoutGraphHandler)

	// Entity routes
	apiRoutes.GET("/entities", routes.GetEntitiesHandler)
	apiRoutes.POST("/entities", routes.CreateEntityHandler)
	apiRoutes.PATCH("/entities/:id", routes.EditEntityHandler)
	apiRoutes.DELETE("/entities/:id", routes.DeleteEntityHandler)

	// Relationship routes
	apiRoutes.POST("/relationships", routes.CreateRelationshipHandler)
	apiRoutes.DELETE("/relationships/:id", routes.DeleteRelationshipHandler)

	// Extraction routes
	apiRoutes.POST("/extract", routes.ExtractHandler)
	apiRoutes.POST("/extract/async", routes.ExtractAsyncHandler)

	// Retrieval routes
	apiRoutes.POST("/query", routes.QueryGraphHandler)
}
