package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aurelia-app/aurelia/backend/internal/server/middleware"
	"github.com/aurelia-app/aurelia/backend/pkg/graph"
	"github.com/aurelia-app/aurelia/backend/pkg/logger"
	"github.com/aurelia-app/aurelia/backend/pkg/store"
)

// GetGraphHandler returns the full knowledge graph for visualization.
func GetGraphHandler(c echo.Context) error {
	type getGraphResponse struct {
		Message       string               `json:"message,omitempty"`
		Entities      []graph.Entity       `json:"entities"`
		Relationships []graph.Relationship `json:"relationships"`
	}

	user := c.(*middleware.AppContext).User
	if user == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	ctx := c.Request().Context()
	st := c.(*middleware.AppContext).App.Store

	entities, err := st.ListEntities(ctx, store.EntityFilter{})
	if err != nil {
		logger.Error("Failed to list entities", "err", err)
		return c.JSON(http.StatusInternalServerError, getGraphResponse{
			Message: "Internal server error",
		})
	}
	relationships, err := st.ListRelationships(ctx, store.RelationshipFilter{})
	if err != nil {
		logger.Error("Failed to list relationships", "err", err)
		return c.JSON(http.StatusInternalServerError, getGraphResponse{
			Message: "Internal server error",
		})
	}

	if entities == nil {
		entities = []graph.Entity{}
	}
	if relationships == nil {
		relationships = []graph.Relationship{}
	}

	return c.JSON(http.StatusOK, getGraphResponse{
		Entities:      entities,
		Relationships: relationships,
	})
}
