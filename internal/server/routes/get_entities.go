package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aurelia-app/aurelia/backend/internal/server/middleware"
	"github.com/aurelia-app/aurelia/backend/pkg/graph"
	"github.com/aurelia-app/aurelia/backend/pkg/logger"
	"github.com/aurelia-app/aurelia/backend/pkg/store"
)

// GetEntitiesHandler lists entities, optionally filtered by type and a
// name substring.
func GetEntitiesHandler(c echo.Context) error {
	type getEntitiesQuery struct {
		Type string `query:"type"`
		Q    string `query:"q"`
	}

	type getEntitiesResponse struct {
		Message  string         `json:"message,omitempty"`
		Entities []graph.Entity `json:"entities"`
	}

	data := new(getEntitiesQuery)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, getEntitiesResponse{
			Message: "Invalid request params",
		})
	}
	if data.Type != "" {
		if _, err := graph.ParseEntityType(data.Type); err != nil {
			return c.JSON(http.StatusBadRequest, getEntitiesResponse{
				Message: "Unknown entity type",
			})
		}
	}

	user := c.(*middleware.AppContext).User
	if user == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	ctx := c.Request().Context()
	st := c.(*middleware.AppContext).App.Store

	entities, err := st.ListEntities(ctx, store.EntityFilter{
		Type:      data.Type,
		NameQuery: data.Q,
	})
	if err != nil {
		logger.Error("Failed to list entities", "err", err)
		return c.JSON(http.StatusInternalServerError, getEntitiesResponse{
			Message: "Internal server error",
		})
	}
	if entities == nil {
		entities = []graph.Entity{}
	}

	return c.JSON(http.StatusOK, getEntitiesResponse{
		Entities: entities,
	})
}
