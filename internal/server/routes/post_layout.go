package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aurelia-app/aurelia/backend/internal/server/middleware"
	"github.com/aurelia-app/aurelia/backend/pkg/layout"
	"github.com/aurelia-app/aurelia/backend/pkg/logger"
	"github.com/aurelia-app/aurelia/backend/pkg/store"
)

// LayoutGraphHandler computes 2D positions for the full graph. Positions
// are not persisted; the frontend reruns the simulation after drags.
func LayoutGraphHandler(c echo.Context) error {
	type layoutBody struct {
		Width  float64 `json:"width" validate:"omitempty,min=100"`
		Height float64 `json:"height" validate:"omitempty,min=100"`
		Steps  int     `json:"steps" validate:"omitempty,min=1,max=1000"`
		Seed   int64   `json:"seed"`
	}

	type layoutResponse struct {
		Message   string                    `json:"message,omitempty"`
		Positions map[int64]layout.Position `json:"positions"`
	}

	data := new(layoutBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, layoutResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, layoutResponse{
			Message: "Invalid request body",
		})
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
		return c.JSON(http.StatusInternalServerError, layoutResponse{
			Message: "Internal server error",
		})
	}
	relationships, err := st.ListRelationships(ctx, store.RelationshipFilter{})
	if err != nil {
		logger.Error("Failed to list relationships", "err", err)
		return c.JSON(http.StatusInternalServerError, layoutResponse{
			Message: "Internal server error",
		})
	}

	sim := layout.NewSimulation(entities, relationships, layout.Config{
		Width:  data.Width,
		Height: data.Height,
		Steps:  data.Steps,
		Seed:   data.Seed,
	})

	return c.JSON(http.StatusOK, layoutResponse{
		Positions: sim.Run(),
	})
}
