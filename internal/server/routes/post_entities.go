package routes

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aurelia-app/aurelia/backend/internal/server/middleware"
	"github.com/aurelia-app/aurelia/backend/pkg/graph"
	"github.com/aurelia-app/aurelia/backend/pkg/logger"
	"github.com/aurelia-app/aurelia/backend/pkg/store"
)

// CreateEntityHandler creates an entity, or bumps the existing one when the
// name already exists case-insensitively.
func CreateEntityHandler(c echo.Context) error {
	type createEntityBody struct {
		Type        string `json:"entity_type" validate:"required"`
		Name        string `json:"name" validate:"required"`
		Description string `json:"description"`
		Importance  int    `json:"importance" validate:"omitempty,min=1,max=10"`
		Color       string `json:"color"`
	}

	type createEntityResponse struct {
		Message string        `json:"message"`
		Entity  *graph.Entity `json:"entity,omitempty"`
		Created bool          `json:"created"`
	}

	data := new(createEntityBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, createEntityResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, createEntityResponse{
			Message: "Invalid request body",
		})
	}

	user := c.(*middleware.AppContext).User
	if user == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	ctx := c.Request().Context()
	st := c.(*middleware.AppContext).App.Store

	entity, created, err := st.UpsertEntity(ctx, store.UpsertEntityParams{
		Type:        data.Type,
		Name:        data.Name,
		Description: data.Description,
		Importance:  data.Importance,
		Color:       data.Color,
	})
	if err != nil {
		if errors.Is(err, graph.ErrInvalidArgument) {
			return c.JSON(http.StatusBadRequest, createEntityResponse{
				Message: err.Error(),
			})
		}
		logger.Error("Failed to upsert entity", "err", err)
		return c.JSON(http.StatusInternalServerError, createEntityResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, createEntityResponse{
		Message: "Entity saved successfully",
		Entity:  &entity,
		Created: created,
	})
}
