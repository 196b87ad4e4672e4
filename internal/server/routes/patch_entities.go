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

func EditEntityHandler(c echo.Context) error {
	type editEntityData struct {
		ID          int64   `param:"id" validate:"required,numeric"`
		Description *string `json:"description"`
		Importance  *int    `json:"importance"`
		Color       *string `json:"color"`
	}

	type editEntityResponse struct {
		Message string        `json:"message"`
		Entity  *graph.Entity `json:"entity,omitempty"`
	}

	data := new(editEntityData)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, editEntityResponse{
			Message: "Invalid request params",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, editEntityResponse{
			Message: "Invalid request params",
		})
	}

	user := c.(*middleware.AppContext).User
	if user == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	ctx := c.Request().Context()
	st := c.(*middleware.AppContext).App.Store

	entity, err := st.UpdateEntity(ctx, data.ID, store.UpdateEntityParams{
		Description: data.Description,
		Importance:  data.Importance,
		Color:       data.Color,
	})
	if err != nil {
		if errors.Is(err, graph.ErrInvalidArgument) {
			return c.JSON(http.StatusBadRequest, editEntityResponse{
				Message: err.Error(),
			})
		}
		if errors.Is(err, graph.ErrNotFound) {
			return c.JSON(http.StatusNotFound, editEntityResponse{
				Message: "Entity not found",
			})
		}
		logger.Error("Failed to update entity", "err", err)
		return c.JSON(http.StatusInternalServerError, editEntityResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, editEntityResponse{
		Message: "Entity updated successfully",
		Entity:  &entity,
	})
}
