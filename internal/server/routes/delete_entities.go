package routes

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aurelia-app/aurelia/backend/internal/server/middleware"
	"github.com/aurelia-app/aurelia/backend/pkg/graph"
	"github.com/aurelia-app/aurelia/backend/pkg/logger"
)

// DeleteEntityHandler removes an entity and every relationship touching it.
func DeleteEntityHandler(c echo.Context) error {
	type deleteEntityData struct {
		ID int64 `param:"id" validate:"required,numeric"`
	}

	type deleteEntityResponse struct {
		Message string `json:"message"`
	}

	data := new(deleteEntityData)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, deleteEntityResponse{
			Message: "Invalid request params",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, deleteEntityResponse{
			Message: "Invalid request params",
		})
	}

	user := c.(*middleware.AppContext).User
	if user == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	ctx := c.Request().Context()
	st := c.(*middleware.AppContext).App.Store

	if err := st.DeleteEntity(ctx, data.ID); err != nil {
		if errors.Is(err, graph.ErrNotFound) {
			return c.JSON(http.StatusNotFound, deleteEntityResponse{
				Message: "Entity not found",
			})
		}
		logger.Error("Failed to delete entity", "err", err)
		return c.JSON(http.StatusInternalServerError, deleteEntityResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, deleteEntityResponse{
		Message: "Entity deleted successfully",
	})
}
