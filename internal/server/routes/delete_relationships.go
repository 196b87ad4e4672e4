package routes

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aurelia-app/aurelia/backend/internal/server/middleware"
	"github.com/aurelia-app/aurelia/backend/pkg/graph"
	"github.com/aurelia-app/aurelia/backend/pkg/logger"
)

func DeleteRelationshipHandler(c echo.Context) error {
	type deleteRelationshipData struct {
		ID int64 `param:"id" validate:"required,numeric"`
	}

	type deleteRelationshipResponse struct {
		Message string `json:"message"`
	}

	data := new(deleteRelationshipData)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, deleteRelationshipResponse{
			Message: "Invalid request params",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, deleteRelationshipResponse{
			Message: "Invalid request params",
		})
	}

	user := c.(*middleware.AppContext).User
	if user == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	ctx := c.Request().Context()
	st := c.(*middleware.AppContext).App.Store

	if err := st.DeleteRelationship(ctx, data.ID); err != nil {
		if errors.Is(err, graph.ErrNotFound) {
			return c.JSON(http.StatusNotFound, deleteRelationshipResponse{
				Message: "Relationship not found",
			})
		}
		logger.Error("Failed to delete relationship", "err", err)
		return c.JSON(http.StatusInternalServerError, deleteRelationshipResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, deleteRelationshipResponse{
		Message: "Relationship deleted successfully",
	})
}
