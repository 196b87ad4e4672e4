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

// CreateRelationshipHandler creates a directed typed edge, or strengthens
// the existing one when the same (source, target, type) edge exists.
func CreateRelationshipHandler(c echo.Context) error {
	type createRelationshipBody struct {
		SourceID int64  `json:"source_id" validate:"required,numeric"`
		TargetID int64  `json:"target_id" validate:"required,numeric"`
		Type     string `json:"relationship_type" validate:"required"`
		Strength int    `json:"strength" validate:"omitempty,min=1,max=10"`
		Notes    string `json:"notes"`
	}

	type createRelationshipResponse struct {
		Message      string              `json:"message"`
		Relationship *graph.Relationship `json:"relationship,omitempty"`
		Created      bool                `json:"created"`
	}

	data := new(createRelationshipBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, createRelationshipResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, createRelationshipResponse{
			Message: "Invalid request body",
		})
	}

	user := c.(*middleware.AppContext).User
	if user == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	ctx := c.Request().Context()
	st := c.(*middleware.AppContext).App.Store

	relationship, created, err := st.UpsertRelationship(ctx, store.UpsertRelationshipParams{
		SourceID: data.SourceID,
		TargetID: data.TargetID,
		Type:     data.Type,
		Strength: data.Strength,
		Notes:    data.Notes,
	})
	if err != nil {
		if errors.Is(err, graph.ErrInvalidArgument) {
			return c.JSON(http.StatusBadRequest, createRelationshipResponse{
				Message: err.Error(),
			})
		}
		if errors.Is(err, graph.ErrNotFound) {
			return c.JSON(http.StatusNotFound, createRelationshipResponse{
				Message: "Source or target entity not found",
			})
		}
		logger.Error("Failed to upsert relationship", "err", err)
		return c.JSON(http.StatusInternalServerError, createRelationshipResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, createRelationshipResponse{
		Message:      "Relationship saved successfully",
		Relationship: &relationship,
		Created:      created,
	})
}
