package routes

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/aurelia-app/aurelia/backend/internal/server/middleware"
	"github.com/aurelia-app/aurelia/backend/internal/util"
	"github.com/aurelia-app/aurelia/backend/pkg/graph"
	"github.com/aurelia-app/aurelia/backend/pkg/logger"
	"github.com/aurelia-app/aurelia/backend/pkg/query"
)

// QueryGraphHandler answers a free-text question with the relevant graph
// slice and its serialized context block.
func QueryGraphHandler(c echo.Context) error {
	type queryGraphBody struct {
		Question              string `json:"question" validate:"required"`
		IncludeHighImportance *bool  `json:"include_high_importance"`
	}

	type queryGraphError struct {
		Message string `json:"message"`
	}

	data := new(queryGraphBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, queryGraphError{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, queryGraphError{
			Message: "Invalid request body",
		})
	}

	user := c.(*middleware.AppContext).User
	if user == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	includeBackbone := true
	if data.IncludeHighImportance != nil {
		includeBackbone = *data.IncludeHighImportance
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	conceptTimeout := time.Duration(util.GetEnvNumeric("QUERY_CONCEPT_TIMEOUT_MS", 10000)) * time.Millisecond
	engine := query.NewEngine(app.AiClient, app.Store, query.WithConceptTimeout(conceptTimeout))

	result, err := engine.Query(ctx, data.Question, includeBackbone)
	if err != nil {
		if errors.Is(err, graph.ErrInvalidArgument) {
			return c.JSON(http.StatusBadRequest, queryGraphError{
				Message: err.Error(),
			})
		}
		logger.Error("Graph query failed", "err", err)
		return c.JSON(http.StatusInternalServerError, queryGraphError{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, result)
}
