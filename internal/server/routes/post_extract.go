package routes

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aurelia-app/aurelia/backend/internal/queue"
	"github.com/aurelia-app/aurelia/backend/internal/server/middleware"
	"github.com/aurelia-app/aurelia/backend/internal/util"
	"github.com/aurelia-app/aurelia/backend/pkg/extract"
	"github.com/aurelia-app/aurelia/backend/pkg/graph"
	"github.com/aurelia-app/aurelia/backend/pkg/logger"
)

type extractBody struct {
	UserMessage      string `json:"user_message" validate:"required"`
	AssistantMessage string `json:"assistant_message" validate:"required"`
}

func bindExtractBody(c echo.Context) (*extractBody, int, string) {
	data := new(extractBody)
	if err := c.Bind(data); err != nil {
		return nil, http.StatusBadRequest, "Invalid request body"
	}
	if err := c.Validate(data); err != nil {
		return nil, http.StatusBadRequest, "Invalid request body"
	}
	if len(data.UserMessage) > extract.MaxUserMessageLen ||
		len(data.AssistantMessage) > extract.MaxAssistantMessageLen {
		return nil, http.StatusBadRequest, "Message too long"
	}
	return data, 0, ""
}

// ExtractHandler runs the extraction pipeline synchronously. An extraction
// that finds nothing is a success with zero counts, not an error.
func ExtractHandler(c echo.Context) error {
	type extractResponse struct {
		Message                string `json:"message"`
		EntitiesProcessed      int    `json:"entities_processed"`
		RelationshipsProcessed int    `json:"relationships_processed"`
		RelationshipsCreated   int    `json:"relationships_created"`
	}

	data, status, msg := bindExtractBody(c)
	if data == nil {
		return c.JSON(status, extractResponse{Message: msg})
	}

	user := c.(*middleware.AppContext).User
	if user == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	pipeline := extract.NewPipeline(app.AiClient, app.Store)
	result, err := pipeline.Run(ctx, data.UserMessage, data.AssistantMessage)
	if err != nil {
		if errors.Is(err, graph.ErrInvalidArgument) {
			return c.JSON(http.StatusBadRequest, extractResponse{
				Message: err.Error(),
			})
		}
		logger.Error("Extraction failed", "err", err)
		return c.JSON(http.StatusInternalServerError, extractResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, extractResponse{
		Message:                "Extraction completed",
		EntitiesProcessed:      result.EntitiesProcessed,
		RelationshipsProcessed: result.RelationshipsProcessed,
		RelationshipsCreated:   result.RelationshipsCreated,
	})
}

// ExtractAsyncHandler queues the turn for the worker and returns
// immediately. The chat flow publishes here after saving a reply, so the
// user-visible response never waits on extraction.
func ExtractAsyncHandler(c echo.Context) error {
	type extractAsyncResponse struct {
		Message string `json:"message"`
	}

	data, status, msg := bindExtractBody(c)
	if data == nil {
		return c.JSON(status, extractAsyncResponse{Message: msg})
	}

	user := c.(*middleware.AppContext).User
	if user == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	queueData := queue.ExtractMessage{
		UserMessage:      data.UserMessage,
		AssistantMessage: data.AssistantMessage,
	}

	ch := c.(*middleware.AppContext).App.Queue
	if err := queue.PublishFIFO(ch, queue.ExtractQueue, []byte(util.ConvertStructToJson(queueData))); err != nil {
		logger.Error("Failed to publish to extract_queue", "err", err)
		return c.JSON(http.StatusInternalServerError, extractAsyncResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusAccepted, extractAsyncResponse{
		Message: "Extraction queued",
	})
}
