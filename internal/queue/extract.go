package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aurelia-app/aurelia/backend/pkg/ai"
	"github.com/aurelia-app/aurelia/backend/pkg/extract"
	"github.com/aurelia-app/aurelia/backend/pkg/graph"
	"github.com/aurelia-app/aurelia/backend/pkg/logger"
	pgxstore "github.com/aurelia-app/aurelia/backend/pkg/store/pgx"
)

// ExtractMessage is the payload published to the extract queue after a chat
// turn is saved.
type ExtractMessage struct {
	UserMessage      string `json:"user_message"`
	AssistantMessage string `json:"assistant_message"`
}

// ProcessExtractMessage runs the extraction pipeline for one queued turn.
// A malformed or invalid payload is dropped rather than retried; only
// storage failures bubble up into the retry loop.
func ProcessExtractMessage(
	ctx context.Context,
	aiClient ai.GraphAIClient,
	conn *pgxpool.Pool,
	body string,
) error {
	var msg ExtractMessage
	if err := json.Unmarshal([]byte(body), &msg); err != nil {
		logger.Error("Dropping malformed extract message", "err", err)
		return nil
	}

	pipeline := extract.NewPipeline(aiClient, pgxstore.NewGraphDBStorage(conn))
	result, err := pipeline.Run(ctx, msg.UserMessage, msg.AssistantMessage)
	if err != nil {
		if errors.Is(err, graph.ErrInvalidArgument) {
			logger.Error("Dropping invalid extract message", "err", err)
			return nil
		}
		return fmt.Errorf("run extraction pipeline: %w", err)
	}

	logger.Info("Extraction finished",
		"entities", result.EntitiesProcessed,
		"relationships", result.RelationshipsProcessed,
		"created", result.RelationshipsCreated,
	)
	return nil
}
