// Package extract turns one conversation turn into knowledge-graph writes.
// It asks the model to propose entities and relationships, reconciles them
// against the store (merge-or-create, strengthen-or-create) and reports
// counts. Extraction is best-effort: model failures degrade to an empty
// result and never fail the surrounding chat turn.
package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/aurelia-app/aurelia/backend/internal/util"
	"github.com/aurelia-app/aurelia/backend/pkg/ai"
	"github.com/aurelia-app/aurelia/backend/pkg/graph"
	"github.com/aurelia-app/aurelia/backend/pkg/logger"
	"github.com/aurelia-app/aurelia/backend/pkg/store"
)

const (
	// MaxUserMessageLen bounds the user half of a turn.
	MaxUserMessageLen = 10000
	// MaxAssistantMessageLen bounds the assistant half of a turn.
	MaxAssistantMessageLen = 20000

	extractionTries = 2
)

type proposedEntity struct {
	Name        string `json:"name" jsonschema_description:"Canonical name of the entity"`
	EntityType  string `json:"entity_type" jsonschema_description:"One of the allowed entity types"`
	Description string `json:"description" jsonschema_description:"One-sentence description of the entity"`
}

type proposedRelationship struct {
	SourceName       string  `json:"source_name" jsonschema_description:"Name of the source entity"`
	TargetName       string  `json:"target_name" jsonschema_description:"Name of the target entity"`
	RelationshipType string  `json:"relationship_type" jsonschema_description:"One of the allowed relationship types"`
	Notes            string  `json:"notes" jsonschema_description:"Short explanation of the connection"`
	Confidence       float64 `json:"confidence" jsonschema_description:"Confidence between 0 and 1"`
}

type extractResponse struct {
	Entities      []proposedEntity       `json:"entities" jsonschema_description:"Entities worth remembering, may be empty"`
	Relationships []proposedRelationship `json:"relationships" jsonschema_description:"Relationships between the entities, may be empty"`
}

// Result reports what one pipeline run did. The counts exist for
// observability; callers must not depend on them for correctness.
type Result struct {
	EntitiesProcessed      int `json:"entities_processed"`
	RelationshipsProcessed int `json:"relationships_processed"`
	RelationshipsCreated   int `json:"relationships_created"`
}

// Pipeline resolves model-proposed entities and relationships into the
// graph store.
type Pipeline struct {
	aiClient ai.GraphAIClient
	storage  store.GraphStorage
}

// NewPipeline creates an extraction pipeline over the given AI client and
// store.
func NewPipeline(aiClient ai.GraphAIClient, storage store.GraphStorage) *Pipeline {
	return &Pipeline{
		aiClient: aiClient,
		storage:  storage,
	}
}

// Run extracts from a single conversation turn and commits the results.
// Input validation errors are returned as graph.ErrInvalidArgument; model
// and parse failures are absorbed and produce an empty Result.
func (p *Pipeline) Run(ctx context.Context, userMessage, assistantMessage string) (Result, error) {
	if strings.TrimSpace(userMessage) == "" || strings.TrimSpace(assistantMessage) == "" {
		return Result{}, fmt.Errorf("%w: user_message and assistant_message are required", graph.ErrInvalidArgument)
	}
	if len(userMessage) > MaxUserMessageLen {
		return Result{}, fmt.Errorf("%w: user_message exceeds %d characters", graph.ErrInvalidArgument, MaxUserMessageLen)
	}
	if len(assistantMessage) > MaxAssistantMessageLen {
		return Result{}, fmt.Errorf("%w: assistant_message exceeds %d characters", graph.ErrInvalidArgument, MaxAssistantMessageLen)
	}

	proposal, ok := p.propose(ctx, userMessage, assistantMessage)
	if !ok {
		return Result{}, nil
	}

	return p.reconcile(ctx, proposal)
}

// propose runs the model call. The bool is false when extraction failed and
// the turn should be treated as empty.
func (p *Pipeline) propose(ctx context.Context, userMessage, assistantMessage string) (extractResponse, bool) {
	entityTypes := make([]string, 0, len(graph.EntityTypes))
	for _, t := range graph.EntityTypes {
		entityTypes = append(entityTypes, string(t))
	}
	relTypes := make([]string, 0, len(graph.RelationshipTypes))
	for _, t := range graph.RelationshipTypes {
		relTypes = append(relTypes, string(t))
	}

	systemPrompt := fmt.Sprintf(
		ai.ExtractPrompt,
		strings.Join(entityTypes, ", "),
		strings.Join(relTypes, ", "),
	)
	turn := fmt.Sprintf("User: %s\n\nAssistant: %s", userMessage, assistantMessage)

	var res extractResponse
	err := util.RetryErrWithContext(ctx, extractionTries, func(ctx context.Context) error {
		res = extractResponse{}
		return p.aiClient.GenerateCompletionWithFormat(
			ctx,
			"extract_entities_and_relationships",
			"Extract entities and relationships worth remembering from one conversation turn.",
			turn,
			&res,
			ai.WithSystemPrompts(systemPrompt),
		)
	})
	if err != nil {
		logger.Warn("[Extract] Extraction call failed, skipping turn", "err", err)
		return extractResponse{}, false
	}
	return res, true
}

func (p *Pipeline) reconcile(ctx context.Context, proposal extractResponse) (Result, error) {
	var result Result

	// Resolve entities first and remember them by lowercased name so
	// relationships proposed in the same batch skip the store lookup.
	batch := make(map[string]graph.Entity, len(proposal.Entities))
	for _, pe := range proposal.Entities {
		if _, err := graph.ParseEntityType(pe.EntityType); err != nil {
			logger.Debug("[Extract] Skipping entity with unknown type", "name", pe.Name, "type", pe.EntityType)
			continue
		}
		entity, _, err := p.storage.UpsertEntity(ctx, store.UpsertEntityParams{
			Type:        pe.EntityType,
			Name:        pe.Name,
			Description: pe.Description,
		})
		if err != nil {
			logger.Warn("[Extract] Failed to upsert entity", "name", pe.Name, "err", err)
			continue
		}
		batch[strings.ToLower(entity.Name)] = entity
		if raw := strings.ToLower(strings.TrimSpace(pe.Name)); raw != "" {
			batch[raw] = entity
		}
		result.EntitiesProcessed++
	}

	for _, pr := range proposal.Relationships {
		if _, err := graph.ParseRelationshipType(pr.RelationshipType); err != nil {
			logger.Debug("[Extract] Skipping relationship with unknown type", "type", pr.RelationshipType)
			continue
		}

		source, err := p.resolveEndpoint(ctx, batch, pr.SourceName)
		if err != nil {
			return result, err
		}
		target, err := p.resolveEndpoint(ctx, batch, pr.TargetName)
		if err != nil {
			return result, err
		}
		if source == nil || target == nil {
			// Dropping beats dangling: an edge with an unresolvable
			// endpoint is skipped without failing the batch.
			logger.Debug("[Extract] Skipping unresolvable relationship",
				"source", pr.SourceName, "target", pr.TargetName, "type", pr.RelationshipType)
			continue
		}

		_, created, err := p.storage.UpsertRelationship(ctx, store.UpsertRelationshipParams{
			SourceID: source.ID,
			TargetID: target.ID,
			Type:     pr.RelationshipType,
			Strength: graph.StrengthFromConfidence(pr.Confidence),
			Notes:    pr.Notes,
		})
		if err != nil {
			logger.Warn("[Extract] Failed to upsert relationship",
				"source", pr.SourceName, "target", pr.TargetName, "err", err)
			continue
		}
		result.RelationshipsProcessed++
		if created {
			result.RelationshipsCreated++
		}
	}

	logger.Info("[Extract] Turn processed",
		"entities", result.EntitiesProcessed,
		"relationships", result.RelationshipsProcessed,
		"created", result.RelationshipsCreated,
	)
	return result, nil
}

func (p *Pipeline) resolveEndpoint(ctx context.Context, batch map[string]graph.Entity, name string) (*graph.Entity, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, nil
	}
	if e, ok := batch[key]; ok {
		return &e, nil
	}
	return p.storage.FindEntityByName(ctx, name)
}
