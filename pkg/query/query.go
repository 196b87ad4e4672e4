// Package query implements graph-retrieval-augmented generation: it turns a
// free-text question into a serialized slice of the knowledge graph suitable
// for injection into an LLM prompt. The retrieval runs in the critical path
// of a chat reply, so the one LLM call it makes (concept extraction) carries
// a deadline and degrades to an empty concept list on failure.
package query

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aurelia-app/aurelia/backend/pkg/ai"
	"github.com/aurelia-app/aurelia/backend/pkg/graph"
	"github.com/aurelia-app/aurelia/backend/pkg/logger"
	"github.com/aurelia-app/aurelia/backend/pkg/store"
)

const (
	// MaxQuestionLen bounds the question accepted by Query.
	MaxQuestionLen = 2000
	// DefaultConceptTimeout is the budget for the concept-extraction LLM
	// call before the engine falls back to an empty concept list.
	DefaultConceptTimeout = 10 * time.Second

	maxConcepts           = 6
	seedMatchesPerConcept = 5
	backboneMinImportance = 7
	backboneLimit         = 10
	traversalHops         = 2
	causalSeedLimit       = 3
	maxRelationshipLines  = 15
)

// Result is the outcome of one retrieval. Context is the serialized text
// block, empty when nothing was found; Summary is a one-line count for
// logging and UI display.
type Result struct {
	Entities      []graph.Entity       `json:"entities"`
	Relationships []graph.Relationship `json:"relationships"`
	Paths         []string             `json:"paths"`
	Summary       string               `json:"summary"`
	Context       string               `json:"context"`
}

// Engine orchestrates concept extraction, seed matching, traversal and
// causal-path discovery over a graph store.
type Engine struct {
	aiClient       ai.GraphAIClient
	storage        store.GraphStorage
	conceptTimeout time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithConceptTimeout overrides the deadline of the concept-extraction call.
func WithConceptTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.conceptTimeout = d
	}
}

// NewEngine creates a retrieval engine over the given AI client and store.
func NewEngine(aiClient ai.GraphAIClient, storage store.GraphStorage, opts ...Option) *Engine {
	e := &Engine{
		aiClient:       aiClient,
		storage:        storage,
		conceptTimeout: DefaultConceptTimeout,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Query answers a free-text question with the relevant graph slice. With
// includeBackbone the seed set additionally gets the highest-importance
// entities, so chronic concerns surface even when the question never names
// them. An empty Context with no error means "no context available".
func (e *Engine) Query(ctx context.Context, question string, includeBackbone bool) (Result, error) {
	if strings.TrimSpace(question) == "" {
		return Result{}, fmt.Errorf("%w: question is required", graph.ErrInvalidArgument)
	}
	if len(question) > MaxQuestionLen {
		return Result{}, fmt.Errorf("%w: question exceeds %d characters", graph.ErrInvalidArgument, MaxQuestionLen)
	}

	concepts := e.extractConcepts(ctx, question)

	conceptSeeds, err := e.matchSeeds(ctx, concepts)
	if err != nil {
		return Result{}, err
	}

	seedIDs := make([]int64, 0, len(conceptSeeds))
	seen := make(map[int64]bool, len(conceptSeeds))
	for _, entity := range conceptSeeds {
		seen[entity.ID] = true
		seedIDs = append(seedIDs, entity.ID)
	}

	if includeBackbone {
		backbone, err := e.storage.TopEntitiesByImportance(ctx, backboneMinImportance, backboneLimit)
		if err != nil {
			return Result{}, err
		}
		for _, entity := range backbone {
			if !seen[entity.ID] {
				seen[entity.ID] = true
				seedIDs = append(seedIDs, entity.ID)
			}
		}
	}

	if len(seedIDs) == 0 {
		return emptyResult(), nil
	}

	sub, err := graph.Traverse(ctx, e.storage, seedIDs, traversalHops)
	if err != nil {
		return Result{}, err
	}
	if len(sub.Entities) == 0 {
		return emptyResult(), nil
	}

	paths, err := e.causalPaths(ctx, conceptSeeds)
	if err != nil {
		return Result{}, err
	}

	result := Result{
		Entities:      sub.Entities,
		Relationships: sub.Relationships,
		Paths:         paths,
		Summary: fmt.Sprintf("Found %d entities, %d relationships and %d causal patterns.",
			len(sub.Entities), len(sub.Relationships), len(paths)),
		Context: serializeContext(sub, paths),
	}

	logger.Debug("[Query] Retrieval complete",
		"concepts", len(concepts),
		"seeds", len(seedIDs),
		"entities", len(sub.Entities),
		"relationships", len(sub.Relationships),
		"paths", len(paths),
	)
	return result, nil
}

func emptyResult() Result {
	return Result{
		Entities:      []graph.Entity{},
		Relationships: []graph.Relationship{},
		Paths:         []string{},
		Summary:       "Found 0 entities, 0 relationships and 0 causal patterns.",
		Context:       "",
	}
}

// extractConcepts asks the model for search concepts. Every failure mode,
// including the deadline, degrades to an empty list.
func (e *Engine) extractConcepts(ctx context.Context, question string) []string {
	cctx, cancel := context.WithTimeout(ctx, e.conceptTimeout)
	defer cancel()

	systemPrompt := fmt.Sprintf(ai.ConceptPrompt, strings.Join(entityTypeNames(), ", "))
	completion, err := e.aiClient.GenerateCompletion(cctx, question, ai.WithSystemPrompts(systemPrompt))
	if err != nil {
		logger.Warn("[Query] Concept extraction failed, continuing without concepts", "err", err)
		return nil
	}

	var raw []string
	if err := ai.UnmarshalFlexible(completion, &raw); err != nil {
		logger.Warn("[Query] Concept extraction returned unparseable output", "err", err)
		return nil
	}

	concepts := make([]string, 0, len(raw))
	dedup := make(map[string]bool, len(raw))
	for _, c := range raw {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" || dedup[c] {
			continue
		}
		dedup[c] = true
		concepts = append(concepts, c)
		if len(concepts) == maxConcepts {
			break
		}
	}
	return concepts
}

// matchSeeds searches the store for every concept concurrently and merges
// the matches, deduplicated by id, preserving concept order.
func (e *Engine) matchSeeds(ctx context.Context, concepts []string) ([]graph.Entity, error) {
	if len(concepts) == 0 {
		return nil, nil
	}

	matches := make([][]graph.Entity, len(concepts))
	g, gctx := errgroup.WithContext(ctx)
	for i, concept := range concepts {
		g.Go(func() error {
			found, err := e.storage.SearchEntities(gctx, concept, seedMatchesPerConcept)
			if err != nil {
				return fmt.Errorf("search entities for %q: %w", concept, err)
			}
			matches[i] = found
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seeds := make([]graph.Entity, 0)
	seen := make(map[int64]bool)
	for _, found := range matches {
		for _, entity := range found {
			if seen[entity.ID] {
				continue
			}
			seen[entity.ID] = true
			seeds = append(seeds, entity)
		}
	}
	return seeds, nil
}

// causalPaths renders one-hop causal lookups around the top concept-matched
// seeds as natural-language sentences. Backbone entities are deliberately
// excluded; the sentences explain why the literally-matched entities matter.
func (e *Engine) causalPaths(ctx context.Context, conceptSeeds []graph.Entity) ([]string, error) {
	paths := make([]string, 0)
	seen := make(map[string]bool)
	add := func(sentence string) {
		if !seen[sentence] {
			seen[sentence] = true
			paths = append(paths, sentence)
		}
	}

	limit := len(conceptSeeds)
	if limit > causalSeedLimit {
		limit = causalSeedLimit
	}
	for _, seed := range conceptSeeds[:limit] {
		blockers, err := e.storage.FindIncomingByType(ctx, seed.ID, graph.RelBlocks)
		if err != nil {
			return nil, err
		}
		for _, entity := range blockers {
			add(fmt.Sprintf("%s (%s) BLOCKS the target", entity.Name, entity.Type))
		}

		triggers, err := e.storage.FindIncomingByType(ctx, seed.ID, graph.RelTriggers)
		if err != nil {
			return nil, err
		}
		for _, entity := range triggers {
			add(fmt.Sprintf("%s (%s) TRIGGERS the target", entity.Name, entity.Type))
		}

		blocked, err := e.storage.FindOutgoingByType(ctx, seed.ID, graph.RelBlocks)
		if err != nil {
			return nil, err
		}
		for _, entity := range blocked {
			add(fmt.Sprintf("the target BLOCKS %s (%s)", entity.Name, entity.Type))
		}
	}
	return paths, nil
}

// serializeContext renders the subgraph as the text block handed to the
// chat model: entities grouped by type, then relationship lines, then the
// causal sentences.
func serializeContext(sub graph.Subgraph, paths []string) string {
	if len(sub.Entities) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("KNOWN ENTITIES\n")

	byType := make(map[graph.EntityType][]graph.Entity, len(graph.EntityTypes))
	for _, entity := range sub.Entities {
		byType[entity.Type] = append(byType[entity.Type], entity)
	}
	names := make(map[int64]string, len(sub.Entities))
	for _, entity := range sub.Entities {
		names[entity.ID] = entity.Name
	}

	for _, t := range graph.EntityTypes {
		entities := byType[t]
		if len(entities) == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s:\n", t)
		for _, entity := range entities {
			b.WriteString("  - ")
			if entity.Importance >= backboneMinImportance {
				b.WriteString("★ ")
			}
			b.WriteString(entity.Name)
			if entity.Description != "" {
				fmt.Fprintf(&b, ": %s", entity.Description)
			}
			if entity.Frequency > 3 {
				fmt.Fprintf(&b, " (mentioned %dx)", entity.Frequency)
			}
			b.WriteString("\n")
		}
	}

	if len(sub.Relationships) > 0 {
		b.WriteString("\nRELATIONSHIPS\n")
		lines := 0
		for _, rel := range sub.Relationships {
			if lines == maxRelationshipLines {
				break
			}
			source, ok := names[rel.SourceID]
			if !ok {
				continue
			}
			target, ok := names[rel.TargetID]
			if !ok {
				continue
			}
			fmt.Fprintf(&b, "%s --[%s%s]--> %s", source, rel.Type, strengthQualifier(rel.Strength), target)
			if rel.Notes != "" {
				fmt.Fprintf(&b, " | %q", rel.Notes)
			}
			b.WriteString("\n")
			lines++
		}
	}

	if len(paths) > 0 {
		b.WriteString("\nCAUSAL PATTERNS\n")
		for _, p := range paths {
			b.WriteString(p)
			b.WriteString("\n")
		}
	}

	return b.String()
}

func strengthQualifier(strength int) string {
	switch {
	case strength >= 7:
		return "(strong)"
	case strength <= 3:
		return "(weak)"
	default:
		return ""
	}
}

func entityTypeNames() []string {
	names := make([]string, 0, len(graph.EntityTypes))
	for _, t := range graph.EntityTypes {
		names = append(names, string(t))
	}
	return names
}
