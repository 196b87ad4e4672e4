package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/aurelia-app/aurelia/backend/pkg/ai"
	"github.com/aurelia-app/aurelia/backend/pkg/graph"
	"github.com/aurelia-app/aurelia/backend/pkg/store"
	"github.com/aurelia-app/aurelia/backend/pkg/store/memory"
)

// stubAIClient replays a canned model response through the same flexible
// unmarshaling the real adapters use.
type stubAIClient struct {
	payload     string
	err         error
	formatCalls int
}

func (s *stubAIClient) GenerateCompletion(ctx context.Context, prompt string, opts ...ai.GenerateOption) (string, error) {
	return s.payload, s.err
}

func (s *stubAIClient) GenerateCompletionWithFormat(ctx context.Context, name, description, prompt string, out any, opts ...ai.GenerateOption) error {
	s.formatCalls++
	if s.err != nil {
		return s.err
	}
	return ai.UnmarshalFlexible(s.payload, out)
}

func (s *stubAIClient) ResetMetrics()               {}
func (s *stubAIClient) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }

func TestRun_ValidatesInput(t *testing.T) {
	p := NewPipeline(&stubAIClient{}, memory.NewStore())
	ctx := context.Background()

	tests := []struct {
		name      string
		user      string
		assistant string
	}{
		{name: "empty user message", user: "", assistant: "reply"},
		{name: "empty assistant message", user: "hello", assistant: " "},
		{name: "oversized user message", user: string(make([]byte, MaxUserMessageLen+1)), assistant: "reply"},
		{name: "oversized assistant message", user: "hello", assistant: string(make([]byte, MaxAssistantMessageLen+1))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Run(ctx, tt.user, tt.assistant)
			if !errors.Is(err, graph.ErrInvalidArgument) {
				t.Fatalf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}

func TestRun_ModelFailureIsAbsorbed(t *testing.T) {
	stub := &stubAIClient{err: errors.New("gateway timeout")}
	p := NewPipeline(stub, memory.NewStore())

	result, err := p.Run(context.Background(), "I keep putting off studying", "That sounds like procrastination")
	if err != nil {
		t.Fatalf("model failure must not fail the turn, got %v", err)
	}
	if result != (Result{}) {
		t.Fatalf("expected zero result, got %+v", result)
	}
	if stub.formatCalls != extractionTries {
		t.Fatalf("expected %d attempts, got %d", extractionTries, stub.formatCalls)
	}
}

func TestRun_FencedResponseIsParsed(t *testing.T) {
	stub := &stubAIClient{payload: "```json\n" + `{
		"entities": [
			{"name": "Procrastination", "entity_type": "blocker", "description": "Putting off study sessions"},
			{"name": "AWS Certification", "entity_type": "project", "description": "Cloud cert goal"}
		],
		"relationships": [
			{"source_name": "procrastination", "target_name": "AWS Certification", "relationship_type": "BLOCKS", "notes": "keeps delaying study", "confidence": 0.8}
		]
	}` + "\n```"}
	st := memory.NewStore()
	p := NewPipeline(stub, st)
	ctx := context.Background()

	result, err := p.Run(ctx, "I keep putting off studying for my AWS cert", "Sounds like procrastination is blocking you")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.EntitiesProcessed != 2 {
		t.Fatalf("expected 2 entities processed, got %d", result.EntitiesProcessed)
	}
	if result.RelationshipsProcessed != 1 || result.RelationshipsCreated != 1 {
		t.Fatalf("expected 1 relationship processed and created, got %+v", result)
	}

	rels, err := st.ListRelationships(ctx, store.RelationshipFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rels) != 1 {
		t.Fatalf("expected 1 edge, got %d", len(rels))
	}
	if rels[0].Strength != 8 {
		t.Fatalf("expected strength 8 from confidence 0.8, got %d", rels[0].Strength)
	}
	if rels[0].Type != graph.RelBlocks {
		t.Fatalf("expected BLOCKS edge, got %q", rels[0].Type)
	}
}

func TestRun_InvalidTypesSkipped(t *testing.T) {
	stub := &stubAIClient{payload: `{
		"entities": [
			{"name": "Valid", "entity_type": "skill", "description": ""},
			{"name": "Bogus", "entity_type": "galaxy", "description": ""}
		],
		"relationships": [
			{"source_name": "Valid", "target_name": "Valid", "relationship_type": "ORBITS", "notes": "", "confidence": 0.9}
		]
	}`}
	st := memory.NewStore()
	p := NewPipeline(stub, st)
	ctx := context.Background()

	result, err := p.Run(ctx, "user", "assistant")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.EntitiesProcessed != 1 {
		t.Fatalf("expected only the valid entity, got %d", result.EntitiesProcessed)
	}
	if result.RelationshipsProcessed != 0 {
		t.Fatalf("expected unknown relationship type skipped, got %d", result.RelationshipsProcessed)
	}

	entities, err := st.ListEntities(ctx, store.EntityFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entities) != 1 || entities[0].Name != "Valid" {
		t.Fatalf("unexpected stored entities: %+v", entities)
	}
}

func TestRun_UnresolvableRelationshipDropped(t *testing.T) {
	stub := &stubAIClient{payload: `{
		"entities": [
			{"name": "Anxiety", "entity_type": "emotion", "description": ""},
			{"name": "Doomscrolling", "entity_type": "habit", "description": ""}
		],
		"relationships": [
			{"source_name": "Ghost", "target_name": "Anxiety", "relationship_type": "TRIGGERS", "notes": "", "confidence": 0.7},
			{"source_name": "Anxiety", "target_name": "Doomscrolling", "relationship_type": "TRIGGERS", "notes": "", "confidence": 0.7}
		]
	}`}
	st := memory.NewStore()
	p := NewPipeline(stub, st)
	ctx := context.Background()

	result, err := p.Run(ctx, "user", "assistant")
	if err != nil {
		t.Fatalf("a dangling edge must not fail the batch, got %v", err)
	}
	if result.RelationshipsProcessed != 1 {
		t.Fatalf("expected 1 relationship, got %d", result.RelationshipsProcessed)
	}

	rels, err := st.ListRelationships(ctx, store.RelationshipFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rels) != 1 {
		t.Fatalf("expected only the resolvable edge, got %d", len(rels))
	}
}

func TestRun_ResolvesAgainstExistingEntities(t *testing.T) {
	st := memory.NewStore()
	ctx := context.Background()

	existing, _, err := st.UpsertEntity(ctx, store.UpsertEntityParams{
		Type: "project",
		Name: "AWS Certification",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stub := &stubAIClient{payload: `{
		"entities": [
			{"name": "Procrastination", "entity_type": "blocker", "description": ""}
		],
		"relationships": [
			{"source_name": "Procrastination", "target_name": "aws certification", "relationship_type": "BLOCKS", "notes": "", "confidence": 0.6}
		]
	}`}
	p := NewPipeline(stub, st)

	result, err := p.Run(ctx, "user", "assistant")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.RelationshipsCreated != 1 {
		t.Fatalf("expected edge against existing entity, got %+v", result)
	}

	rels, err := st.ListRelationships(ctx, store.RelationshipFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rels[0].TargetID != existing.ID {
		t.Fatalf("expected edge to resolve to existing entity %d, got %d", existing.ID, rels[0].TargetID)
	}
}

func TestRun_EmptyProposalIsSuccess(t *testing.T) {
	stub := &stubAIClient{payload: `{"entities": [], "relationships": []}`}
	p := NewPipeline(stub, memory.NewStore())

	result, err := p.Run(context.Background(), "what's the weather", "sunny")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != (Result{}) {
		t.Fatalf("expected zero counts, got %+v", result)
	}
}
