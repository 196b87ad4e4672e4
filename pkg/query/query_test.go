package query

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aurelia-app/aurelia/backend/pkg/ai"
	"github.com/aurelia-app/aurelia/backend/pkg/graph"
	"github.com/aurelia-app/aurelia/backend/pkg/store"
	"github.com/aurelia-app/aurelia/backend/pkg/store/memory"
)

type stubAIClient struct {
	completion string
	err        error
}

func (s *stubAIClient) GenerateCompletion(ctx context.Context, prompt string, opts ...ai.GenerateOption) (string, error) {
	return s.completion, s.err
}

func (s *stubAIClient) GenerateCompletionWithFormat(ctx context.Context, name, description, prompt string, out any, opts ...ai.GenerateOption) error {
	return s.err
}

func (s *stubAIClient) ResetMetrics()               {}
func (s *stubAIClient) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }

func seedEntity(t *testing.T, st *memory.Store, params store.UpsertEntityParams) graph.Entity {
	t.Helper()
	entity, _, err := st.UpsertEntity(context.Background(), params)
	if err != nil {
		t.Fatalf("seed entity %q: %v", params.Name, err)
	}
	return entity
}

func TestQuery_ValidatesQuestion(t *testing.T) {
	engine := NewEngine(&stubAIClient{}, memory.NewStore())
	ctx := context.Background()

	tests := []struct {
		name     string
		question string
	}{
		{name: "empty", question: ""},
		{name: "whitespace only", question: "   "},
		{name: "oversized", question: strings.Repeat("q", MaxQuestionLen+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Query(ctx, tt.question, false)
			if !errors.Is(err, graph.ErrInvalidArgument) {
				t.Fatalf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}

func TestQuery_RetrievesCausalSlice(t *testing.T) {
	st := memory.NewStore()
	ctx := context.Background()

	blocker := seedEntity(t, st, store.UpsertEntityParams{
		Type: "blocker",
		Name: "Procrastination",
	})
	project := seedEntity(t, st, store.UpsertEntityParams{
		Type:        "project",
		Name:        "AWS Certification",
		Description: "Cloud certification goal",
		Importance:  8,
	})
	if _, _, err := st.UpsertRelationship(ctx, store.UpsertRelationshipParams{
		SourceID: blocker.ID,
		TargetID: project.ID,
		Type:     string(graph.RelBlocks),
		Strength: 8,
		Notes:    "keeps delaying study sessions",
	}); err != nil {
		t.Fatalf("seed relationship: %v", err)
	}

	stub := &stubAIClient{completion: `["aws certification", "procrastination"]`}
	engine := NewEngine(stub, st)

	result, err := engine.Query(ctx, "Why am I not making progress on my AWS cert?", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Entities) != 2 {
		t.Fatalf("expected both entities, got %d", len(result.Entities))
	}
	if len(result.Relationships) != 1 {
		t.Fatalf("expected the BLOCKS edge, got %d relationships", len(result.Relationships))
	}

	// Both seeds describe the same edge from their own side.
	wantPaths := map[string]bool{
		"Procrastination (blocker) BLOCKS the target":  false,
		"the target BLOCKS AWS Certification (project)": false,
	}
	for _, p := range result.Paths {
		if _, ok := wantPaths[p]; ok {
			wantPaths[p] = true
		}
	}
	for p, found := range wantPaths {
		if !found {
			t.Fatalf("expected path %q, got %v", p, result.Paths)
		}
	}
	wantPath := "Procrastination (blocker) BLOCKS the target"

	if !strings.Contains(result.Context, "KNOWN ENTITIES") {
		t.Fatalf("context missing entity section:\n%s", result.Context)
	}
	if !strings.Contains(result.Context, "★ AWS Certification") {
		t.Fatalf("high-importance entity not starred:\n%s", result.Context)
	}
	if !strings.Contains(result.Context, "Procrastination --[BLOCKS(strong)]--> AWS Certification") {
		t.Fatalf("relationship line missing or malformed:\n%s", result.Context)
	}
	if !strings.Contains(result.Context, `"keeps delaying study sessions"`) {
		t.Fatalf("relationship notes missing:\n%s", result.Context)
	}
	if !strings.Contains(result.Context, "CAUSAL PATTERNS\n"+wantPath) {
		t.Fatalf("causal section missing:\n%s", result.Context)
	}
	if result.Summary != "Found 2 entities, 1 relationships and 2 causal patterns." {
		t.Fatalf("unexpected summary: %q", result.Summary)
	}
}

func TestQuery_NoMatchesYieldsEmptyContext(t *testing.T) {
	st := memory.NewStore()
	seedEntity(t, st, store.UpsertEntityParams{Type: "habit", Name: "Morning run"})

	stub := &stubAIClient{completion: `["quantum chromodynamics"]`}
	engine := NewEngine(stub, st)

	result, err := engine.Query(context.Background(), "Tell me about particle physics", false)
	if err != nil {
		t.Fatalf("no matches must not be an error, got %v", err)
	}
	if result.Context != "" {
		t.Fatalf("expected empty context, got %q", result.Context)
	}
	if result.Entities == nil || result.Relationships == nil || result.Paths == nil {
		t.Fatal("expected empty non-nil slices")
	}
	if len(result.Entities) != 0 || len(result.Relationships) != 0 || len(result.Paths) != 0 {
		t.Fatalf("expected empty result, got %+v", result)
	}
	if result.Summary != "Found 0 entities, 0 relationships and 0 causal patterns." {
		t.Fatalf("unexpected summary: %q", result.Summary)
	}
}

func TestQuery_ConceptFailureFallsBackToBackbone(t *testing.T) {
	st := memory.NewStore()
	ctx := context.Background()

	seedEntity(t, st, store.UpsertEntityParams{
		Type:       "project",
		Name:       "Get healthier",
		Importance: 9,
	})
	seedEntity(t, st, store.UpsertEntityParams{
		Type: "habit",
		Name: "Doomscrolling",
	})

	stub := &stubAIClient{err: errors.New("model unavailable")}
	engine := NewEngine(stub, st)

	result, err := engine.Query(ctx, "How are my goals doing?", true)
	if err != nil {
		t.Fatalf("concept failure must degrade, got %v", err)
	}
	if len(result.Entities) != 1 || result.Entities[0].Name != "Get healthier" {
		t.Fatalf("expected backbone-only retrieval, got %+v", result.Entities)
	}
	if len(result.Paths) != 0 {
		t.Fatalf("backbone seeds must not produce causal paths, got %v", result.Paths)
	}
}

func TestQuery_ConceptFailureWithoutBackboneIsEmpty(t *testing.T) {
	st := memory.NewStore()
	seedEntity(t, st, store.UpsertEntityParams{Type: "project", Name: "Get healthier", Importance: 9})

	stub := &stubAIClient{completion: "this is not json at all, sorry"}
	engine := NewEngine(stub, st)

	result, err := engine.Query(context.Background(), "How are my goals doing?", false)
	if err != nil {
		t.Fatalf("unparseable concepts must degrade, got %v", err)
	}
	if result.Context != "" || len(result.Entities) != 0 {
		t.Fatalf("expected empty result, got %+v", result)
	}
}

func TestQuery_BackboneDeduplicatesConceptSeeds(t *testing.T) {
	st := memory.NewStore()
	ctx := context.Background()

	seedEntity(t, st, store.UpsertEntityParams{
		Type:       "project",
		Name:       "AWS Certification",
		Importance: 8,
	})

	stub := &stubAIClient{completion: `["aws certification"]`}
	engine := NewEngine(stub, st)

	result, err := engine.Query(ctx, "How is the AWS cert going?", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Entities) != 1 {
		t.Fatalf("entity matched by concept and backbone must appear once, got %d", len(result.Entities))
	}
}

func TestQuery_RelationshipLinesCapped(t *testing.T) {
	st := memory.NewStore()
	ctx := context.Background()

	hub := seedEntity(t, st, store.UpsertEntityParams{Type: "project", Name: "Hub"})
	for i := 0; i < maxRelationshipLines+5; i++ {
		spoke := seedEntity(t, st, store.UpsertEntityParams{
			Type: "tool",
			Name: "Spoke " + string(rune('A'+i)),
		})
		if _, _, err := st.UpsertRelationship(ctx, store.UpsertRelationshipParams{
			SourceID: hub.ID,
			TargetID: spoke.ID,
			Type:     string(graph.RelUses),
			Strength: 5,
		}); err != nil {
			t.Fatalf("seed relationship: %v", err)
		}
	}

	stub := &stubAIClient{completion: `["hub"]`}
	engine := NewEngine(stub, st)

	result, err := engine.Query(ctx, "What is in the hub?", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Relationships) != maxRelationshipLines+5 {
		t.Fatalf("result must carry all edges, got %d", len(result.Relationships))
	}
	lines := strings.Count(result.Context, "--[")
	if lines != maxRelationshipLines {
		t.Fatalf("expected %d serialized relationship lines, got %d", maxRelationshipLines, lines)
	}
}

func TestStrengthQualifier(t *testing.T) {
	tests := []struct {
		strength int
		want     string
	}{
		{strength: 10, want: "(strong)"},
		{strength: 7, want: "(strong)"},
		{strength: 5, want: ""},
		{strength: 3, want: "(weak)"},
		{strength: 1, want: "(weak)"},
	}

	for _, tt := range tests {
		if got := strengthQualifier(tt.strength); got != tt.want {
			t.Fatalf("strength %d: expected %q, got %q", tt.strength, tt.want, got)
		}
	}
}
