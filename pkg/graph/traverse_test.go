package graph

import (
	"context"
	"testing"
)

// fakeTraversalStorage serves a fixed graph for traversal tests.
type fakeTraversalStorage struct {
	entities      map[int64]Entity
	relationships []Relationship
}

func newFakeStorage(entityIDs []int64, relationships []Relationship) *fakeTraversalStorage {
	entities := make(map[int64]Entity, len(entityIDs))
	for _, id := range entityIDs {
		entities[id] = Entity{ID: id, Type: EntityProject, Name: string(rune('A' + id - 1))}
	}
	return &fakeTraversalStorage{entities: entities, relationships: relationships}
}

func (f *fakeTraversalStorage) GetRelationshipsTouching(ctx context.Context, ids []int64) ([]Relationship, error) {
	idSet := make(map[int64]bool, len(ids))
	for _, id := range ids {
		idSet[id] = true
	}
	matches := make([]Relationship, 0)
	for _, rel := range f.relationships {
		if idSet[rel.SourceID] || idSet[rel.TargetID] {
			matches = append(matches, rel)
		}
	}
	return matches, nil
}

func (f *fakeTraversalStorage) GetEntitiesByIDs(ctx context.Context, ids []int64) ([]Entity, error) {
	entities := make([]Entity, 0, len(ids))
	for _, id := range ids {
		if e, ok := f.entities[id]; ok {
			entities = append(entities, e)
		}
	}
	return entities, nil
}

func subgraphIDs(sub Subgraph) (map[int64]bool, map[int64]bool) {
	entityIDs := make(map[int64]bool, len(sub.Entities))
	for _, e := range sub.Entities {
		entityIDs[e.ID] = true
	}
	relIDs := make(map[int64]bool, len(sub.Relationships))
	for _, r := range sub.Relationships {
		relIDs[r.ID] = true
	}
	return entityIDs, relIDs
}

func TestTraverse_BoundedHops(t *testing.T) {
	// A -> B -> C, one hop from A must not reach C.
	storage := newFakeStorage([]int64{1, 2, 3}, []Relationship{
		{ID: 1, SourceID: 1, TargetID: 2, Type: RelBlocks},
		{ID: 2, SourceID: 2, TargetID: 3, Type: RelBlocks},
	})

	sub, err := Traverse(context.Background(), storage, []int64{1}, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entityIDs, relIDs := subgraphIDs(sub)
	if !entityIDs[1] || !entityIDs[2] {
		t.Fatalf("expected entities 1 and 2, got %v", entityIDs)
	}
	if entityIDs[3] {
		t.Fatal("entity 3 must not be reachable in one hop")
	}
	if !relIDs[1] {
		t.Fatal("expected edge 1 in subgraph")
	}
	if relIDs[2] {
		t.Fatal("edge 2 must not be in subgraph")
	}
}

func TestTraverse_CycleTerminates(t *testing.T) {
	// A -> B -> A with a generous hop budget.
	storage := newFakeStorage([]int64{1, 2}, []Relationship{
		{ID: 1, SourceID: 1, TargetID: 2, Type: RelBlocks},
		{ID: 2, SourceID: 2, TargetID: 1, Type: RelBlocks},
	})

	sub, err := Traverse(context.Background(), storage, []int64{1}, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(sub.Entities) != 2 {
		t.Fatalf("expected 2 entities, got %d", len(sub.Entities))
	}
	if len(sub.Relationships) != 2 {
		t.Fatalf("expected both directed edges, got %d", len(sub.Relationships))
	}
}

func TestTraverse_BothDirectionsDiscoverable(t *testing.T) {
	storage := newFakeStorage([]int64{1, 2}, []Relationship{
		{ID: 1, SourceID: 1, TargetID: 2, Type: RelBlocks},
	})

	// Seeding from the source surfaces the edge.
	fromSource, err := Traverse(context.Background(), storage, []int64{1}, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fromSource.Relationships) != 1 {
		t.Fatalf("expected edge from source seed, got %d edges", len(fromSource.Relationships))
	}

	// Seeding from the target surfaces the same edge via its incoming side.
	fromTarget, err := Traverse(context.Background(), storage, []int64{2}, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fromTarget.Relationships) != 1 {
		t.Fatalf("expected edge from target seed, got %d edges", len(fromTarget.Relationships))
	}

	entityIDs, _ := subgraphIDs(fromTarget)
	if !entityIDs[1] {
		t.Fatal("expected source entity reachable from target seed")
	}
}

func TestTraverse_ParallelTypedEdges(t *testing.T) {
	storage := newFakeStorage([]int64{1, 2}, []Relationship{
		{ID: 1, SourceID: 1, TargetID: 2, Type: RelBlocks},
		{ID: 2, SourceID: 1, TargetID: 2, Type: RelTriggers},
	})

	sub, err := Traverse(context.Background(), storage, []int64{1}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sub.Relationships) != 2 {
		t.Fatalf("expected both parallel edges exactly once, got %d", len(sub.Relationships))
	}
}

func TestTraverse_ZeroHopsReturnsSeedsOnly(t *testing.T) {
	storage := newFakeStorage([]int64{1, 2}, []Relationship{
		{ID: 1, SourceID: 1, TargetID: 2, Type: RelBlocks},
	})

	sub, err := Traverse(context.Background(), storage, []int64{1}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sub.Entities) != 1 || sub.Entities[0].ID != 1 {
		t.Fatalf("expected only the seed entity, got %v", sub.Entities)
	}
	if len(sub.Relationships) != 0 {
		t.Fatalf("expected no relationships, got %d", len(sub.Relationships))
	}
}

func TestTraverse_DuplicateSeeds(t *testing.T) {
	storage := newFakeStorage([]int64{1, 2}, []Relationship{
		{ID: 1, SourceID: 1, TargetID: 2, Type: RelBlocks},
	})

	sub, err := Traverse(context.Background(), storage, []int64{1, 1, 2}, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sub.Entities) != 2 {
		t.Fatalf("expected 2 entities, got %d", len(sub.Entities))
	}
}
