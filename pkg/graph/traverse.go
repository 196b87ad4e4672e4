package graph

import (
	"context"
	"sort"
)

// TraversalStorage is the slice of the graph store the traversal engine
// needs: batched edge lookups around a frontier and a batched entity fetch.
type TraversalStorage interface {
	// GetRelationshipsTouching returns every relationship whose source or
	// target is in ids, in one round-trip.
	GetRelationshipsTouching(ctx context.Context, ids []int64) ([]Relationship, error)
	// GetEntitiesByIDs resolves a batch of entity ids.
	GetEntitiesByIDs(ctx context.Context, ids []int64) ([]Entity, error)
}

// Subgraph is the induced subgraph produced by a bounded traversal.
type Subgraph struct {
	Entities      []Entity
	Relationships []Relationship
}

// Traverse expands breadth-first from seedIDs for at most maxHops rounds and
// returns the induced subgraph. Each hop issues a single batched edge query
// against the current frontier rather than one query per node. Visited ids
// are never re-expanded, so cycles terminate, and relationships are deduped
// by id, so parallel typed edges between the same pair are each kept once.
//
// Entities are fetched in one batch at the end. With maxHops = 0 the result
// contains only the seed entities.
func Traverse(ctx context.Context, storage TraversalStorage, seedIDs []int64, maxHops int) (Subgraph, error) {
	visited := make(map[int64]bool, len(seedIDs))
	frontier := make([]int64, 0, len(seedIDs))
	for _, id := range seedIDs {
		if visited[id] {
			continue
		}
		visited[id] = true
		frontier = append(frontier, id)
	}

	seenRels := make(map[int64]bool)
	relationships := make([]Relationship, 0)

	for hop := 0; hop < maxHops && len(frontier) > 0; hop++ {
		rels, err := storage.GetRelationshipsTouching(ctx, frontier)
		if err != nil {
			return Subgraph{}, err
		}

		next := make([]int64, 0)
		for _, rel := range rels {
			if !seenRels[rel.ID] {
				seenRels[rel.ID] = true
				relationships = append(relationships, rel)
			}
			for _, endpoint := range []int64{rel.SourceID, rel.TargetID} {
				if !visited[endpoint] {
					visited[endpoint] = true
					next = append(next, endpoint)
				}
			}
		}
		frontier = next
	}

	ids := make([]int64, 0, len(visited))
	for id := range visited {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	entities, err := storage.GetEntitiesByIDs(ctx, ids)
	if err != nil {
		return Subgraph{}, err
	}

	return Subgraph{
		Entities:      entities,
		Relationships: relationships,
	}, nil
}
