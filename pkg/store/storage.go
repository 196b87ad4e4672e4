package store

import (
	"context"

	"github.com/aurelia-app/aurelia/backend/pkg/graph"
)

// UpsertEntityParams carries the inputs for an entity upsert. Type is the
// raw tag and is validated against the closed set; Importance of 0 means
// "use the default"; an empty Color derives from the entity type.
type UpsertEntityParams struct {
	Type        string
	Name        string
	Description string
	Importance  int
	Color       string
}

// UpdateEntityParams holds the mutable fields of an entity. Nil pointers
// leave the current value untouched.
type UpdateEntityParams struct {
	Description *string
	Importance  *int
	Color       *string
}

// UpsertRelationshipParams carries the inputs for a relationship upsert.
// Strength of 0 means "use the default".
type UpsertRelationshipParams struct {
	SourceID int64
	TargetID int64
	Type     string
	Strength int
	Notes    string
}

// EntityFilter narrows ListEntities. Empty fields match everything.
type EntityFilter struct {
	Type      string
	NameQuery string
}

// RelationshipFilter narrows ListRelationships.
type RelationshipFilter struct {
	Type string
}

// GraphStorage is the persistence boundary of the knowledge graph. It owns
// the dedup and strengthen semantics: upserts perform a lookup before
// writing so that re-mentions bump counters instead of creating duplicate
// rows, and entity deletion cascades to every touching relationship.
//
// Implementations must satisfy graph.TraversalStorage so the traversal
// engine can run against them directly.
type GraphStorage interface {
	// FindEntityByName resolves a name case-insensitively, preferring an
	// exact match over a substring match. Returns nil when nothing matches.
	FindEntityByName(ctx context.Context, name string) (*graph.Entity, error)
	// SearchEntities matches term as a case-insensitive substring of the
	// entity name or description, capped at limit results.
	SearchEntities(ctx context.Context, term string, limit int) ([]graph.Entity, error)
	GetEntityByID(ctx context.Context, id int64) (graph.Entity, error)

	// UpsertEntity creates the entity or, when a case-insensitive name match
	// exists, increments its frequency, refreshes last_mentioned and
	// overwrites the description if a new one is supplied. The bool reports
	// whether a new row was created.
	UpsertEntity(ctx context.Context, params UpsertEntityParams) (graph.Entity, bool, error)
	UpdateEntity(ctx context.Context, id int64, params UpdateEntityParams) (graph.Entity, error)
	// DeleteEntity removes the entity and every relationship where it is
	// source or target.
	DeleteEntity(ctx context.Context, id int64) error

	// UpsertRelationship creates the directed typed edge or, when the same
	// (source, target, type) edge exists, strengthens it by one (capped at
	// graph.MaxStrength) and overwrites the notes. The bool reports whether
	// a new edge was created.
	UpsertRelationship(ctx context.Context, params UpsertRelationshipParams) (graph.Relationship, bool, error)
	DeleteRelationship(ctx context.Context, id int64) error

	ListEntities(ctx context.Context, filter EntityFilter) ([]graph.Entity, error)
	ListRelationships(ctx context.Context, filter RelationshipFilter) ([]graph.Relationship, error)

	GetEntitiesByIDs(ctx context.Context, ids []int64) ([]graph.Entity, error)
	GetRelationshipsTouching(ctx context.Context, ids []int64) ([]graph.Relationship, error)

	// TopEntitiesByImportance returns up to limit entities with importance
	// >= minImportance, most frequently mentioned first. Used for backbone
	// seed injection.
	TopEntitiesByImportance(ctx context.Context, minImportance, limit int) ([]graph.Entity, error)

	// FindIncomingByType returns the source entities of edges of the given
	// type pointing at targetID; FindOutgoingByType the targets of edges
	// leaving sourceID. Both are the one-hop lookups behind causal paths.
	FindIncomingByType(ctx context.Context, targetID int64, relType graph.RelationshipType) ([]graph.Entity, error)
	FindOutgoingByType(ctx context.Context, sourceID int64, relType graph.RelationshipType) ([]graph.Entity, error)
}
