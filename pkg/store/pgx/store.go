// Package pgx implements store.GraphStorage on Postgres via pgx/v5.
package pgx

import (
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aurelia-app/aurelia/backend/pkg/graph"
	"github.com/aurelia-app/aurelia/backend/pkg/store"
)

// Option configures a GraphDBStorage.
type Option func(*GraphDBStorage)

// WithForbidSelfLoops makes UpsertRelationship reject edges whose source and
// target are the same entity. Self-loops are permitted by default.
func WithForbidSelfLoops() Option {
	return func(s *GraphDBStorage) {
		s.forbidSelfLoops = true
	}
}

// GraphDBStorage is the Postgres-backed graph store. Dedup and strengthening
// run as lookup-then-write inside a transaction, which is sufficient for the
// mostly-single-writer usage this store serves.
type GraphDBStorage struct {
	conn *pgxpool.Pool

	forbidSelfLoops bool
}

// NewGraphDBStorage creates a graph store on top of an existing pool.
func NewGraphDBStorage(conn *pgxpool.Pool, opts ...Option) *GraphDBStorage {
	s := &GraphDBStorage{conn: conn}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ store.GraphStorage = (*GraphDBStorage)(nil)
var _ graph.TraversalStorage = (*GraphDBStorage)(nil)

const entityColumns = `id, public_id, type, name, description, frequency, importance, color, last_mentioned, created_at`

const relationshipColumns = `id, public_id, source_id, target_id, type, strength, notes, created_at`

func scanEntity(row pgx.Row) (graph.Entity, error) {
	var e graph.Entity
	var entityType string
	err := row.Scan(
		&e.ID,
		&e.PublicID,
		&entityType,
		&e.Name,
		&e.Description,
		&e.Frequency,
		&e.Importance,
		&e.Color,
		&e.LastMentioned,
		&e.CreatedAt,
	)
	if err != nil {
		return graph.Entity{}, err
	}
	e.Type = graph.EntityType(entityType)
	return e, nil
}

func scanEntities(rows pgx.Rows) ([]graph.Entity, error) {
	defer rows.Close()

	entities := make([]graph.Entity, 0)
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	return entities, rows.Err()
}

func scanRelationship(row pgx.Row) (graph.Relationship, error) {
	var r graph.Relationship
	var relType string
	err := row.Scan(
		&r.ID,
		&r.PublicID,
		&r.SourceID,
		&r.TargetID,
		&relType,
		&r.Strength,
		&r.Notes,
		&r.CreatedAt,
	)
	if err != nil {
		return graph.Relationship{}, err
	}
	r.Type = graph.RelationshipType(relType)
	return r, nil
}

func scanRelationships(rows pgx.Rows) ([]graph.Relationship, error) {
	defer rows.Close()

	rels := make([]graph.Relationship, 0)
	for rows.Next() {
		r, err := scanRelationship(rows)
		if err != nil {
			return nil, err
		}
		rels = append(rels, r)
	}
	return rels, rows.Err()
}
