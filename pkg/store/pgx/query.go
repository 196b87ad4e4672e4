package pgx

import (
	"context"

	"github.com/aurelia-app/aurelia/backend/pkg/graph"
)

func (s *GraphDBStorage) GetEntitiesByIDs(ctx context.Context, ids []int64) ([]graph.Entity, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.conn.Query(ctx,
		`SELECT `+entityColumns+` FROM entities WHERE id = ANY($1) ORDER BY id`,
		ids,
	)
	if err != nil {
		return nil, err
	}
	return scanEntities(rows)
}

// GetRelationshipsTouching fetches every edge adjacent to the id list in a
// single round-trip, so a traversal hop costs one query for the whole
// frontier instead of one per node.
func (s *GraphDBStorage) GetRelationshipsTouching(ctx context.Context, ids []int64) ([]graph.Relationship, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.conn.Query(ctx,
		`SELECT `+relationshipColumns+` FROM relationships
		 WHERE source_id = ANY($1) OR target_id = ANY($1)
		 ORDER BY id`,
		ids,
	)
	if err != nil {
		return nil, err
	}
	return scanRelationships(rows)
}

func (s *GraphDBStorage) TopEntitiesByImportance(ctx context.Context, minImportance, limit int) ([]graph.Entity, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.conn.Query(ctx,
		`SELECT `+entityColumns+` FROM entities
		 WHERE importance >= $1
		 ORDER BY frequency DESC, id
		 LIMIT $2`,
		minImportance, limit,
	)
	if err != nil {
		return nil, err
	}
	return scanEntities(rows)
}

func (s *GraphDBStorage) FindIncomingByType(ctx context.Context, targetID int64, relType graph.RelationshipType) ([]graph.Entity, error) {
	rows, err := s.conn.Query(ctx,
		`SELECT e.id, e.public_id, e.type, e.name, e.description, e.frequency, e.importance, e.color, e.last_mentioned, e.created_at
		 FROM relationships r
		 JOIN entities e ON e.id = r.source_id
		 WHERE r.target_id = $1 AND r.type = $2
		 ORDER BY r.strength DESC, e.id`,
		targetID, string(relType),
	)
	if err != nil {
		return nil, err
	}
	return scanEntities(rows)
}

func (s *GraphDBStorage) FindOutgoingByType(ctx context.Context, sourceID int64, relType graph.RelationshipType) ([]graph.Entity, error) {
	rows, err := s.conn.Query(ctx,
		`SELECT e.id, e.public_id, e.type, e.name, e.description, e.frequency, e.importance, e.color, e.last_mentioned, e.created_at
		 FROM relationships r
		 JOIN entities e ON e.id = r.target_id
		 WHERE r.source_id = $1 AND r.type = $2
		 ORDER BY r.strength DESC, e.id`,
		sourceID, string(relType),
	)
	if err != nil {
		return nil, err
	}
	return scanEntities(rows)
}
