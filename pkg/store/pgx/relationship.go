package pgx

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/aurelia-app/aurelia/backend/internal/util"
	"github.com/aurelia-app/aurelia/backend/pkg/graph"
	"github.com/aurelia-app/aurelia/backend/pkg/logger"
	"github.com/aurelia-app/aurelia/backend/pkg/store"
)

func (s *GraphDBStorage) UpsertRelationship(ctx context.Context, params store.UpsertRelationshipParams) (graph.Relationship, bool, error) {
	relType, err := graph.ParseRelationshipType(params.Type)
	if err != nil {
		return graph.Relationship{}, false, err
	}
	if s.forbidSelfLoops && params.SourceID == params.TargetID {
		return graph.Relationship{}, false, fmt.Errorf("%w: self-loop on entity %d", graph.ErrInvalidArgument, params.SourceID)
	}
	notes := util.SanitizePostgresText(params.Notes)

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return graph.Relationship{}, false, err
	}
	defer tx.Rollback(ctx)

	var endpoints int
	err = tx.QueryRow(ctx,
		`SELECT count(*) FROM entities WHERE id = $1 OR id = $2`,
		params.SourceID, params.TargetID,
	).Scan(&endpoints)
	if err != nil {
		return graph.Relationship{}, false, err
	}
	expected := 2
	if params.SourceID == params.TargetID {
		expected = 1
	}
	if endpoints < expected {
		return graph.Relationship{}, false, fmt.Errorf(
			"%w: relationship endpoints %d -> %d", graph.ErrNotFound, params.SourceID, params.TargetID)
	}

	row := tx.QueryRow(ctx,
		`SELECT `+relationshipColumns+` FROM relationships
		 WHERE source_id = $1 AND target_id = $2 AND type = $3
		 LIMIT 1 FOR UPDATE`,
		params.SourceID, params.TargetID, string(relType),
	)
	existing, err := scanRelationship(row)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return graph.Relationship{}, false, err
	}

	if err == nil {
		row = tx.QueryRow(ctx,
			`UPDATE relationships
			 SET strength = LEAST(strength + 1, $2), notes = $3
			 WHERE id = $1
			 RETURNING `+relationshipColumns,
			existing.ID, graph.MaxStrength, notes,
		)
		strengthened, err := scanRelationship(row)
		if err != nil {
			return graph.Relationship{}, false, err
		}
		if err := tx.Commit(ctx); err != nil {
			return graph.Relationship{}, false, err
		}
		logger.Debug("[Store] Relationship strengthened",
			"source", strengthened.SourceID, "target", strengthened.TargetID,
			"type", strengthened.Type, "strength", strengthened.Strength)
		return strengthened, false, nil
	}

	publicID, err := gonanoid.New()
	if err != nil {
		return graph.Relationship{}, false, err
	}
	strength := params.Strength
	if strength == 0 {
		strength = graph.DefaultStrength
	}

	row = tx.QueryRow(ctx,
		`INSERT INTO relationships (public_id, source_id, target_id, type, strength, notes)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+relationshipColumns,
		publicID, params.SourceID, params.TargetID, string(relType), graph.ClampStrength(strength), notes,
	)
	created, err := scanRelationship(row)
	if err != nil {
		return graph.Relationship{}, false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return graph.Relationship{}, false, err
	}
	return created, true, nil
}

func (s *GraphDBStorage) DeleteRelationship(ctx context.Context, id int64) error {
	tag, err := s.conn.Exec(ctx, `DELETE FROM relationships WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: relationship %d", graph.ErrNotFound, id)
	}
	return nil
}

func (s *GraphDBStorage) ListRelationships(ctx context.Context, filter store.RelationshipFilter) ([]graph.Relationship, error) {
	query := `SELECT ` + relationshipColumns + ` FROM relationships`
	args := make([]any, 0, 1)
	if filter.Type != "" {
		query += ` WHERE type = $1`
		args = append(args, filter.Type)
	}
	query += ` ORDER BY id`

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanRelationships(rows)
}
