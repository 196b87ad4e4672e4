package pgx

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/aurelia-app/aurelia/backend/internal/util"
	"github.com/aurelia-app/aurelia/backend/pkg/graph"
	"github.com/aurelia-app/aurelia/backend/pkg/logger"
	"github.com/aurelia-app/aurelia/backend/pkg/store"
)

func (s *GraphDBStorage) FindEntityByName(ctx context.Context, name string) (*graph.Entity, error) {
	needle := strings.TrimSpace(name)
	if needle == "" {
		return nil, nil
	}

	row := s.conn.QueryRow(ctx,
		`SELECT `+entityColumns+` FROM entities WHERE lower(name) = lower($1) LIMIT 1`,
		needle,
	)
	e, err := scanEntity(row)
	if err == nil {
		return &e, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	// No exact match, fall back to a substring match.
	row = s.conn.QueryRow(ctx,
		`SELECT `+entityColumns+` FROM entities WHERE name ILIKE '%' || $1 || '%' ORDER BY frequency DESC LIMIT 1`,
		needle,
	)
	e, err = scanEntity(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *GraphDBStorage) SearchEntities(ctx context.Context, term string, limit int) ([]graph.Entity, error) {
	needle := strings.TrimSpace(term)
	if needle == "" || limit <= 0 {
		return nil, nil
	}

	rows, err := s.conn.Query(ctx,
		`SELECT `+entityColumns+` FROM entities
		 WHERE name ILIKE '%' || $1 || '%' OR description ILIKE '%' || $1 || '%'
		 ORDER BY frequency DESC
		 LIMIT $2`,
		needle, limit,
	)
	if err != nil {
		return nil, err
	}
	return scanEntities(rows)
}

func (s *GraphDBStorage) GetEntityByID(ctx context.Context, id int64) (graph.Entity, error) {
	row := s.conn.QueryRow(ctx,
		`SELECT `+entityColumns+` FROM entities WHERE id = $1`,
		id,
	)
	e, err := scanEntity(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return graph.Entity{}, fmt.Errorf("%w: entity %d", graph.ErrNotFound, id)
	}
	return e, err
}

func (s *GraphDBStorage) UpsertEntity(ctx context.Context, params store.UpsertEntityParams) (graph.Entity, bool, error) {
	entityType, err := graph.ParseEntityType(params.Type)
	if err != nil {
		return graph.Entity{}, false, err
	}
	name := util.SanitizePostgresText(strings.TrimSpace(params.Name))
	if name == "" {
		return graph.Entity{}, false, fmt.Errorf("%w: entity name is required", graph.ErrInvalidArgument)
	}
	description := util.SanitizePostgresText(params.Description)

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return graph.Entity{}, false, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx,
		`SELECT `+entityColumns+` FROM entities WHERE lower(name) = lower($1) LIMIT 1 FOR UPDATE`,
		name,
	)
	existing, err := scanEntity(row)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return graph.Entity{}, false, err
	}

	if err == nil {
		newDescription := existing.Description
		if description != "" {
			newDescription = description
		}
		row = tx.QueryRow(ctx,
			`UPDATE entities
			 SET frequency = frequency + 1, last_mentioned = now(), description = $2
			 WHERE id = $1
			 RETURNING `+entityColumns,
			existing.ID, newDescription,
		)
		updated, err := scanEntity(row)
		if err != nil {
			return graph.Entity{}, false, err
		}
		if err := tx.Commit(ctx); err != nil {
			return graph.Entity{}, false, err
		}
		logger.Debug("[Store] Entity re-mentioned", "name", updated.Name, "frequency", updated.Frequency)
		return updated, false, nil
	}

	publicID, err := gonanoid.New()
	if err != nil {
		return graph.Entity{}, false, err
	}
	importance := params.Importance
	if importance == 0 {
		importance = graph.DefaultImportance
	}
	color := params.Color
	if color == "" {
		color = graph.ColorForType(entityType)
	}

	row = tx.QueryRow(ctx,
		`INSERT INTO entities (public_id, type, name, description, frequency, importance, color)
		 VALUES ($1, $2, $3, $4, 1, $5, $6)
		 RETURNING `+entityColumns,
		publicID, string(entityType), name, description, importance, color,
	)
	created, err := scanEntity(row)
	if err != nil {
		return graph.Entity{}, false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return graph.Entity{}, false, err
	}
	logger.Debug("[Store] Entity created", "name", created.Name, "type", created.Type)
	return created, true, nil
}

func (s *GraphDBStorage) UpdateEntity(ctx context.Context, id int64, params store.UpdateEntityParams) (graph.Entity, error) {
	if params.Importance != nil && (*params.Importance < 1 || *params.Importance > 10) {
		return graph.Entity{}, fmt.Errorf("%w: importance must be 1-10", graph.ErrInvalidArgument)
	}

	row := s.conn.QueryRow(ctx,
		`UPDATE entities
		 SET description = COALESCE($2, description),
		     importance = COALESCE($3, importance),
		     color = COALESCE($4, color)
		 WHERE id = $1
		 RETURNING `+entityColumns,
		id, params.Description, params.Importance, params.Color,
	)
	e, err := scanEntity(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return graph.Entity{}, fmt.Errorf("%w: entity %d", graph.ErrNotFound, id)
	}
	return e, err
}

func (s *GraphDBStorage) DeleteEntity(ctx context.Context, id int64) error {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// The FK cascade would cover this, but referential integrity is an
	// application responsibility here, so delete edges explicitly.
	_, err = tx.Exec(ctx,
		`DELETE FROM relationships WHERE source_id = $1 OR target_id = $1`,
		id,
	)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `DELETE FROM entities WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: entity %d", graph.ErrNotFound, id)
	}
	return tx.Commit(ctx)
}

func (s *GraphDBStorage) ListEntities(ctx context.Context, filter store.EntityFilter) ([]graph.Entity, error) {
	query := `SELECT ` + entityColumns + ` FROM entities`
	conditions := make([]string, 0, 2)
	args := make([]any, 0, 2)

	if filter.Type != "" {
		args = append(args, filter.Type)
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)))
	}
	if strings.TrimSpace(filter.NameQuery) != "" {
		args = append(args, strings.TrimSpace(filter.NameQuery))
		conditions = append(conditions, fmt.Sprintf("name ILIKE '%%' || $%d || '%%'", len(args)))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id"

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanEntities(rows)
}
