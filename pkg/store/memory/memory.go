// Package memory provides an in-memory GraphStorage used by tests and local
// development. It mirrors the Postgres implementation's semantics, including
// case-insensitive entity dedup and edge strengthening.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/aurelia-app/aurelia/backend/pkg/graph"
	"github.com/aurelia-app/aurelia/backend/pkg/store"
)

// Option configures a Store.
type Option func(*Store)

// WithForbidSelfLoops makes UpsertRelationship reject edges whose source and
// target are the same entity. Self-loops are permitted by default.
func WithForbidSelfLoops() Option {
	return func(s *Store) {
		s.forbidSelfLoops = true
	}
}

// Store is a mutex-guarded in-memory graph store.
type Store struct {
	mu sync.RWMutex

	entities      map[int64]graph.Entity
	relationships map[int64]graph.Relationship

	nextEntityID       int64
	nextRelationshipID int64

	forbidSelfLoops bool
}

// NewStore creates an empty in-memory store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		entities:           make(map[int64]graph.Entity),
		relationships:      make(map[int64]graph.Relationship),
		nextEntityID:       1,
		nextRelationshipID: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ store.GraphStorage = (*Store)(nil)
var _ graph.TraversalStorage = (*Store)(nil)

func (s *Store) FindEntityByName(ctx context.Context, name string) (*graph.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return nil, nil
	}

	var substring *graph.Entity
	for _, e := range s.sortedEntities() {
		lower := strings.ToLower(e.Name)
		if lower == needle {
			found := e
			return &found, nil
		}
		if substring == nil && strings.Contains(lower, needle) {
			found := e
			substring = &found
		}
	}
	return substring, nil
}

func (s *Store) SearchEntities(ctx context.Context, term string, limit int) ([]graph.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" || limit <= 0 {
		return nil, nil
	}

	matches := make([]graph.Entity, 0)
	for _, e := range s.sortedEntities() {
		if strings.Contains(strings.ToLower(e.Name), needle) ||
			strings.Contains(strings.ToLower(e.Description), needle) {
			matches = append(matches, e)
			if len(matches) >= limit {
				break
			}
		}
	}
	return matches, nil
}

func (s *Store) GetEntityByID(ctx context.Context, id int64) (graph.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entities[id]
	if !ok {
		return graph.Entity{}, fmt.Errorf("%w: entity %d", graph.ErrNotFound, id)
	}
	return e, nil
}

func (s *Store) UpsertEntity(ctx context.Context, params store.UpsertEntityParams) (graph.Entity, bool, error) {
	entityType, err := graph.ParseEntityType(params.Type)
	if err != nil {
		return graph.Entity{}, false, err
	}
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return graph.Entity{}, false, fmt.Errorf("%w: entity name is required", graph.ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	needle := strings.ToLower(name)
	for id, e := range s.entities {
		if strings.ToLower(e.Name) != needle {
			continue
		}
		e.Frequency++
		e.LastMentioned = now
		if params.Description != "" {
			e.Description = params.Description
		}
		s.entities[id] = e
		return e, false, nil
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

	e := graph.Entity{
		ID:            s.nextEntityID,
		PublicID:      publicID,
		Type:          entityType,
		Name:          name,
		Description:   params.Description,
		Frequency:     1,
		Importance:    importance,
		Color:         color,
		LastMentioned: now,
		CreatedAt:     now,
	}
	s.nextEntityID++
	s.entities[e.ID] = e
	return e, true, nil
}

func (s *Store) UpdateEntity(ctx context.Context, id int64, params store.UpdateEntityParams) (graph.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entities[id]
	if !ok {
		return graph.Entity{}, fmt.Errorf("%w: entity %d", graph.ErrNotFound, id)
	}
	if params.Description != nil {
		e.Description = *params.Description
	}
	if params.Importance != nil {
		if *params.Importance < 1 || *params.Importance > 10 {
			return graph.Entity{}, fmt.Errorf("%w: importance must be 1-10", graph.ErrInvalidArgument)
		}
		e.Importance = *params.Importance
	}
	if params.Color != nil {
		e.Color = *params.Color
	}
	s.entities[id] = e
	return e, nil
}

func (s *Store) DeleteEntity(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entities[id]; !ok {
		return fmt.Errorf("%w: entity %d", graph.ErrNotFound, id)
	}
	delete(s.entities, id)
	for relID, rel := range s.relationships {
		if rel.SourceID == id || rel.TargetID == id {
			delete(s.relationships, relID)
		}
	}
	return nil
}

func (s *Store) UpsertRelationship(ctx context.Context, params store.UpsertRelationshipParams) (graph.Relationship, bool, error) {
	relType, err := graph.ParseRelationshipType(params.Type)
	if err != nil {
		return graph.Relationship{}, false, err
	}
	if s.forbidSelfLoops && params.SourceID == params.TargetID {
		return graph.Relationship{}, false, fmt.Errorf("%w: self-loop on entity %d", graph.ErrInvalidArgument, params.SourceID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entities[params.SourceID]; !ok {
		return graph.Relationship{}, false, fmt.Errorf("%w: source entity %d", graph.ErrNotFound, params.SourceID)
	}
	if _, ok := s.entities[params.TargetID]; !ok {
		return graph.Relationship{}, false, fmt.Errorf("%w: target entity %d", graph.ErrNotFound, params.TargetID)
	}

	for id, rel := range s.relationships {
		if rel.SourceID == params.SourceID && rel.TargetID == params.TargetID && rel.Type == relType {
			rel.Strength = graph.ClampStrength(rel.Strength + 1)
			rel.Notes = params.Notes
			s.relationships[id] = rel
			return rel, false, nil
		}
	}

	publicID, err := gonanoid.New()
	if err != nil {
		return graph.Relationship{}, false, err
	}
	strength := params.Strength
	if strength == 0 {
		strength = graph.DefaultStrength
	}

	rel := graph.Relationship{
		ID:        s.nextRelationshipID,
		PublicID:  publicID,
		SourceID:  params.SourceID,
		TargetID:  params.TargetID,
		Type:      relType,
		Strength:  graph.ClampStrength(strength),
		Notes:     params.Notes,
		CreatedAt: time.Now().UTC(),
	}
	s.nextRelationshipID++
	s.relationships[rel.ID] = rel
	return rel, true, nil
}

func (s *Store) DeleteRelationship(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.relationships[id]; !ok {
		return fmt.Errorf("%w: relationship %d", graph.ErrNotFound, id)
	}
	delete(s.relationships, id)
	return nil
}

func (s *Store) ListEntities(ctx context.Context, filter store.EntityFilter) ([]graph.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(filter.NameQuery))
	entities := make([]graph.Entity, 0, len(s.entities))
	for _, e := range s.sortedEntities() {
		if filter.Type != "" && string(e.Type) != filter.Type {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(e.Name), needle) {
			continue
		}
		entities = append(entities, e)
	}
	return entities, nil
}

func (s *Store) ListRelationships(ctx context.Context, filter store.RelationshipFilter) ([]graph.Relationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rels := make([]graph.Relationship, 0, len(s.relationships))
	for _, rel := range s.relationships {
		if filter.Type != "" && string(rel.Type) != filter.Type {
			continue
		}
		rels = append(rels, rel)
	}
	sort.Slice(rels, func(i, j int) bool { return rels[i].ID < rels[j].ID })
	return rels, nil
}

func (s *Store) GetEntitiesByIDs(ctx context.Context, ids []int64) ([]graph.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entities := make([]graph.Entity, 0, len(ids))
	for _, id := range ids {
		if e, ok := s.entities[id]; ok {
			entities = append(entities, e)
		}
	}
	return entities, nil
}

func (s *Store) GetRelationshipsTouching(ctx context.Context, ids []int64) ([]graph.Relationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idSet := make(map[int64]bool, len(ids))
	for _, id := range ids {
		idSet[id] = true
	}

	rels := make([]graph.Relationship, 0)
	for _, rel := range s.relationships {
		if idSet[rel.SourceID] || idSet[rel.TargetID] {
			rels = append(rels, rel)
		}
	}
	sort.Slice(rels, func(i, j int) bool { return rels[i].ID < rels[j].ID })
	return rels, nil
}

func (s *Store) TopEntitiesByImportance(ctx context.Context, minImportance, limit int) ([]graph.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]graph.Entity, 0)
	for _, e := range s.entities {
		if e.Importance >= minImportance {
			matches = append(matches, e)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Frequency != matches[j].Frequency {
			return matches[i].Frequency > matches[j].Frequency
		}
		return matches[i].ID < matches[j].ID
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (s *Store) FindIncomingByType(ctx context.Context, targetID int64, relType graph.RelationshipType) ([]graph.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entities := make([]graph.Entity, 0)
	for _, rel := range s.sortedRelationships() {
		if rel.TargetID == targetID && rel.Type == relType {
			if e, ok := s.entities[rel.SourceID]; ok {
				entities = append(entities, e)
			}
		}
	}
	return entities, nil
}

func (s *Store) FindOutgoingByType(ctx context.Context, sourceID int64, relType graph.RelationshipType) ([]graph.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entities := make([]graph.Entity, 0)
	for _, rel := range s.sortedRelationships() {
		if rel.SourceID == sourceID && rel.Type == relType {
			if e, ok := s.entities[rel.TargetID]; ok {
				entities = append(entities, e)
			}
		}
	}
	return entities, nil
}

// sortedEntities returns entities ordered by id for deterministic iteration.
// Callers must hold at least the read lock.
func (s *Store) sortedEntities() []graph.Entity {
	entities := make([]graph.Entity, 0, len(s.entities))
	for _, e := range s.entities {
		entities = append(entities, e)
	}
	sort.Slice(entities, func(i, j int) bool { return entities[i].ID < entities[j].ID })
	return entities
}

func (s *Store) sortedRelationships() []graph.Relationship {
	rels := make([]graph.Relationship, 0, len(s.relationships))
	for _, rel := range s.relationships {
		rels = append(rels, rel)
	}
	sort.Slice(rels, func(i, j int) bool { return rels[i].ID < rels[j].ID })
	return rels
}
