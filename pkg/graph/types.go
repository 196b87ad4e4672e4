package graph

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// EntityType is the closed set of node kinds the graph accepts. Construction
// goes through ParseEntityType so an unrecognized tag fails fast instead of
// leaking into storage.
type EntityType string

const (
	EntityProject EntityType = "project"
	EntityBlocker EntityType = "blocker"
	EntityEmotion EntityType = "emotion"
	EntityPattern EntityType = "pattern"
	EntityWin     EntityType = "win"
	EntitySkill   EntityType = "skill"
	EntityPerson  EntityType = "person"
	EntityTool    EntityType = "tool"
	EntityHabit   EntityType = "habit"
)

// EntityTypes lists every valid entity type, in prompt order.
var EntityTypes = []EntityType{
	EntityProject,
	EntityBlocker,
	EntityEmotion,
	EntityPattern,
	EntityWin,
	EntitySkill,
	EntityPerson,
	EntityTool,
	EntityHabit,
}

// ParseEntityType validates a raw tag against the closed entity-type set.
// Matching is case-insensitive.
func ParseEntityType(raw string) (EntityType, error) {
	normalized := EntityType(strings.ToLower(strings.TrimSpace(raw)))
	for _, t := range EntityTypes {
		if t == normalized {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: unknown entity type %q", ErrInvalidArgument, raw)
}

// RelationshipType is the closed set of edge kinds. The set is the union of
// the manual-creation vocabulary and the extraction vocabulary, applied
// uniformly to both paths.
type RelationshipType string

const (
	RelBlocks        RelationshipType = "BLOCKS"
	RelEnables       RelationshipType = "ENABLES"
	RelRequires      RelationshipType = "REQUIRES"
	RelTriggers      RelationshipType = "TRIGGERS"
	RelLeadsTo       RelationshipType = "LEADS_TO"
	RelRelatedTo     RelationshipType = "RELATED_TO"
	RelPartOf        RelationshipType = "PART_OF"
	RelUses          RelationshipType = "USES"
	RelImproves      RelationshipType = "IMPROVES"
	RelConflictsWith RelationshipType = "CONFLICTS_WITH"
	RelCausedBy      RelationshipType = "CAUSED_BY"
	RelHelpsWith     RelationshipType = "HELPS_WITH"
)

// RelationshipTypes lists every valid relationship type.
var RelationshipTypes = []RelationshipType{
	RelBlocks,
	RelEnables,
	RelRequires,
	RelTriggers,
	RelLeadsTo,
	RelRelatedTo,
	RelPartOf,
	RelUses,
	RelImproves,
	RelConflictsWith,
	RelCausedBy,
	RelHelpsWith,
}

// ParseRelationshipType validates a raw tag against the closed
// relationship-type set. Matching is case-insensitive and RELATES_TO is
// accepted as an alias for RELATED_TO, since extraction models tend to
// produce both spellings.
func ParseRelationshipType(raw string) (RelationshipType, error) {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	if normalized == "RELATES_TO" {
		return RelRelatedTo, nil
	}
	for _, t := range RelationshipTypes {
		if string(t) == normalized {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: unknown relationship type %q", ErrInvalidArgument, raw)
}

const (
	// DefaultImportance is assigned when the caller does not rate an entity.
	DefaultImportance = 5
	// MaxStrength is the ceiling applied when an edge is strengthened.
	MaxStrength = 10
	// DefaultStrength is used for manual edges without an explicit rating.
	DefaultStrength = 5
)

// entityColors maps each entity type to its display color. Entities created
// without an explicit color inherit the value for their type.
var entityColors = map[EntityType]string{
	EntityProject: "#6366f1",
	EntityBlocker: "#ef4444",
	EntityEmotion: "#ec4899",
	EntityPattern: "#f59e0b",
	EntityWin:     "#22c55e",
	EntitySkill:   "#06b6d4",
	EntityPerson:  "#8b5cf6",
	EntityTool:    "#64748b",
	EntityHabit:   "#84cc16",
}

// ColorForType returns the default display color for an entity type.
func ColorForType(t EntityType) string {
	if c, ok := entityColors[t]; ok {
		return c
	}
	return "#94a3b8"
}

// StrengthFromConfidence converts an extraction confidence in [0,1] to an
// edge strength in [1,10].
func StrengthFromConfidence(confidence float64) int {
	s := int(math.Round(confidence * 10))
	return ClampStrength(s)
}

// ClampStrength bounds a strength value to [1,10].
func ClampStrength(s int) int {
	if s < 1 {
		return 1
	}
	if s > MaxStrength {
		return MaxStrength
	}
	return s
}

// Entity is a node in the knowledge graph: a project, blocker, emotion,
// pattern, win, skill, person, tool or habit.
//
// Name uniqueness is case-insensitive and enforced at the application layer:
// re-mentioning an entity bumps Frequency and LastMentioned instead of
// creating a second row.
type Entity struct {
	ID            int64      `json:"id"`
	PublicID      string     `json:"public_id"`
	Type          EntityType `json:"entity_type"`
	Name          string     `json:"name"`
	Description   string     `json:"description,omitempty"`
	Frequency     int        `json:"frequency"`
	Importance    int        `json:"importance"`
	Color         string     `json:"color,omitempty"`
	LastMentioned time.Time  `json:"last_mentioned"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Relationship is a directed, typed, strength-weighted edge between two
// entities. The uniqueness key is (source, target, type); the reverse
// direction and other types between the same pair are distinct edges.
type Relationship struct {
	ID        int64            `json:"id"`
	PublicID  string           `json:"public_id"`
	SourceID  int64            `json:"source_id"`
	TargetID  int64            `json:"target_id"`
	Type      RelationshipType `json:"relationship_type"`
	Strength  int              `json:"strength"`
	Notes     string           `json:"notes,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}
