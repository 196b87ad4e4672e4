package graph

import (
	"errors"
	"testing"
)

func TestParseEntityType(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    EntityType
		wantErr bool
	}{
		{name: "valid type", input: "blocker", want: EntityBlocker},
		{name: "case insensitive", input: "Project", want: EntityProject},
		{name: "whitespace trimmed", input: "  habit ", want: EntityHabit},
		{name: "unknown type", input: "vibe", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEntityType(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got %q", tt.input, got)
				}
				if !errors.Is(err, ErrInvalidArgument) {
					t.Fatalf("expected ErrInvalidArgument, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestParseRelationshipType(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    RelationshipType
		wantErr bool
	}{
		{name: "valid type", input: "BLOCKS", want: RelBlocks},
		{name: "lowercase accepted", input: "triggers", want: RelTriggers},
		{name: "relates_to alias", input: "RELATES_TO", want: RelRelatedTo},
		{name: "unknown type", input: "ADJACENT_TO", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRelationshipType(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got %q", tt.input, got)
				}
				if !errors.Is(err, ErrInvalidArgument) {
					t.Fatalf("expected ErrInvalidArgument, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestStrengthFromConfidence(t *testing.T) {
	tests := []struct {
		confidence float64
		want       int
	}{
		{confidence: 0.8, want: 8},
		{confidence: 0.85, want: 9},
		{confidence: 0.04, want: 1},
		{confidence: 0, want: 1},
		{confidence: -0.5, want: 1},
		{confidence: 1, want: 10},
		{confidence: 1.7, want: 10},
	}

	for _, tt := range tests {
		if got := StrengthFromConfidence(tt.confidence); got != tt.want {
			t.Fatalf("confidence %v: expected %d, got %d", tt.confidence, tt.want, got)
		}
	}
}

func TestColorForType(t *testing.T) {
	for _, entityType := range EntityTypes {
		if ColorForType(entityType) == "" {
			t.Fatalf("no color for type %q", entityType)
		}
	}
	if got := ColorForType(EntityType("unknown")); got != "#94a3b8" {
		t.Fatalf("expected fallback color, got %q", got)
	}
}
