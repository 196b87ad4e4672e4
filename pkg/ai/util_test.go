package ai

import (
	"testing"
)

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "no fence",
			input: `{"a": 1}`,
			want:  `{"a": 1}`,
		},
		{
			name:  "plain fence",
			input: "```\n{\"a\": 1}\n```",
			want:  `{"a": 1}`,
		},
		{
			name:  "json language tag",
			input: "```json\n{\"a\": 1}\n```",
			want:  `{"a": 1}`,
		},
		{
			name:  "fence with surrounding whitespace",
			input: "  ```json\n[\"x\"]\n```  ",
			want:  `["x"]`,
		},
		{
			name:  "content on opening fence line",
			input: "```{\"a\": 1}\n```",
			want:  `{"a": 1}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripCodeFence(tt.input); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUnmarshalFlexible(t *testing.T) {
	type payload struct {
		Entities []string `json:"entities"`
	}

	tests := []struct {
		name  string
		input string
		want  int
	}{
		{
			name:  "clean json",
			input: `{"entities": ["a", "b"]}`,
			want:  2,
		},
		{
			name:  "fenced json",
			input: "```json\n{\"entities\": [\"a\"]}\n```",
			want:  1,
		},
		{
			name:  "double encoded",
			input: `"{\"entities\": [\"a\", \"b\"]}"`,
			want:  2,
		},
		{
			name:  "truncated json repaired",
			input: `{"entities": ["a", "b"`,
			want:  2,
		},
		{
			name:  "duplicate leading brace",
			input: `{{"entities": ["a"]}`,
			want:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out payload
			if err := UnmarshalFlexible(tt.input, &out); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(out.Entities) != tt.want {
				t.Fatalf("expected %d entities, got %d", tt.want, len(out.Entities))
			}
		})
	}
}

func TestUnmarshalFlexible_IntoSlice(t *testing.T) {
	var concepts []string
	if err := UnmarshalFlexible("```json\n[\"aws certification\", \"procrastination\"]\n```", &concepts); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(concepts) != 2 || concepts[0] != "aws certification" {
		t.Fatalf("unexpected concepts: %v", concepts)
	}
}

func TestGenerateSchema(t *testing.T) {
	type shape struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	schema := GenerateSchema(&shape{})
	if schema == nil {
		t.Fatal("expected a schema")
	}
}
