package generation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    map[string]any
	}{
		{
			name:    "plain json",
			content: `{"a": 1}`,
			want:    map[string]any{"a": float64(1)},
		},
		{
			name:    "fenced json",
			content: "```json\n{\"a\":1}\n```",
			want:    map[string]any{"a": float64(1)},
		},
		{
			name:    "fenced json with surrounding whitespace",
			content: "  \n```json\n{\"weeks\": [{\"focus\": \"base\"}]}\n```\n ",
			want:    map[string]any{"weeks": []any{map[string]any{"focus": "base"}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := parseContent(tt.content)
			parsed, ok := res.(Parsed)
			require.True(t, ok, "expected Parsed, got %T", res)
			assert.Equal(t, tt.want, parsed.Value)
		})
	}
}

func TestParseContentMalformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "not json", content: "not json"},
		{name: "truncated object", content: `{"a": 1`},
		{name: "prose around json", content: "Here is your plan: {\"a\":1}"},
		{name: "empty reply", content: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := parseContent(tt.content)
			raw, ok := res.(Raw)
			require.True(t, ok, "expected Raw, got %T", res)
			// Raw keeps the original text untouched.
			assert.Equal(t, tt.content, raw.Text)
		})
	}
}
