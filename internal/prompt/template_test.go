package prompt

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		template string
		vars     map[string]string
		want     string
	}{
		{
			name:     "single variable",
			template: "Hello {name}",
			vars:     map[string]string{"name": "Ada"},
			want:     "Hello Ada",
		},
		{
			name:     "repeated variable",
			template: "{who} and {who} again",
			vars:     map[string]string{"who": "me"},
			want:     "me and me again",
		},
		{
			name:     "extra vars ignored",
			template: "plain text",
			vars:     map[string]string{"unused": "x"},
			want:     "plain text",
		},
		{
			name:     "multiple variables",
			template: "Analyze {activity} over {duration} minutes",
			vars:     map[string]string{"activity": "run", "duration": "42"},
			want:     "Analyze run over 42 minutes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(tt.template, tt.vars)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderMissingVariable(t *testing.T) {
	_, err := Render("Hello {name}", map[string]string{})
	require.Error(t, err)

	var tErr *TemplateError
	require.True(t, errors.As(err, &tErr))
	assert.Equal(t, []string{"name"}, tErr.Missing)
}

func TestRenderReportsAllMissing(t *testing.T) {
	_, err := Render("{a} {b} {c}", map[string]string{"b": "ok"})

	var tErr *TemplateError
	require.True(t, errors.As(err, &tErr))
	assert.Equal(t, []string{"a", "c"}, tErr.Missing)
}

func TestExtractVariables(t *testing.T) {
	vars := ExtractVariables("{current_plan} {suggestions} {current_plan}")
	assert.Equal(t, []string{"current_plan", "suggestions"}, vars)

	assert.Empty(t, ExtractVariables("no placeholders here"))
}
