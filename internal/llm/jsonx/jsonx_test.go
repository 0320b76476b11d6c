package jsonx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractObject(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{
			name:  "bare object",
			input: `{"category":"etc"}`,
			want:  `{"category":"etc"}`,
			ok:    true,
		},
		{
			name:  "markdown fence",
			input: "```json\n{\"category\":\"etc\"}\n```",
			want:  `{"category":"etc"}`,
			ok:    true,
		},
		{
			name:  "surrounding prose",
			input: `Here is the analysis: {"a":1} hope it helps`,
			want:  `{"a":1}`,
			ok:    true,
		},
		{
			name:  "nested objects",
			input: `{"outer":{"inner":2}} trailing`,
			want:  `{"outer":{"inner":2}}`,
			ok:    true,
		},
		{
			name:  "braces inside strings",
			input: `{"text":"use {braces} and \"quotes\" freely"}`,
			want:  `{"text":"use {braces} and \"quotes\" freely"}`,
			ok:    true,
		},
		{
			name:  "no object",
			input: "no json here",
			ok:    false,
		},
		{
			name:  "unbalanced",
			input: `{"a": {"b": 1}`,
			ok:    false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtractObject(tc.input)
			if !tc.ok {
				assert.ErrorIs(t, err, ErrNoObject)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestUnmarshal(t *testing.T) {
	var out struct {
		Category string   `json:"category"`
		Keywords []string `json:"keywords"`
	}
	input := "The classification follows.\n```json\n" +
		`{"category":"deployment_issue","keywords":["jenkins","rollback"]}` +
		"\n```"
	require.NoError(t, Unmarshal(input, &out))
	assert.Equal(t, "deployment_issue", out.Category)
	assert.Equal(t, []string{"jenkins", "rollback"}, out.Keywords)

	assert.Error(t, Unmarshal("nothing", &out))
}
