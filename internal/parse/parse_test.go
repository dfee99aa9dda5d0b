// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONStrategies(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Strategy
	}{
		{
			name: "bare object",
			raw:  `{"course_title": "Go"}`,
			want: StrategyDirect,
		},
		{
			name: "bare object with surrounding whitespace",
			raw:  "\n\n  {\"course_title\": \"Go\"}  \n",
			want: StrategyDirect,
		},
		{
			name: "json fence with prose",
			raw:  "Here is the outline:\n```json\n{\"course_title\": \"Go\"}\n```\nLet me know!",
			want: StrategyJSONFence,
		},
		{
			name: "upper-case json tag",
			raw:  "```JSON\n{\"course_title\": \"Go\"}\n```",
			want: StrategyJSONFence,
		},
		{
			name: "untagged fence",
			raw:  "Sure.\n```\n{\"course_title\": \"Go\"}\n```",
			want: StrategyAnyFence,
		},
		{
			name: "untagged fence after a tagged code block",
			raw:  "Example:\n```python\nd = {1: 2}\n```\nOutline:\n```\n{\"course_title\": \"Go\"}\n```\n",
			want: StrategyAnyFence,
		},
		{
			name: "braces embedded in prose",
			raw:  `The outline is {"course_title": "Go"} as requested.`,
			want: StrategyBraces,
		},
		{
			name: "broken json fence falls through to braces",
			raw:  "```json\nnot json\n``` but here: {\"course_title\": \"Go\"}",
			want: StrategyBraces,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj, strategy, err := JSONWithStrategy(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, strategy)
			assert.Equal(t, "Go", obj["course_title"])
		})
	}
}

func TestJSONNestedBraces(t *testing.T) {
	raw := `Result: {"modules": [{"title": "A", "lessons": [{"title": "L"}]}]} -- done`
	obj, err := JSON(raw)
	require.NoError(t, err)
	modules, ok := obj["modules"].([]any)
	require.True(t, ok)
	assert.Len(t, modules, 1)
}

func TestJSONRejectsNonObjects(t *testing.T) {
	for _, raw := range []string{`[1, 2, 3]`, `"just a string"`, `42`, `null`} {
		_, err := JSON(raw)
		assert.Error(t, err, raw)
	}
}

func TestJSONFailurePreview(t *testing.T) {
	raw := strings.Repeat("no json here ", 50)
	_, err := JSON(raw)
	require.Error(t, err)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Len(t, []rune(perr.Preview), PreviewLen)
	assert.True(t, strings.HasPrefix(raw, perr.Preview))
	assert.Equal(t, Strategies, perr.Tried)
}

func TestJSONFailurePreviewShortInput(t *testing.T) {
	_, err := JSON("I cannot help with that.")
	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "I cannot help with that.", perr.Preview)
}

func TestJSONFailurePreviewMultibyte(t *testing.T) {
	raw := strings.Repeat("é", 300)
	_, err := JSON(raw)
	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, strings.Repeat("é", PreviewLen), perr.Preview)
}

func TestJSONEmpty(t *testing.T) {
	_, err := JSON("")
	assert.Error(t, err)
}
