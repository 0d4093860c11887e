package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/scopegen/internal/scope"
)

const validScopeJSON = `{
  "executive_summary": {"overview": "A food ordering app.", "key_points": ["ordering", "payments"]},
  "personas": [{"name": "Customer", "description": "Orders food", "goals": ["order quickly"], "pain_points": ["slow checkout"]}],
  "modules": [{"name": "Ordering", "description": "Menu and cart", "features": ["Browse Menu"]}],
  "features": [{"name": "Browse Menu", "summary": "List dishes", "priority": "P1", "dependencies": [], "acceptance_criteria": ["menu loads"]}],
  "functional_requirements": [{"statement": "The app must support online payments."}],
  "technical_requirements": [],
  "non_functional_requirements": [],
  "open_questions": [{"question": "Which payment gateway?"}]
}`

func TestParseScopeResponseStrictJSON(t *testing.T) {
	doc, err := parseScopeResponse(validScopeJSON)
	require.NoError(t, err)

	assert.Equal(t, "A food ordering app.", doc.ExecutiveSummary.Overview)
	require.Len(t, doc.Modules, 1)
	assert.Equal(t, "Ordering", doc.Modules[0].Name)
	require.Len(t, doc.Features, 1)
	assert.Equal(t, scope.PriorityP1, doc.Features[0].Priority)
	require.Len(t, doc.OpenQuestions, 1)
	assert.Equal(t, "Which payment gateway?", doc.OpenQuestions[0].Question)
}

func TestParseScopeResponseCodeFences(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "json fence", input: "```json\n" + validScopeJSON + "\n```"},
		{name: "bare fence", input: "```\n" + validScopeJSON + "\n```"},
		{name: "fence with surrounding whitespace", input: "\n\n```json\n" + validScopeJSON + "\n```\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := parseScopeResponse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, "A food ordering app.", doc.ExecutiveSummary.Overview)
		})
	}
}

func TestParseScopeResponseRecoversEmbeddedJSON(t *testing.T) {
	raw := "Here is the scope document you asked for:\n\n" + validScopeJSON + "\n\nLet me know if you need changes."

	doc, err := parseScopeResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, "A food ordering app.", doc.ExecutiveSummary.Overview)
}

func TestParseScopeResponseFailures(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "whitespace only", input: "   \n\t"},
		{name: "prose without json", input: "I cannot produce a scope document for this input."},
		{name: "truncated json", input: `{"executive_summary": {"overview": "cut off`},
		{name: "wrong types", input: `{"modules": "not an array"}`},
		{name: "invalid priority", input: `{"features": [{"name": "X", "priority": "P9"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseScopeResponse(tt.input)
			assert.ErrorIs(t, err, ErrParse)
		})
	}
}

func TestParseScopeResponseDefaultsPriority(t *testing.T) {
	doc, err := parseScopeResponse(`{"features": [{"name": "X", "summary": "y"}]}`)
	require.NoError(t, err)
	require.Len(t, doc.Features, 1)
	assert.Equal(t, scope.PriorityP2, doc.Features[0].Priority)
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `{"a": 1}`, stripCodeFences("```json\n{\"a\": 1}\n```"))
	assert.Equal(t, `{"a": 1}`, stripCodeFences(`{"a": 1}`))
	assert.Equal(t, "plain text", stripCodeFences("  plain text  "))
}

func TestParseErrorsAreDistinct(t *testing.T) {
	_, err := parseScopeResponse("not json")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrProvider))
}
