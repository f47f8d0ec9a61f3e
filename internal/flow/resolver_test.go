package flow

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paulexconde/surveychat/internal/models"
	"github.com/paulexconde/surveychat/pkg/fault"
)

func TestValidateAnswer(t *testing.T) {
	choice := models.Question{ID: "q", Type: models.MultipleChoice, Options: []models.Option{{ID: "a"}, {ID: "b"}}}
	rating := models.Question{ID: "q", Type: models.Rating, Options: []models.Option{{ID: "1"}, {ID: "5"}}}

	tests := []struct {
		name     string
		question models.Question
		raw      string
		want     any
		wantErr  string
	}{
		{"choice ok", choice, "b", "b", ""},
		{"choice unknown", choice, "c", nil, "invalid option"},
		{"choice is case sensitive", choice, "A", nil, "invalid option"},
		{"rating ok", rating, "5", "5", ""},
		{"rating unknown", rating, "3", nil, "invalid option"},
		{"boolean yes", models.Question{Type: models.Boolean}, "yes", true, ""},
		{"boolean no", models.Question{Type: models.Boolean}, "no", false, ""},
		{"boolean case sensitive", models.Question{Type: models.Boolean}, "Yes", nil, "'yes' or 'no'"},
		{"date ok", models.Question{Type: models.Date}, "2024-02-29", time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), ""},
		{"date bad day", models.Question{Type: models.Date}, "2023-02-29", nil, "invalid date format"},
		{"date bad layout", models.Question{Type: models.Date}, "29/02/2024", nil, "invalid date format"},
		{"integer", models.Question{Type: models.Number}, "42", 42.0, ""},
		{"decimal", models.Question{Type: models.Number}, "3.25", 3.25, ""},
		{"negative", models.Question{Type: models.Number}, "-7", -7.0, ""},
		{"not a number", models.Question{Type: models.Number}, "not a number", nil, "valid integer or float"},
		{"two dots", models.Question{Type: models.Number}, "1.2.3", nil, "valid integer or float"},
		{"exponent", models.Question{Type: models.Number}, "1e5", nil, "valid integer or float"},
		{"nan", models.Question{Type: models.Number}, "NaN", nil, "valid integer or float"},
		{"text", models.Question{Type: models.Text}, "  anything  ", "  anything  ", ""},
		{"unknown type", models.Question{Type: "slider"}, "1", nil, "invalid question type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateAnswer(tt.question, tt.raw)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.ErrorIs(t, err, fault.ErrInvalidAnswer)
				assert.True(t, fault.IsClientError(err))
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, got)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveNext_OptionRouting(t *testing.T) {
	q := branchingSurvey().Questions["q1"]

	assert.Equal(t, "q2", ResolveNext(q, "opt1"))
	assert.Equal(t, "q3", ResolveNext(q, "opt2"))
	assert.Equal(t, "", ResolveNext(q, "opt9"))
}

func TestResolveNext_BooleanRoutesByOption(t *testing.T) {
	q := models.Question{
		ID:   "q",
		Type: models.Boolean,
		Options: []models.Option{
			{ID: "yes", NextQuestionID: "happy"},
			{ID: "no", NextQuestionID: "sad"},
		},
		DefaultNextQuestionID: "ignored",
	}

	assert.Equal(t, "happy", ResolveNext(q, "yes"))
	assert.Equal(t, "sad", ResolveNext(q, "no"))
}

func TestResolveNext_TerminalAlwaysEnds(t *testing.T) {
	questions := []models.Question{
		{Type: models.Text, IsTerminal: true, DefaultNextQuestionID: "q2"},
		{Type: models.MultipleChoice, IsTerminal: true, Options: []models.Option{{ID: "a", NextQuestionID: "q2"}}},
		{Type: models.Number, IsTerminal: true, ConditionalNext: []models.Condition{{Operator: models.Equals, Value: 1.0, NextQuestionID: "q2"}}},
	}

	for _, q := range questions {
		for _, raw := range []string{"a", "1", "", "anything"} {
			assert.Equal(t, "", ResolveNext(q, raw))
		}
	}
}

func TestResolveNext_OptionConditionsAreNotConsulted(t *testing.T) {
	q := models.Question{
		ID:   "q",
		Type: models.MultipleChoice,
		Options: []models.Option{
			{
				ID:             "a",
				NextQuestionID: "plain",
				Conditions:     []models.Condition{{Operator: models.Equals, Value: "a", NextQuestionID: "conditional"}},
			},
		},
	}

	assert.Equal(t, "plain", ResolveNext(q, "a"))
}

func TestResolveNext_Conditions(t *testing.T) {
	number := models.Question{
		ID:   "age",
		Type: models.Number,
		ConditionalNext: []models.Condition{
			{Operator: models.Equals, Value: 18.0, NextQuestionID: "adult"},
			{Operator: models.Equals, Value: 18, NextQuestionID: "shadowed"},
			{Operator: models.Equals, Value: 12, NextQuestionID: "child"},
		},
		DefaultNextQuestionID: "fallback",
	}
	text := models.Question{
		ID:              "color",
		Type:            models.Text,
		ConditionalNext: []models.Condition{{Operator: models.Equals, Value: "blue", NextQuestionID: "sky"}},
	}
	date := models.Question{
		ID:              "born",
		Type:            models.Date,
		ConditionalNext: []models.Condition{{Operator: models.Equals, Value: "2000-01-01", NextQuestionID: "millennial"}},
	}
	unknownOperator := models.Question{
		ID:              "op",
		Type:            models.Text,
		ConditionalNext: []models.Condition{{Operator: "contains", Value: "x", NextQuestionID: "never"}},
	}

	tests := []struct {
		name     string
		question models.Question
		raw      string
		want     string
	}{
		{"first match wins", number, "18", "adult"},
		{"int condition value matches float answer", number, "12.0", "child"},
		{"no match is a dead end", number, "40", ""},
		{"invalid answer matches nothing", number, "forty", ""},
		{"text match", text, "blue", "sky"},
		{"text mismatch", text, "Blue", ""},
		{"date match", date, "2000-01-01", "millennial"},
		{"date mismatch", date, "2000-01-02", ""},
		{"unknown operator", unknownOperator, "x", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveNext(tt.question, tt.raw))
		})
	}
}

func TestResolveNext_DefaultNext(t *testing.T) {
	assert.Equal(t, "q2", ResolveNext(models.Question{Type: models.Text, DefaultNextQuestionID: "q2"}, "hi"))
	assert.Equal(t, "", ResolveNext(models.Question{Type: models.Text}, "hi"))
}

func TestResolveNext_IsDeterministic(t *testing.T) {
	q := models.Question{
		Type:            models.Number,
		ConditionalNext: []models.Condition{{Operator: models.Equals, Value: 1.0, NextQuestionID: "one"}},
	}

	first := ResolveNext(q, "1")
	for range 10 {
		assert.Equal(t, first, ResolveNext(q, "1"))
	}
}

// Following ResolveNext from the first question reaches an answer with no
// next question on a validated survey.
func TestResolveNext_ChainReachesCompletion(t *testing.T) {
	s := branchingSurvey()
	require.NoError(t, Validate(s))

	answers := map[string]string{"q1": "opt1", "q2": "lots"}
	current := s.FirstQuestionID
	steps := 0
	for current != "" {
		q, err := GetQuestion(s, current)
		require.NoError(t, err)
		_, err = ValidateAnswer(q, answers[current])
		require.NoError(t, err)
		current = ResolveNext(q, answers[current])
		steps++
		require.LessOrEqual(t, steps, len(s.Questions))
	}
	assert.Equal(t, 2, steps)
}

func TestEvaluateExpression_InvalidSyntax(t *testing.T) {
	result, err := evaluateExpression(`input["q1" == true`, map[string]any{"q1": "yes"})
	if err == nil {
		t.Errorf("expected error for invalid expression, got none")
	}
	if result {
		t.Errorf("expected result to be false, got true")
	}
}

func TestEvaluateExpression_NonBooleanResult(t *testing.T) {
	result, err := evaluateExpression(`q1`, map[string]any{"q1": "hello"})
	if err == nil || !strings.Contains(err.Error(), "expression did not return a boolean") {
		t.Errorf("expected 'expression did not return a boolean' error, got %v", err)
	}
	if result {
		t.Errorf("expected result to be false, got true")
	}
}

func TestEvaluateExpression_MismatchedKinds(t *testing.T) {
	result, err := evaluateExpression("answer == value", map[string]any{"answer": "1", "value": 1.0})
	require.NoError(t, err)
	assert.False(t, result)
}
