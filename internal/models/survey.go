package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// The type of question being asked.
type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	Text           QuestionType = "text"
	Number         QuestionType = "number"
	Boolean        QuestionType = "boolean"
	Date           QuestionType = "date"
	Rating         QuestionType = "rating"
)

// Valid reports whether t is one of the known question types.
func (t QuestionType) Valid() bool {
	switch t {
	case MultipleChoice, Text, Number, Boolean, Date, Rating:
		return true
	}
	return false
}

// RequiresOptions reports whether the type can only be answered by picking
// one of the question's options.
func (t QuestionType) RequiresOptions() bool {
	return t == MultipleChoice || t == Rating
}

// RoutesByOption reports whether the next question is taken from the chosen
// option rather than from conditions or the default.
func (t QuestionType) RoutesByOption() bool {
	return t == MultipleChoice || t == Rating || t == Boolean
}

type ConditionOperator string

const (
	Equals ConditionOperator = "equals"
)

func (o ConditionOperator) Valid() bool {
	return o == Equals
}

// The conditional next question after a question answered.
//
// Basically it determines what question will be asked based
// on the validated answer of the current question.
type Condition struct {
	Operator       ConditionOperator `json:"operator" yaml:"operator"`
	Value          any               `json:"value" yaml:"value"`
	NextQuestionID string            `json:"next_question_id" yaml:"next_question_id"`
}

type Option struct {
	ID             string      `json:"id" yaml:"id"`
	Text           string      `json:"text" yaml:"text"`
	NextQuestionID string      `json:"next_question_id,omitempty" yaml:"next_question_id,omitempty"`
	Conditions     []Condition `json:"conditions,omitempty" yaml:"conditions,omitempty"`
}

// The Question object.
//
// An empty next question id means "no next question".
type Question struct {
	ID                    string       `json:"id" yaml:"id"`
	Type                  QuestionType `json:"type" yaml:"type"`
	Text                  string       `json:"text" yaml:"text"`
	Options               []Option     `json:"options,omitempty" yaml:"options,omitempty"`
	DefaultNextQuestionID string       `json:"default_next_question_id,omitempty" yaml:"default_next_question_id,omitempty"`
	ConditionalNext       []Condition  `json:"conditional_next,omitempty" yaml:"conditional_next,omitempty"`
	IsTerminal            bool         `json:"is_terminal,omitempty" yaml:"is_terminal,omitempty"`
}

// QuestionSet is the question map of a survey, stored as a JSON column.
type QuestionSet map[string]Question

func (q QuestionSet) Value() (driver.Value, error) {
	if q == nil {
		return "{}", nil
	}
	b, err := json.Marshal(q)
	if err != nil {
		return nil, err
	}
	// lib/pq sends []byte as bytea; jsonb columns need text.
	return string(b), nil
}

func (q *QuestionSet) Scan(src any) error {
	return scanJSON(src, q)
}

// The Survey object.
type Survey struct {
	ID              string      `db:"id" json:"id" yaml:"id,omitempty"`
	Title           string      `db:"title" json:"title" yaml:"title"`
	Description     string      `db:"description" json:"description" yaml:"description"`
	FirstQuestionID string      `db:"first_question_id" json:"first_question_id" yaml:"first_question_id"`
	Questions       QuestionSet `db:"questions" json:"questions" yaml:"questions"`
	IsActive        bool        `db:"is_active" json:"is_active" yaml:"-"`
	CreatedAt       time.Time   `db:"created_at" json:"created_at" yaml:"-"`
	UpdatedAt       time.Time   `db:"updated_at" json:"updated_at" yaml:"-"`
}

// SurveyUpdate is a partial update; nil fields are left untouched and
// Questions is merged key by key into the current question set.
type SurveyUpdate struct {
	Title           *string     `json:"title,omitempty"`
	Description     *string     `json:"description,omitempty"`
	FirstQuestionID *string     `json:"first_question_id,omitempty"`
	Questions       QuestionSet `json:"questions,omitempty"`
}

// Merge returns the survey as it would look with the update applied.
// The receiver is not modified.
func (u SurveyUpdate) Merge(current Survey) Survey {
	merged := current
	if u.Title != nil {
		merged.Title = *u.Title
	}
	if u.Description != nil {
		merged.Description = *u.Description
	}
	if u.FirstQuestionID != nil {
		merged.FirstQuestionID = *u.FirstQuestionID
	}

	merged.Questions = make(QuestionSet, len(current.Questions)+len(u.Questions))
	for id, q := range current.Questions {
		merged.Questions[id] = q
	}
	for id, q := range u.Questions {
		merged.Questions[id] = q
	}
	return merged
}

func scanJSON(src any, dst any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("cannot scan %T into %T", src, dst)
	}
}

func (s Survey) PrimaryKey() string {
	return s.ID
}
