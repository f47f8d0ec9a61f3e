package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// Holds the validated answer of a single question.
type QuestionResponse struct {
	QuestionID   string       `json:"question_id"`
	QuestionType QuestionType `json:"question_type"`
	Value        any          `json:"response_value"`
	// NextQuestionID is the transition computed at answer time, kept for replay.
	NextQuestionID string `json:"next_question_id,omitempty"`
}

// Answers is the ordered answer log of a response, stored as a JSON column.
type Answers []QuestionResponse

func (a Answers) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (a *Answers) Scan(src any) error {
	return scanJSON(src, a)
}

// Holds the progress of one respondent through one survey.
//
// CurrentQuestionID is empty once the response is complete.
type SurveyResponse struct {
	ID                string     `db:"id" json:"id"`
	SurveyID          string     `db:"survey_id" json:"survey_id"`
	UserID            string     `db:"user_id" json:"user_id"`
	CurrentQuestionID string     `db:"current_question_id" json:"current_question_id,omitempty"`
	IsComplete        bool       `db:"is_complete" json:"is_complete"`
	StartedAt         time.Time  `db:"started_at" json:"started_at"`
	CompletedAt       *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	LastUpdatedAt     time.Time  `db:"last_updated_at" json:"last_updated_at"`
	Answers           Answers    `db:"answers" json:"answers,omitempty"`
}

func (r SurveyResponse) PrimaryKey() string {
	return r.ID
}
