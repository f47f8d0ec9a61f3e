package models

import "fmt"

// SessionID keys a conversation by respondent and survey.
type SessionID struct {
	UserID   string `json:"user_id"`
	SurveyID string `json:"survey_id"`
}

func (id SessionID) String() string {
	return fmt.Sprintf("%s:%s", id.UserID, id.SurveyID)
}

// Session is the cached working copy of a survey and one respondent's
// response. It can always be rebuilt from the durable store.
type Session struct {
	ID       SessionID       `json:"id"`
	Survey   *Survey         `json:"survey,omitempty"`
	Response *SurveyResponse `json:"response,omitempty"`
}
