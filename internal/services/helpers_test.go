package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/paulexconde/surveychat/internal/models"
	"github.com/paulexconde/surveychat/internal/pkg/cache"
	"github.com/paulexconde/surveychat/internal/pkg/store"
	"github.com/paulexconde/surveychat/internal/repositories"
)

type harness struct {
	surveys      SurveyService
	responses    ResponseService
	sessions     SessionService
	chat         ChatService
	sessionStore repositories.SessionRepository
	cache        *cache.Memory
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db, err := store.Open(context.Background(), store.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mem := cache.NewMemory()

	surveyRepo := repositories.NewSurveyRepository(store.NewDataStore[models.Survey](db, "surveys"))
	responseRepo := repositories.NewResponseRepository(store.NewDataStore[models.SurveyResponse](db, "survey_responses"))
	sessionRepo := repositories.NewSessionRepository(mem, logger)

	responses := NewResponseService(surveyRepo, responseRepo, logger)
	sessions := NewSessionService(sessionRepo, surveyRepo, responses, SessionTTLs{}, logger)

	return &harness{
		surveys:      NewSurveyService(surveyRepo, logger),
		responses:    responses,
		sessions:     sessions,
		chat:         NewChatService(sessions, responses, logger),
		sessionStore: sessionRepo,
		cache:        mem,
	}
}

// branchingSurvey: q1 routes opt1 to q2 and opt2 to q3, both terminal.
func branchingSurvey() models.Survey {
	return models.Survey{
		Title:           "Branching",
		Description:     "Two ways through",
		FirstQuestionID: "q1",
		Questions: models.QuestionSet{
			"q1": {
				ID:   "q1",
				Type: models.MultipleChoice,
				Text: "Which way?",
				Options: []models.Option{
					{ID: "opt1", Text: "Left", NextQuestionID: "q2"},
					{ID: "opt2", Text: "Right", NextQuestionID: "q3"},
				},
			},
			"q2": {ID: "q2", Type: models.Text, Text: "Why left?", IsTerminal: true},
			"q3": {ID: "q3", Type: models.Text, Text: "Why right?", IsTerminal: true},
		},
	}
}

// numberSurvey asks for a number and then a terminal text question.
func numberSurvey() models.Survey {
	return models.Survey{
		Title:           "Numbers",
		Description:     "Counting",
		FirstQuestionID: "age",
		Questions: models.QuestionSet{
			"age":  {ID: "age", Type: models.Number, Text: "How old are you?", DefaultNextQuestionID: "name"},
			"name": {ID: "name", Type: models.Text, Text: "Your name?", IsTerminal: true},
		},
	}
}

func (h *harness) createSurvey(t *testing.T, s models.Survey) *models.Survey {
	t.Helper()

	created, err := h.surveys.CreateSurvey(context.Background(), s)
	require.NoError(t, err)
	return created
}
