package api

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/paulexconde/surveychat/internal/models"
	"github.com/paulexconde/surveychat/internal/pkg/cache"
	"github.com/paulexconde/surveychat/internal/pkg/store"
	"github.com/paulexconde/surveychat/internal/repositories"
	"github.com/paulexconde/surveychat/internal/services"
)

type testApp struct {
	router   *gin.Engine
	surveys  services.SurveyService
	sessions services.SessionService
	chat     *ChatController
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := store.Open(context.Background(), store.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	surveyRepo := repositories.NewSurveyRepository(store.NewDataStore[models.Survey](db, "surveys"))
	responseRepo := repositories.NewResponseRepository(store.NewDataStore[models.SurveyResponse](db, "survey_responses"))
	sessionRepo := repositories.NewSessionRepository(cache.NewMemory(), logger)

	surveys := services.NewSurveyService(surveyRepo, logger)
	responses := services.NewResponseService(surveyRepo, responseRepo, logger)
	sessions := services.NewSessionService(sessionRepo, surveyRepo, responses, services.SessionTTLs{}, logger)
	chat := services.NewChatService(sessions, responses, logger)

	chatController := NewChatController(chat, logger)
	router := NewRouter(logger,
		NewHealthController(),
		NewSurveyController(surveys, responses, logger),
		chatController,
	)

	return &testApp{router: router, surveys: surveys, sessions: sessions, chat: chatController}
}

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
