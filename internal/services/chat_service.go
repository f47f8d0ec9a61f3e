package services

import (
	"context"
	"log/slog"

	"github.com/paulexconde/surveychat/internal/flow"
	"github.com/paulexconde/surveychat/internal/models"
	"github.com/paulexconde/surveychat/pkg/fault"
)

// Drives one conversation: it turns answers into the next question to ask.
//
// A nil question with a nil error means the survey is complete.
type ChatService interface {
	// Connect claims the session of id and returns the question to ask.
	// At most one connection may own a session.
	Connect(ctx context.Context, id models.SessionID) (*models.Question, error)
	// HandleMessage records raw as the answer to the current question.
	// An invalid answer leaves the session untouched.
	HandleMessage(ctx context.Context, id models.SessionID, raw string) (*models.Question, error)
	// Disconnect suspends the session so the respondent can resume later.
	Disconnect(ctx context.Context, id models.SessionID) error
}

type chatServiceImpl struct {
	sessions  SessionService
	responses ResponseService
	logger    *slog.Logger
}

func NewChatService(sessions SessionService, responses ResponseService, logger *slog.Logger) ChatService {
	return &chatServiceImpl{sessions: sessions, responses: responses, logger: logger}
}

func (s *chatServiceImpl) Connect(ctx context.Context, id models.SessionID) (*models.Question, error) {
	state, err := s.sessions.State(ctx, id)
	if err != nil {
		return nil, err
	}
	switch state {
	case Active:
		return nil, fault.NewClientError("session already active", fault.ErrSessionActive)
	case Suspended:
		s.logger.Info("Resuming suspended session", "session", id.String())
	}

	session, err := s.sessions.GetActiveSession(ctx, id)
	if err != nil {
		return nil, err
	}

	if session.Response.IsComplete {
		return nil, fault.NewClientError("survey already completed", fault.ErrSurveyCompleted)
	}

	q, err := flow.GetQuestion(*session.Survey, session.Response.CurrentQuestionID)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Conversation connected", "session", id.String(), "question_id", q.ID)
	return &q, nil
}

func (s *chatServiceImpl) HandleMessage(ctx context.Context, id models.SessionID, raw string) (*models.Question, error) {
	session, err := s.sessions.Current(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Survey == nil || session.Response == nil {
		return nil, fault.NewClientError("no active session, connect first", fault.ErrNoSession)
	}
	if session.Response.IsComplete {
		return nil, fault.NewClientError("survey already completed", fault.ErrSurveyCompleted)
	}

	current, err := flow.GetQuestion(*session.Survey, session.Response.CurrentQuestionID)
	if err != nil {
		return nil, err
	}

	value, err := flow.ValidateAnswer(current, raw)
	if err != nil {
		s.logger.Warn("Invalid answer", "session", id.String(), "question_id", current.ID, "error", err)
		return nil, err
	}

	next := flow.ResolveNext(current, raw)
	complete := next == ""

	updated, err := s.responses.AddQuestionResponse(ctx, session.Response.ID, models.QuestionResponse{
		QuestionID:     current.ID,
		QuestionType:   current.Type,
		Value:          value,
		NextQuestionID: next,
	}, next, complete)
	if err != nil {
		return nil, err
	}

	if complete {
		if err := s.sessions.Delete(ctx, id); err != nil {
			return nil, err
		}
		return nil, nil
	}

	q, err := flow.GetQuestion(*session.Survey, next)
	if err != nil {
		return nil, err
	}

	session.Response = updated
	if err := s.sessions.Update(ctx, *session); err != nil {
		return nil, err
	}

	return &q, nil
}

func (s *chatServiceImpl) Disconnect(ctx context.Context, id models.SessionID) error {
	return s.sessions.Deactivate(ctx, id)
}
