package services

import (
	"context"
	"log/slog"

	"github.com/paulexconde/surveychat/internal/models"
	"github.com/paulexconde/surveychat/internal/repositories"
	"github.com/paulexconde/surveychat/pkg/fault"
)

// Tracks every respondent's progress through a survey.
//
// AddQuestionResponse is the only write path for an existing response.
type ResponseService interface {
	// CreateResponse starts a response at the survey's first question.
	// Callers check for an existing response of the pair first.
	CreateResponse(ctx context.Context, surveyID, userID string) (*models.SurveyResponse, error)
	AddQuestionResponse(ctx context.Context, responseID string, answer models.QuestionResponse, next string, complete bool) (*models.SurveyResponse, error)
	GetResponse(ctx context.Context, id string) (*models.SurveyResponse, error)
	// GetResponseBySurveyAndUser returns the earliest response of the pair.
	GetResponseBySurveyAndUser(ctx context.Context, surveyID, userID string) (*models.SurveyResponse, error)
	GetSurveyResponses(ctx context.Context, surveyID string) ([]models.SurveyResponse, error)
}

type responseServiceImpl struct {
	surveys   repositories.SurveyRepository
	responses repositories.ResponseRepository
	logger    *slog.Logger
}

// Instantiate the `ResponseService`.
func NewResponseService(surveys repositories.SurveyRepository, responses repositories.ResponseRepository, logger *slog.Logger) ResponseService {
	return &responseServiceImpl{surveys: surveys, responses: responses, logger: logger}
}

func (s *responseServiceImpl) CreateResponse(ctx context.Context, surveyID, userID string) (*models.SurveyResponse, error) {
	survey, err := s.surveys.FindByID(ctx, surveyID)
	if err != nil {
		return nil, classify(err, "survey")
	}

	created, err := s.responses.Insert(ctx, models.SurveyResponse{
		SurveyID:          survey.ID,
		UserID:            userID,
		CurrentQuestionID: survey.FirstQuestionID,
		Answers:           models.Answers{},
	})
	if err != nil {
		return nil, classify(err, "response")
	}

	s.logger.Info("Response created", "response_id", created.ID, "survey_id", surveyID, "user_id", userID)
	return created, nil
}

func (s *responseServiceImpl) AddQuestionResponse(ctx context.Context, responseID string, answer models.QuestionResponse, next string, complete bool) (*models.SurveyResponse, error) {
	updated, err := s.responses.AddQuestionResponse(ctx, responseID, answer, next, complete)
	if err != nil {
		return nil, classify(err, "response")
	}

	if complete {
		s.logger.Info("Response completed", "response_id", responseID, "answers", len(updated.Answers))
	}
	return updated, nil
}

func (s *responseServiceImpl) GetResponse(ctx context.Context, id string) (*models.SurveyResponse, error) {
	response, err := s.responses.FindByID(ctx, id)
	if err != nil {
		return nil, classify(err, "response")
	}
	return response, nil
}

func (s *responseServiceImpl) GetResponseBySurveyAndUser(ctx context.Context, surveyID, userID string) (*models.SurveyResponse, error) {
	found, err := s.responses.FindBySurveyAndUser(ctx, surveyID, userID)
	if err != nil {
		return nil, classify(err, "response")
	}
	if len(found) == 0 {
		return nil, fault.NewClientError("response not found", fault.ErrNotFound)
	}
	return &found[0], nil
}

func (s *responseServiceImpl) GetSurveyResponses(ctx context.Context, surveyID string) ([]models.SurveyResponse, error) {
	if _, err := s.surveys.FindByID(ctx, surveyID); err != nil {
		return nil, classify(err, "survey")
	}

	responses, err := s.responses.FindBySurvey(ctx, surveyID)
	if err != nil {
		return nil, classify(err, "response")
	}
	return responses, nil
}
