package services

import (
	"context"
	"log/slog"

	"github.com/paulexconde/surveychat/internal/flow"
	"github.com/paulexconde/surveychat/internal/models"
	"github.com/paulexconde/surveychat/internal/pkg/paginator"
	"github.com/paulexconde/surveychat/internal/repositories"
	"github.com/paulexconde/surveychat/pkg/fault"
)

// Manages survey definitions. Every write is validated against the full
// question graph before it reaches the store.
type SurveyService interface {
	CreateSurvey(ctx context.Context, survey models.Survey) (*models.Survey, error)
	GetSurvey(ctx context.Context, id string) (*models.Survey, error)
	ListSurveys(ctx context.Context) ([]models.Survey, error)
	PaginateSurveys(ctx context.Context, page, limit int) (*paginator.PaginatedResponse[models.Survey], error)
	// UpdateSurvey merges update into the stored survey. A merge that breaks
	// the graph is rejected and nothing is written.
	UpdateSurvey(ctx context.Context, id string, update models.SurveyUpdate) (*models.Survey, error)
	DeleteSurvey(ctx context.Context, id string) error
}

type surveyServiceImpl struct {
	surveys repositories.SurveyRepository
	logger  *slog.Logger
}

// Instantiate the SurveyService.
func NewSurveyService(surveys repositories.SurveyRepository, logger *slog.Logger) SurveyService {
	return &surveyServiceImpl{surveys: surveys, logger: logger}
}

func (s *surveyServiceImpl) CreateSurvey(ctx context.Context, survey models.Survey) (*models.Survey, error) {
	if err := flow.ValidateMetadata(survey); err != nil {
		return nil, err
	}
	if err := flow.Validate(survey); err != nil {
		return nil, err
	}

	created, err := s.surveys.Insert(ctx, survey)
	if err != nil {
		return nil, classify(err, "survey")
	}

	s.logger.Info("Survey created", "survey_id", created.ID, "questions", len(created.Questions))
	return created, nil
}

func (s *surveyServiceImpl) GetSurvey(ctx context.Context, id string) (*models.Survey, error) {
	survey, err := s.surveys.FindByID(ctx, id)
	if err != nil {
		return nil, classify(err, "survey")
	}
	return survey, nil
}

func (s *surveyServiceImpl) ListSurveys(ctx context.Context) ([]models.Survey, error) {
	surveys, err := s.surveys.FindActive(ctx)
	if err != nil {
		return nil, classify(err, "survey")
	}
	return surveys, nil
}

func (s *surveyServiceImpl) PaginateSurveys(ctx context.Context, page, limit int) (*paginator.PaginatedResponse[models.Survey], error) {
	res, err := s.surveys.PaginateActive(ctx, page, limit)
	if err != nil {
		return nil, classify(err, "survey")
	}
	return res, nil
}

func (s *surveyServiceImpl) UpdateSurvey(ctx context.Context, id string, update models.SurveyUpdate) (*models.Survey, error) {
	current, err := s.surveys.FindByID(ctx, id)
	if err != nil {
		return nil, classify(err, "survey")
	}

	merged, err := flow.ValidateUpdate(*current, update)
	if err != nil {
		return nil, err
	}

	if update.Title == nil && update.Description == nil && update.FirstQuestionID == nil && update.Questions == nil {
		return current, nil
	}
	if update.Questions != nil {
		update.Questions = merged.Questions
	}

	updated, err := s.surveys.Update(ctx, id, update)
	if err != nil {
		return nil, classify(err, "survey")
	}

	s.logger.Info("Survey updated", "survey_id", id)
	return updated, nil
}

func (s *surveyServiceImpl) DeleteSurvey(ctx context.Context, id string) error {
	deleted, err := s.surveys.SoftDelete(ctx, id)
	if err != nil {
		return classify(err, "survey")
	}
	if !deleted {
		return fault.NewClientError("survey not found", fault.ErrNotFound)
	}

	s.logger.Info("Survey deleted", "survey_id", id)
	return nil
}
