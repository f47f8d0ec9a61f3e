package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/paulexconde/surveychat/internal/models"
	"github.com/paulexconde/surveychat/internal/pkg/store"
	"github.com/paulexconde/surveychat/pkg/fault"
)

const responseColumns = "id, survey_id, user_id, current_question_id, is_complete, started_at, completed_at, last_updated_at, answers"

// Persists respondents' progress records.
type ResponseRepository interface {
	Insert(ctx context.Context, response models.SurveyResponse) (*models.SurveyResponse, error)
	FindByID(ctx context.Context, id string) (*models.SurveyResponse, error)
	FindBySurveyAndUser(ctx context.Context, surveyID, userID string) ([]models.SurveyResponse, error)
	FindBySurvey(ctx context.Context, surveyID string) ([]models.SurveyResponse, error)
	// AddQuestionResponse appends answer, moves the cursor to next and sets
	// the completion flag in one transaction.
	AddQuestionResponse(ctx context.Context, id string, answer models.QuestionResponse, next string, complete bool) (*models.SurveyResponse, error)
}

type responseRepositoryImpl struct {
	datastore store.Datastorer[models.SurveyResponse]
	now       func() time.Time
}

func NewResponseRepository(ds store.Datastorer[models.SurveyResponse]) ResponseRepository {
	return &responseRepositoryImpl{
		datastore: ds,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (r *responseRepositoryImpl) Insert(ctx context.Context, response models.SurveyResponse) (*models.SurveyResponse, error) {
	if response.ID == "" {
		response.ID = uuid.NewString()
	}

	now := r.now()
	if response.StartedAt.IsZero() {
		response.StartedAt = now
	}
	response.LastUpdatedAt = now
	if response.Answers == nil {
		response.Answers = models.Answers{}
	}

	return r.datastore.Create(ctx, response)
}

func (r *responseRepositoryImpl) FindByID(ctx context.Context, id string) (*models.SurveyResponse, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}

	return r.datastore.Get(ctx, "SELECT "+responseColumns+" FROM survey_responses WHERE id = ?", id)
}

func (r *responseRepositoryImpl) FindBySurveyAndUser(ctx context.Context, surveyID, userID string) ([]models.SurveyResponse, error) {
	return r.datastore.Select(ctx,
		"SELECT "+responseColumns+" FROM survey_responses WHERE survey_id = ? AND user_id = ? ORDER BY started_at, id",
		surveyID, userID)
}

func (r *responseRepositoryImpl) FindBySurvey(ctx context.Context, surveyID string) ([]models.SurveyResponse, error) {
	return r.datastore.Select(ctx,
		"SELECT "+responseColumns+" FROM survey_responses WHERE survey_id = ? ORDER BY started_at, id",
		surveyID)
}

func (r *responseRepositoryImpl) AddQuestionResponse(ctx context.Context, id string, answer models.QuestionResponse, next string, complete bool) (*models.SurveyResponse, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}

	var updated models.SurveyResponse

	err := r.datastore.WithTx(ctx, func(tx *sqlx.Tx) error {
		selectQuery := tx.Rebind("SELECT " + responseColumns + " FROM survey_responses WHERE id = ?")
		if err := tx.GetContext(ctx, &updated, selectQuery, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fault.ErrNotFound
			}
			return err
		}

		now := r.now()
		updated.Answers = append(updated.Answers, answer)
		updated.CurrentQuestionID = next
		updated.IsComplete = complete
		updated.LastUpdatedAt = now
		if complete && updated.CompletedAt == nil {
			updated.CompletedAt = &now
		}

		updateQuery := tx.Rebind(`UPDATE survey_responses
			SET answers = ?, current_question_id = ?, is_complete = ?, completed_at = ?, last_updated_at = ?
			WHERE id = ?`)
		_, err := tx.ExecContext(ctx, updateQuery,
			updated.Answers, updated.CurrentQuestionID, updated.IsComplete, updated.CompletedAt, updated.LastUpdatedAt, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &updated, nil
}
