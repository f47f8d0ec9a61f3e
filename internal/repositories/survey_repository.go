package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/paulexconde/surveychat/internal/models"
	"github.com/paulexconde/surveychat/internal/pkg/paginator"
	"github.com/paulexconde/surveychat/internal/pkg/store"
	"github.com/paulexconde/surveychat/pkg/fault"
)

const surveyColumns = "id, title, description, first_question_id, questions, is_active, created_at, updated_at"

// Persists survey documents. Deletion is a flag flip; rows are never removed.
type SurveyRepository interface {
	Insert(ctx context.Context, survey models.Survey) (*models.Survey, error)
	// FindByID returns an active survey.
	FindByID(ctx context.Context, id string) (*models.Survey, error)
	FindActive(ctx context.Context) ([]models.Survey, error)
	PaginateActive(ctx context.Context, page, limit int) (*paginator.PaginatedResponse[models.Survey], error)
	// Update writes the fields set on update; Questions replaces the stored set.
	Update(ctx context.Context, id string, update models.SurveyUpdate) (*models.Survey, error)
	// SoftDelete reports whether an active survey was deactivated.
	SoftDelete(ctx context.Context, id string) (bool, error)
}

// surveyPatch is the partial row written by Update.
type surveyPatch struct {
	Title           *string            `db:"title"`
	Description     *string            `db:"description"`
	FirstQuestionID *string            `db:"first_question_id"`
	Questions       models.QuestionSet `db:"questions"`
	UpdatedAt       *time.Time         `db:"updated_at"`
}

func (surveyPatch) PrimaryKey() string { return "" }

type surveyRepositoryImpl struct {
	datastore store.Datastorer[models.Survey]
	paginator paginator.Paginator[models.Survey]
	now       func() time.Time
}

func NewSurveyRepository(ds store.Datastorer[models.Survey]) SurveyRepository {
	return &surveyRepositoryImpl{
		datastore: ds,
		paginator: paginator.NewPaginator(ds),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (r *surveyRepositoryImpl) Insert(ctx context.Context, survey models.Survey) (*models.Survey, error) {
	if survey.ID == "" {
		survey.ID = uuid.NewString()
	} else if err := checkID(survey.ID); err != nil {
		return nil, err
	}

	now := r.now()
	survey.IsActive = true
	survey.CreatedAt = now
	survey.UpdatedAt = now
	if survey.Questions == nil {
		survey.Questions = models.QuestionSet{}
	}

	return r.datastore.Create(ctx, survey)
}

func (r *surveyRepositoryImpl) FindByID(ctx context.Context, id string) (*models.Survey, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}

	return r.datastore.Get(ctx, "SELECT "+surveyColumns+" FROM surveys WHERE id = ? AND is_active = ?", id, true)
}

func (r *surveyRepositoryImpl) FindActive(ctx context.Context) ([]models.Survey, error) {
	return r.datastore.Select(ctx, "SELECT "+surveyColumns+" FROM surveys WHERE is_active = ? ORDER BY created_at, id", true)
}

func (r *surveyRepositoryImpl) PaginateActive(ctx context.Context, page, limit int) (*paginator.PaginatedResponse[models.Survey], error) {
	query := "SELECT " + surveyColumns + " FROM surveys WHERE is_active = ? ORDER BY created_at, id"
	return r.paginator.PaginateQuery(ctx, query, []any{true}, page, limit)
}

func (r *surveyRepositoryImpl) Update(ctx context.Context, id string, update models.SurveyUpdate) (*models.Survey, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}

	now := r.now()
	patch := surveyPatch{
		Title:           update.Title,
		Description:     update.Description,
		FirstQuestionID: update.FirstQuestionID,
		Questions:       update.Questions,
		UpdatedAt:       &now,
	}

	return r.datastore.Update(ctx, id, patch)
}

func (r *surveyRepositoryImpl) SoftDelete(ctx context.Context, id string) (bool, error) {
	if err := checkID(id); err != nil {
		return false, err
	}

	affected, err := r.datastore.Exec(ctx,
		"UPDATE surveys SET is_active = ?, updated_at = ? WHERE id = ? AND is_active = ?",
		false, r.now(), id, true)
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

// checkID rejects identifiers the store would never have issued.
func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fault.ErrInvalidIdentifier
	}
	return nil
}
