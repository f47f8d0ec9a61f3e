package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/paulexconde/surveychat/internal/models"
	"github.com/paulexconde/surveychat/internal/repositories"
	"github.com/paulexconde/surveychat/pkg/fault"
)

const (
	DefaultActiveTTL    = time.Hour
	DefaultSuspendedTTL = 10 * time.Minute
)

// SessionState is the liveness of the session of one (user, survey) pair.
type SessionState int

const (
	// No active or suspended session is cached.
	Absent SessionState = iota
	// A live conversation owns the session.
	Active
	// The conversation ended recently and can be resumed.
	Suspended
)

func (s SessionState) String() string {
	switch s {
	case Active:
		return "active"
	case Suspended:
		return "suspended"
	default:
		return "absent"
	}
}

// SessionTTLs bounds how long each slot outlives its last write.
type SessionTTLs struct {
	Active    time.Duration
	Suspended time.Duration
}

// Reconciles the cached session of a pair with the durable survey and
// response records.
type SessionService interface {
	// GetActiveSession returns the active session of id, promoting a
	// suspended one or rebuilding it from the store when needed. It fails
	// when the survey does not exist.
	GetActiveSession(ctx context.Context, id models.SessionID) (*models.Session, error)
	// Current returns the active session without promoting or rebuilding.
	Current(ctx context.Context, id models.SessionID) (*models.Session, error)
	// State reports which slot holds the session, checking Active first.
	State(ctx context.Context, id models.SessionID) (SessionState, error)
	IsActive(ctx context.Context, id models.SessionID) (bool, error)
	// Deactivate moves the active session to the suspended slot.
	Deactivate(ctx context.Context, id models.SessionID) error
	// Update overwrites the active session and refreshes its ttl.
	Update(ctx context.Context, session models.Session) error
	// Delete drops the active session without suspending it.
	Delete(ctx context.Context, id models.SessionID) error
}

type sessionServiceImpl struct {
	sessions  repositories.SessionRepository
	surveys   repositories.SurveyRepository
	responses ResponseService
	ttls      SessionTTLs
	logger    *slog.Logger
}

func NewSessionService(
	sessions repositories.SessionRepository,
	surveys repositories.SurveyRepository,
	responses ResponseService,
	ttls SessionTTLs,
	logger *slog.Logger,
) SessionService {
	if ttls.Active <= 0 {
		ttls.Active = DefaultActiveTTL
	}
	if ttls.Suspended <= 0 {
		ttls.Suspended = DefaultSuspendedTTL
	}

	return &sessionServiceImpl{
		sessions:  sessions,
		surveys:   surveys,
		responses: responses,
		ttls:      ttls,
		logger:    logger,
	}
}

func (s *sessionServiceImpl) GetActiveSession(ctx context.Context, id models.SessionID) (*models.Session, error) {
	active, err := s.sessions.Get(ctx, repositories.ActiveSlot, id)
	if err != nil {
		return nil, fault.NewInternalError("failed to read session", err)
	}
	if active != nil {
		s.logger.Debug("Active session hit", "session", id.String())
		return active, nil
	}

	survey, err := s.surveys.FindByID(ctx, id.SurveyID)
	if err != nil {
		return nil, classify(err, "survey")
	}

	session, err := s.resume(ctx, id)
	if err != nil {
		return nil, err
	}
	session.Survey = survey

	response, err := s.resolveResponse(ctx, id, session.Response)
	if err != nil {
		return nil, err
	}
	session.Response = response

	if err := s.sessions.Set(ctx, repositories.ActiveSlot, *session, s.ttls.Active); err != nil {
		return nil, fault.NewInternalError("failed to write session", err)
	}

	s.logger.Info("Session activated", "session", id.String(), "response_id", response.ID)
	return session, nil
}

// resume consumes the suspended session of id, or returns an empty one.
func (s *sessionServiceImpl) resume(ctx context.Context, id models.SessionID) (*models.Session, error) {
	suspended, err := s.sessions.Get(ctx, repositories.SuspendedSlot, id)
	if err != nil {
		return nil, fault.NewInternalError("failed to read session", err)
	}
	if suspended == nil {
		s.logger.Debug("No suspended session", "session", id.String())
		return &models.Session{ID: id}, nil
	}

	if err := s.sessions.Delete(ctx, repositories.SuspendedSlot, id); err != nil {
		return nil, fault.NewInternalError("failed to delete session", err)
	}

	s.logger.Debug("Resuming suspended session", "session", id.String())
	suspended.ID = id
	return suspended, nil
}

// resolveResponse re-reads the response known to the session, or finds or
// creates the response of the pair.
func (s *sessionServiceImpl) resolveResponse(ctx context.Context, id models.SessionID, known *models.SurveyResponse) (*models.SurveyResponse, error) {
	if known != nil && known.ID != "" {
		return s.responses.GetResponse(ctx, known.ID)
	}

	existing, err := s.responses.GetResponseBySurveyAndUser(ctx, id.SurveyID, id.UserID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, fault.ErrNotFound) {
		return nil, err
	}

	return s.responses.CreateResponse(ctx, id.SurveyID, id.UserID)
}

func (s *sessionServiceImpl) Current(ctx context.Context, id models.SessionID) (*models.Session, error) {
	active, err := s.sessions.Get(ctx, repositories.ActiveSlot, id)
	if err != nil {
		return nil, fault.NewInternalError("failed to read session", err)
	}
	if active == nil {
		return nil, fault.NewClientError("no active session, connect first", fault.ErrNoSession)
	}
	return active, nil
}

func (s *sessionServiceImpl) State(ctx context.Context, id models.SessionID) (SessionState, error) {
	for _, slot := range []repositories.Slot{repositories.ActiveSlot, repositories.SuspendedSlot} {
		session, err := s.sessions.Get(ctx, slot, id)
		if err != nil {
			return Absent, fault.NewInternalError("failed to read session", err)
		}
		if session == nil {
			continue
		}
		if slot == repositories.ActiveSlot {
			return Active, nil
		}
		return Suspended, nil
	}
	return Absent, nil
}

func (s *sessionServiceImpl) IsActive(ctx context.Context, id models.SessionID) (bool, error) {
	active, err := s.sessions.Get(ctx, repositories.ActiveSlot, id)
	if err != nil {
		return false, fault.NewInternalError("failed to read session", err)
	}
	return active != nil, nil
}

func (s *sessionServiceImpl) Deactivate(ctx context.Context, id models.SessionID) error {
	active, err := s.sessions.Get(ctx, repositories.ActiveSlot, id)
	if err != nil {
		return fault.NewInternalError("failed to read session", err)
	}
	if active == nil {
		return nil
	}

	if err := s.sessions.Set(ctx, repositories.SuspendedSlot, *active, s.ttls.Suspended); err != nil {
		return fault.NewInternalError("failed to write session", err)
	}
	if err := s.sessions.Delete(ctx, repositories.ActiveSlot, id); err != nil {
		return fault.NewInternalError("failed to delete session", err)
	}

	s.logger.Info("Session suspended", "session", id.String())
	return nil
}

func (s *sessionServiceImpl) Update(ctx context.Context, session models.Session) error {
	if err := s.sessions.Set(ctx, repositories.ActiveSlot, session, s.ttls.Active); err != nil {
		return fault.NewInternalError("failed to write session", err)
	}
	return nil
}

func (s *sessionServiceImpl) Delete(ctx context.Context, id models.SessionID) error {
	if err := s.sessions.Delete(ctx, repositories.ActiveSlot, id); err != nil {
		return fault.NewInternalError("failed to delete session", err)
	}

	s.logger.Info("Session closed", "session", id.String())
	return nil
}
