package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/paulexconde/surveychat/internal/models"
	"github.com/paulexconde/surveychat/internal/pkg/cache"
)

// Slot is the cache namespace a session lives in.
type Slot int

const (
	ActiveSlot Slot = iota
	SuspendedSlot
)

func (s Slot) prefix() string {
	if s == SuspendedSlot {
		return "inactive_session"
	}
	return "active_session"
}

func (s Slot) String() string {
	if s == SuspendedSlot {
		return "suspended"
	}
	return "active"
}

// Holds cached sessions under the active and suspended namespaces.
type SessionRepository interface {
	// Get returns nil when the slot holds no readable session.
	Get(ctx context.Context, slot Slot, id models.SessionID) (*models.Session, error)
	Set(ctx context.Context, slot Slot, session models.Session, ttl time.Duration) error
	Delete(ctx context.Context, slot Slot, id models.SessionID) error
}

type sessionRepositoryImpl struct {
	cache  cache.Store
	logger *slog.Logger
}

func NewSessionRepository(c cache.Store, logger *slog.Logger) SessionRepository {
	return &sessionRepositoryImpl{cache: c, logger: logger}
}

// SessionKey is the cache key of a session, e.g. active_session:u1:s1.
func SessionKey(slot Slot, id models.SessionID) string {
	return fmt.Sprintf("%s:%s", slot.prefix(), id)
}

func (r *sessionRepositoryImpl) Get(ctx context.Context, slot Slot, id models.SessionID) (*models.Session, error) {
	key := SessionKey(slot, id)

	raw, ok, err := r.cache.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !ok {
		return nil, nil
	}

	var session models.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		r.logger.Error("Discarding unreadable cached session", "key", key, "error", err)
		return nil, nil
	}

	return &session, nil
}

func (r *sessionRepositoryImpl) Set(ctx context.Context, slot Slot, session models.Session, ttl time.Duration) error {
	key := SessionKey(slot, session.ID)

	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}

	if err := r.cache.Set(ctx, key, raw, ttl); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (r *sessionRepositoryImpl) Delete(ctx context.Context, slot Slot, id models.SessionID) error {
	key := SessionKey(slot, id)

	if err := r.cache.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}
