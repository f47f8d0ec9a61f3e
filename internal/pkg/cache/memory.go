package cache

import (
	"context"
	"sync"
	"time"
)

const sweepInterval = time.Minute

type entry struct {
	value     []byte
	expiresAt time.Time
}

// Memory is an in-process Store. Expired entries are dropped when read and
// swept from Set at most once per sweep interval.
type Memory struct {
	mu        sync.RWMutex
	data      map[string]entry
	now       func() time.Time
	nextSweep time.Time
}

func NewMemory() *Memory {
	return &Memory{
		data: make(map[string]entry),
		now:  time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	e, ok := m.data[key]
	m.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}

	if !m.now().Before(e.expiresAt) {
		m.mu.Lock()
		// it may have been refreshed since the read lock was released
		if cur, ok := m.data[key]; ok && !m.now().Before(cur.expiresAt) {
			delete(m.data, key)
		}
		m.mu.Unlock()
		return nil, false, nil
	}

	return append([]byte(nil), e.value...), true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if !now.Before(m.nextSweep) {
		m.sweep(now)
	}

	m.data[key] = entry{
		value:     append([]byte(nil), value...),
		expiresAt: now.Add(ttl),
	}
	return nil
}

// sweep drops expired entries. m.mu must be held.
func (m *Memory) sweep(now time.Time) {
	for key, e := range m.data {
		if !now.Before(e.expiresAt) {
			delete(m.data, key)
		}
	}
	m.nextSweep = now.Add(sweepInterval)
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	return nil
}
