// Package cache provides the volatile key/value stores backing live
// conversation sessions.
package cache

import (
	"context"
	"time"
)

// Store is a byte-valued cache with per-entry time to live.
type Store interface {
	// Get returns the value and true, or nil and false when the key is
	// missing or expired.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
