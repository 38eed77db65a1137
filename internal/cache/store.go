package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key is absent or expired.
var ErrNotFound = errors.New("cache: key not found")

// Store is the shared cache abstraction. A Redis-backed implementation is
// used when Redis is configured and a database-backed fallback otherwise, so
// callers never need to care which one they got.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key. A non-positive ttl means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// IncrementWithTTL atomically increments the counter at key and returns
	// the new value. The ttl is applied when the counter is created.
	IncrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)

	// Close releases any resources held by the store.
	Close() error
}
