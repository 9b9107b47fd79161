// Package cache provides the key-value backend shared by the profile cache and
// the pairwise score cache. Implementations are externally synchronized;
// concurrent writes to the same key are last-write-wins.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// KV is a string-keyed byte store with per-entry TTL.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
