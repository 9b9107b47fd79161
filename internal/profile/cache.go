package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/emberdate/matchkit/internal/cache"
)

// DefaultCacheTTL bounds how long a cached profile may serve reads.
const DefaultCacheTTL = time.Hour

// CachedStore is a read-through cache in front of a Store. Cache failures are
// never fatal: a read error degrades to a direct store read and a write error
// is logged and swallowed.
type CachedStore struct {
	store  Store
	kv     cache.KV
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedStore(store Store, kv cache.KV, ttl time.Duration, logger *zap.Logger) *CachedStore {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedStore{store: store, kv: kv, ttl: ttl, logger: logger}
}

func cacheKey(userID int64) string {
	return fmt.Sprintf("profile:%d", userID)
}

func (c *CachedStore) GetUserWithProfile(ctx context.Context, userID int64) (*UserProfile, error) {
	key := cacheKey(userID)

	raw, err := c.kv.Get(ctx, key)
	switch {
	case err == nil:
		var prof UserProfile
		if err := json.Unmarshal(raw, &prof); err == nil {
			return &prof, nil
		}
		c.logger.Warn("discarding undecodable cached profile",
			zap.Int64("user_id", userID), zap.Error(err))
	case !errors.Is(err, cache.ErrMiss):
		c.logger.Warn("profile cache read failed, falling back to store",
			zap.Int64("user_id", userID), zap.Error(err))
	}

	prof, err := c.store.GetUserWithProfile(ctx, userID)
	if err != nil {
		// Negative results are never cached.
		return nil, err
	}

	if raw, err := json.Marshal(prof); err == nil {
		if err := c.kv.Set(ctx, key, raw, c.ttl); err != nil {
			c.logger.Warn("profile cache write failed",
				zap.Int64("user_id", userID), zap.Error(err))
		}
	}

	return prof, nil
}

// FindCandidateProfiles and GetExclusionIDs pass through: the candidate list
// is request-specific and the exclusion set must always be fresh.
func (c *CachedStore) FindCandidateProfiles(ctx context.Context, criteria FilterCriteria, limit int) ([]*UserProfile, error) {
	return c.store.FindCandidateProfiles(ctx, criteria, limit)
}

func (c *CachedStore) GetExclusionIDs(ctx context.Context, userID int64) ([]int64, error) {
	return c.store.GetExclusionIDs(ctx, userID)
}

var _ Store = (*CachedStore)(nil)
