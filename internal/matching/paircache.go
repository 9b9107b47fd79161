package matching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/emberdate/matchkit/internal/cache"
)

// DefaultPairTTL bounds how long a computed compatibility result may be
// served; shorter than the profile cache so score changes show up sooner.
const DefaultPairTTL = 30 * time.Minute

// PairCache stores compatibility results under a canonical unordered pair key,
// so score(A,B) and score(B,A) share an entry. All failures are non-fatal.
type PairCache struct {
	kv     cache.KV
	ttl    time.Duration
	logger *zap.Logger
}

func NewPairCache(kv cache.KV, ttl time.Duration, logger *zap.Logger) *PairCache {
	if ttl <= 0 {
		ttl = DefaultPairTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PairCache{kv: kv, ttl: ttl, logger: logger}
}

func pairKey(a, b int64) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("compat:%d-%d", a, b)
}

// Get returns the cached result for the pair, or false on a miss. Read errors
// are logged and treated as a miss.
func (p *PairCache) Get(ctx context.Context, idA, idB int64) (*Result, bool) {
	key := pairKey(idA, idB)

	raw, err := p.kv.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			p.logger.Warn("pair cache read failed",
				zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var result Result
	if err := json.Unmarshal(raw, &result); err != nil {
		p.logger.Warn("discarding undecodable pair cache entry",
			zap.String("key", key), zap.Error(err))
		return nil, false
	}

	return &result, true
}

// Put stores the result best-effort; write failures are logged and swallowed.
func (p *PairCache) Put(ctx context.Context, idA, idB int64, result *Result) {
	key := pairKey(idA, idB)

	raw, err := json.Marshal(result)
	if err != nil {
		p.logger.Warn("pair cache encode failed",
			zap.String("key", key), zap.Error(err))
		return
	}

	if err := p.kv.Set(ctx, key, raw, p.ttl); err != nil {
		p.logger.Warn("pair cache write failed",
			zap.String("key", key), zap.Error(err))
	}
}
