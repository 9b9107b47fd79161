package matching

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/emberdate/matchkit/internal/profile"
)

const (
	// DefaultLimit is the ranked result size when the caller passes none.
	DefaultLimit = 20
	// DefaultMaxConcurrent bounds the scoring fan-out so large candidate
	// sets do not exhaust semantic scorer connections.
	DefaultMaxConcurrent = 4
)

// RankedMatch pairs a candidate with their compatibility result.
type RankedMatch struct {
	Candidate *profile.UserProfile `json:"candidate"`
	Result    *Result              `json:"result"`
}

// Ranker is the engine's sole public entry point: it filters, scores, sorts
// and truncates candidates for a seeker.
type Ranker struct {
	store         profile.Source
	finder        *Finder
	engine        *Engine
	maxConcurrent int
	logger        *zap.Logger
}

// NewRanker only needs seeker reads from the store; candidate discovery goes
// through the finder.
func NewRanker(store profile.Source, finder *Finder, engine *Engine, maxConcurrent int, logger *zap.Logger) *Ranker {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ranker{
		store:         store,
		finder:        finder,
		engine:        engine,
		maxConcurrent: maxConcurrent,
		logger:        logger,
	}
}

// RankMatches returns up to limit candidates ordered by compatibility score
// descending, ties broken by candidate id ascending for determinism. A missing
// seeker, missing preferences or an empty candidate set yields an empty slice
// and a nil error; only store failures surface.
func (r *Ranker) RankMatches(ctx context.Context, seekerID int64, limit int) ([]RankedMatch, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	seeker, err := r.store.GetUserWithProfile(ctx, seekerID)
	if errors.Is(err, profile.ErrNotFound) {
		return []RankedMatch{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load seeker %d: %w", seekerID, err)
	}

	candidates, err := r.finder.FindForSeeker(ctx, seeker, limit)
	if err != nil {
		return nil, err
	}
	if candidates.Len() == 0 {
		return []RankedMatch{}, nil
	}

	results := r.scoreAll(ctx, seeker, candidates)

	matches := make([]RankedMatch, 0, len(results))
	for i, result := range results {
		if result == nil {
			continue
		}
		// A true zero means dealbreaker-gated or fully incompatible;
		// it is excluded, not an error.
		if result.Score == 0 {
			continue
		}
		matches = append(matches, RankedMatch{
			Candidate: candidates.Items[i],
			Result:    result,
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Result.Score != matches[j].Result.Score {
			return matches[i].Result.Score > matches[j].Result.Score
		}
		return matches[i].Candidate.ID < matches[j].Candidate.ID
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}

	r.logger.Info("ranking completed",
		zap.Int64("seeker_id", seekerID),
		zap.Int("candidates_scored", candidates.Len()),
		zap.Int("matches", len(matches)),
	)

	return matches, nil
}

// scoreAll fans out one scoring operation per candidate, bounded by a
// semaphore, and waits for all of them. Results land at the candidate's index
// so the outcome does not depend on completion order. A failed scoring call
// skips that candidate rather than failing the ranking.
func (r *Ranker) scoreAll(ctx context.Context, seeker *profile.UserProfile, candidates *Candidates) []*Result {
	results := make([]*Result, candidates.Len())

	group, groupCtx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, r.maxConcurrent)

	for i, candidate := range candidates.Items {
		group.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()

			result, err := r.engine.Score(groupCtx, seeker, candidate)
			if err != nil {
				r.logger.Warn("scoring candidate failed",
					zap.Int64("seeker_id", seeker.ID),
					zap.Int64("candidate_id", candidate.ID),
					zap.Error(err),
				)
				return nil
			}
			results[i] = result
			return nil
		})
	}

	// Workers never return errors; Wait is just the fan-in barrier.
	_ = group.Wait()

	return results
}
