package matching

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/emberdate/matchkit/internal/profile"
)

// OverfetchFactor compensates for candidates dropped later by the distance
// filter and by score gating: the store is asked for limit × this many rows.
const OverfetchFactor = 10

// Finder produces the bounded candidate set for a seeker.
type Finder struct {
	store  profile.Store
	logger *zap.Logger
	now    func() time.Time
}

func NewFinder(store profile.Store, logger *zap.Logger) *Finder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Finder{store: store, logger: logger, now: time.Now}
}

// FindCandidates loads the seeker and returns their filtered candidate set. A
// missing seeker or missing dating preferences yields an empty set, not an
// error; store failures are the one error class that surfaces.
func (f *Finder) FindCandidates(ctx context.Context, seekerID int64, limit int) (*Candidates, error) {
	seeker, err := f.store.GetUserWithProfile(ctx, seekerID)
	if errors.Is(err, profile.ErrNotFound) {
		f.logger.Info("seeker not found", zap.Int64("seeker_id", seekerID))
		return &Candidates{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load seeker %d: %w", seekerID, err)
	}

	return f.FindForSeeker(ctx, seeker, limit)
}

// FindForSeeker is FindCandidates for an already hydrated seeker profile.
func (f *Finder) FindForSeeker(ctx context.Context, seeker *profile.UserProfile, limit int) (*Candidates, error) {
	if !seeker.HasPreferences() {
		f.logger.Info("seeker has no dating preferences",
			zap.Int64("seeker_id", seeker.ID))
		return &Candidates{}, nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	excluded, err := f.store.GetExclusionIDs(ctx, seeker.ID)
	if err != nil {
		return nil, fmt.Errorf("load exclusion set for %d: %w", seeker.ID, err)
	}
	excluded = append(excluded, seeker.ID)

	criteria := profile.FilterCriteria{
		ExcludeIDs: excluded,
		Gender:     seeker.Preferences.GenderPreference,
		MinAge:     seeker.Preferences.MinAge,
		MaxAge:     seeker.Preferences.MaxAge,
		Now:        f.now(),
	}

	profiles, err := f.store.FindCandidateProfiles(ctx, criteria, limit*OverfetchFactor)
	if err != nil {
		return nil, fmt.Errorf("find candidates for %d: %w", seeker.ID, err)
	}

	candidates := &Candidates{Items: profiles}

	pipeline := NewPipeline([]Filter{
		NewEligibilityFilter(f.logger),
		NewDistanceFilter(seeker, f.logger),
		NewDedupeFilter(f.logger),
	}, f.logger)

	return pipeline.Run(ctx, candidates)
}
