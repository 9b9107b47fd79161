package profile

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when the store has no profile for the requested user.
var ErrNotFound = errors.New("profile not found")

// FilterCriteria describes the hard constraints the store applies when listing
// candidate profiles for a seeker.
type FilterCriteria struct {
	// ExcludeIDs contains the seeker plus every user with a prior match
	// decision in either direction.
	ExcludeIDs []int64
	// Gender restricts candidates to a single gender. Empty or GenderAny
	// disables the restriction.
	Gender string
	// MinAge and MaxAge bound the candidate's age at Now, inclusive on both
	// ends.
	MinAge int
	MaxAge int
	// Now is the moment ages are computed against.
	Now time.Time
}

// Store is the system-of-record adapter for profiles.
type Store interface {
	// GetUserWithProfile returns the full profile graph for a user, or
	// ErrNotFound.
	GetUserWithProfile(ctx context.Context, userID int64) (*UserProfile, error)
	// FindCandidateProfiles returns up to limit complete profiles satisfying
	// the criteria, with their sub-documents hydrated.
	FindCandidateProfiles(ctx context.Context, criteria FilterCriteria, limit int) ([]*UserProfile, error)
	// GetExclusionIDs returns every user id already matched or declined with
	// the given user, in either direction.
	GetExclusionIDs(ctx context.Context, userID int64) ([]int64, error)
}

// Source is the read side the matching engine consumes: a Store, usually
// wrapped by the read-through cache.
type Source interface {
	GetUserWithProfile(ctx context.Context, userID int64) (*UserProfile, error)
}
