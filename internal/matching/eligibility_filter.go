package matching

import (
	"context"

	"go.uber.org/zap"

	"github.com/emberdate/matchkit/internal/profile"
)

type eligibilityFilter struct {
	logger *zap.Logger
}

// NewEligibilityFilter drops candidates without dating preferences. A profile
// missing them cannot reciprocate and is ineligible to be matched, the same
// way a seeker without them is ineligible to seek.
func NewEligibilityFilter(logger *zap.Logger) Filter {
	return &eligibilityFilter{logger: logger}
}

func (f *eligibilityFilter) Name() string { return "eligibility" }

func (f *eligibilityFilter) IsEnabled() bool { return true }

func (f *eligibilityFilter) Apply(_ context.Context, c *Candidates) (*Candidates, Step, error) {
	initial := c.Len()
	kept := make([]*profile.UserProfile, 0, initial)
	var dropped []int64

	for _, candidate := range c.Items {
		if !candidate.HasPreferences() {
			dropped = append(dropped, candidate.ID)
			continue
		}
		kept = append(kept, candidate)
	}

	c.Items = kept

	if f.logger != nil && len(dropped) > 0 {
		f.logger.Debug("excluding candidates without dating preferences",
			zap.Int64s("excluded_candidates", dropped),
		)
	}

	return c, Step{Initial: initial, Dropped: len(dropped), Left: c.Len()}, nil
}
