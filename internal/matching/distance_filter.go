package matching

import (
	"context"

	"go.uber.org/zap"

	"github.com/emberdate/matchkit/internal/profile"
)

// distanceFilter keeps candidates within the seeker's maximum distance. It is
// only active when the seeker has a geolocation and a positive max distance;
// otherwise no candidate is excluded on distance.
type distanceFilter struct {
	origin *profile.Location
	maxKm  float64
	logger *zap.Logger
}

// NewDistanceFilter builds the distance step for a seeker.
func NewDistanceFilter(seeker *profile.UserProfile, logger *zap.Logger) Filter {
	f := &distanceFilter{logger: logger}
	if seeker == nil || seeker.Location == nil || seeker.Preferences == nil {
		return f
	}
	if seeker.Preferences.MaxDistanceKm <= 0 {
		return f
	}
	f.origin = seeker.Location
	f.maxKm = seeker.Preferences.MaxDistanceKm
	return f
}

func (f *distanceFilter) Name() string { return "distance" }

func (f *distanceFilter) IsEnabled() bool { return f.origin != nil }

func (f *distanceFilter) Apply(_ context.Context, c *Candidates) (*Candidates, Step, error) {
	initial := c.Len()
	kept := make([]*profile.UserProfile, 0, initial)
	var dropped []int64

	for _, candidate := range c.Items {
		// With the filter active, candidates without a geolocation are out.
		if candidate.Location == nil {
			dropped = append(dropped, candidate.ID)
			continue
		}

		distance := haversine(f.origin.Lat, f.origin.Lon,
			candidate.Location.Lat, candidate.Location.Lon)
		// A candidate exactly at the boundary stays in.
		if distance > f.maxKm {
			dropped = append(dropped, candidate.ID)
			continue
		}

		kept = append(kept, candidate)
	}

	c.Items = kept

	if f.logger != nil && len(dropped) > 0 {
		f.logger.Debug("excluding candidates by distance",
			zap.Float64("max_distance_km", f.maxKm),
			zap.Int64s("excluded_candidates", dropped),
			zap.Int("candidates_left", c.Len()),
		)
	}

	return c, Step{Initial: initial, Dropped: len(dropped), Left: c.Len()}, nil
}
