package matching

import "github.com/emberdate/matchkit/internal/profile"

// Candidates is the transient, profile-hydrated set a matching request works
// on. It is never persisted.
type Candidates struct {
	Items []*profile.UserProfile
}

func (c *Candidates) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Items)
}

// IDs returns the candidate ids in list order.
func (c *Candidates) IDs() []int64 {
	ids := make([]int64, 0, c.Len())
	for _, item := range c.Items {
		ids = append(ids, item.ID)
	}
	return ids
}

// Dedupe removes candidates with a previously seen id, keeping the first
// occurrence, and returns the ids that were dropped.
func (c *Candidates) Dedupe() []int64 {
	seen := make(map[int64]struct{}, c.Len())
	kept := make([]*profile.UserProfile, 0, c.Len())
	var dropped []int64

	for _, item := range c.Items {
		if _, ok := seen[item.ID]; ok {
			dropped = append(dropped, item.ID)
			continue
		}
		seen[item.ID] = struct{}{}
		kept = append(kept, item)
	}

	c.Items = kept
	return dropped
}
