package matching

import (
	"context"

	"go.uber.org/zap"
)

type dedupeFilter struct {
	logger *zap.Logger
}

// NewDedupeFilter removes duplicate candidate ids, keeping the first
// occurrence.
func NewDedupeFilter(logger *zap.Logger) Filter {
	return &dedupeFilter{logger: logger}
}

func (f *dedupeFilter) Name() string { return "dedupe" }

func (f *dedupeFilter) IsEnabled() bool { return true }

func (f *dedupeFilter) Apply(_ context.Context, c *Candidates) (*Candidates, Step, error) {
	initial := c.Len()
	dropped := c.Dedupe()

	if f.logger != nil && len(dropped) > 0 {
		f.logger.Debug("removed duplicate candidates",
			zap.Int64s("duplicate_ids", dropped),
		)
	}

	return c, Step{Initial: initial, Dropped: len(dropped), Left: c.Len()}, nil
}
