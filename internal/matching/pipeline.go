package matching

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Filter is a single in-process filtering step applied to a candidate set
// after the store has enforced its hard constraints.
type Filter interface {
	Name() string
	IsEnabled() bool
	Apply(ctx context.Context, c *Candidates) (*Candidates, Step, error)
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Pipeline executes filters sequentially, logging a summary per step.
type Pipeline struct {
	steps  []Filter
	logger *zap.Logger
}

func NewPipeline(steps []Filter, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{steps: steps, logger: logger}
}

func (p *Pipeline) Run(ctx context.Context, c *Candidates) (*Candidates, error) {
	for _, step := range p.steps {
		if !step.IsEnabled() {
			p.logger.Debug("filter disabled", zap.String("name", step.Name()))
			continue
		}

		next, info, err := step.Apply(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		p.logger.Info("filter step",
			zap.String("name", step.Name()),
			zap.Int("initial", info.Initial),
			zap.Int("dropped", info.Dropped),
			zap.Int("left", info.Left),
		)

		c = next
	}

	return c, nil
}
