package research

import (
	"context"

	"go.uber.org/zap"

	"github.com/BaSui01/deepresearch/graph"
)

const (
	minPlanQueries     = 2
	maxPlanQueries     = 4
	fallbackDepth      = 2
	minDepth, maxDepth = 1, 3
)

// Planner expands the user request into 2-4 parallel search queries with a
// depth target. This phase never blocks the pipeline: an oracle failure
// degrades to a single-query plan built from the raw question.
type Planner struct {
	oracle Oracle
	logger *zap.Logger
}

// NewPlanner creates the plan phase.
func NewPlanner(oracle Oracle, logger *zap.Logger) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{
		oracle: oracle,
		logger: logger.With(zap.String("phase", NodePlan)),
	}
}

// Execute implements graph.NodeFunc[State].
func (p *Planner) Execute(ctx context.Context, s State) (graph.Update[State], error) {
	question := s.Question()

	plan := p.buildPlan(ctx, question)
	p.logger.Info("research plan ready",
		zap.Int("queries", len(plan.Queries)),
		zap.Int("depth", plan.Depth),
	)

	// A fresh plan restarts the loop bookkeeping.
	return &Update{
		Plan:           plan,
		SetQueryCursor: ptr(0),
		SetIteration:   ptr(1),
	}, nil
}

func (p *Planner) buildPlan(ctx context.Context, question string) *Plan {
	decision, err := p.oracle.Plan(ctx, question)
	if err != nil {
		p.logger.Warn("oracle unavailable, using fallback plan", zap.Error(err))
		return fallbackPlan(question)
	}

	queries := decision.Queries
	if len(queries) == 0 {
		p.logger.Warn("oracle returned empty plan, using fallback plan")
		return fallbackPlan(question)
	}
	if len(queries) > maxPlanQueries {
		queries = queries[:maxPlanQueries]
	}

	depth := decision.Depth
	if depth < minDepth || depth > maxDepth {
		depth = fallbackDepth
	}

	return &Plan{
		Queries:    queries,
		FocusAreas: decision.FocusAreas,
		Depth:      depth,
	}
}

// fallbackPlan is the documented degraded plan: one query equal to the raw
// user message, medium depth.
func fallbackPlan(question string) *Plan {
	return &Plan{
		Queries:    []string{question},
		FocusAreas: []string{"general"},
		Depth:      fallbackDepth,
	}
}
