package research

import (
	"context"

	"go.uber.org/zap"

	"github.com/BaSui01/deepresearch/graph"
)

// Supervisor classifies the plan's complexity and derives the loop budgets
// and research mode the downstream phases obey. It is a pure function of
// the plan; with no plan it emits the default medium strategy.
type Supervisor struct {
	logger *zap.Logger
}

// NewSupervisor creates the supervise phase.
func NewSupervisor(logger *zap.Logger) *Supervisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Supervisor{logger: logger.With(zap.String("phase", NodeSupervise))}
}

// Execute implements graph.NodeFunc[State].
func (sv *Supervisor) Execute(ctx context.Context, s State) (graph.Update[State], error) {
	strategy := Classify(s.Plan)
	sv.logger.Info("strategy selected",
		zap.String("complexity", string(strategy.Complexity)),
		zap.Int("max_iterations", strategy.MaxIterations),
		zap.Int("urls_per_query", strategy.URLsPerQuery),
		zap.String("mode", string(strategy.Mode)),
	)
	return &Update{Strategy: strategy}, nil
}

// Classify maps a plan onto a strategy:
//
//	COMPLEX: depth 3 or a full 4-query plan. Deep mode, 4 iterations,
//	         4 URLs per query.
//	SIMPLE:  depth 1 with at most 2 queries. Targeted mode, 2 iterations,
//	         2 URLs per query.
//	MEDIUM:  everything else. Targeted mode with the default budgets.
//
// A shallow plan with 3+ independent queries switches to broad mode, which
// routes to the parallel fan-out instead of the loop.
func Classify(plan *Plan) *Strategy {
	if plan == nil || len(plan.Queries) == 0 {
		return DefaultStrategy()
	}

	n := len(plan.Queries)
	var st *Strategy
	switch {
	case plan.Depth >= maxDepth || n >= maxPlanQueries:
		st = &Strategy{
			Complexity:    ComplexityComplex,
			MaxIterations: 4,
			URLsPerQuery:  4,
			Mode:          ModeDeep,
		}
	case plan.Depth <= minDepth && n <= 2:
		st = &Strategy{
			Complexity:    ComplexitySimple,
			MaxIterations: 2,
			URLsPerQuery:  2,
			Mode:          ModeTargeted,
		}
	default:
		st = DefaultStrategy()
	}

	if st.Complexity != ComplexityComplex && plan.Depth <= fallbackDepth && n >= 3 {
		st.Mode = ModeBroad
	}
	return st
}
