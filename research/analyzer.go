package research

import (
	"context"

	"go.uber.org/zap"

	"github.com/BaSui01/deepresearch/graph"
)

// Router labels on the Analyzer's exit edge.
const (
	RouteContinue = "continue"
	RouteFinish   = "finish"
)

// Analyzer extracts new findings from the collected material and decides
// whether the loop continues. The iteration ceiling is enforced here: once
// Iteration reaches the strategy's maximum, needs-more-research is forced
// false regardless of the oracle's answer. This is the loop's termination
// guarantee. An oracle failure keeps existing findings and exits the loop.
type Analyzer struct {
	oracle Oracle
	logger *zap.Logger
}

// NewAnalyzer creates the analyze phase.
func NewAnalyzer(oracle Oracle, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{
		oracle: oracle,
		logger: logger.With(zap.String("phase", NodeAnalyze)),
	}
}

// Execute implements graph.NodeFunc[State].
func (a *Analyzer) Execute(ctx context.Context, s State) (graph.Update[State], error) {
	maxIter := s.MaxIterations()

	decision, err := a.oracle.Analyze(ctx, AnalyzeRequest{
		Question:      s.Question(),
		Iteration:     s.Iteration,
		MaxIterations: maxIter,
		SearchResults: s.SearchResults,
		ReadContents:  s.ReadContents,
		Findings:      s.Findings,
	})
	if err != nil {
		a.logger.Warn("oracle unavailable, ending research with existing findings",
			zap.Int("iteration", s.Iteration),
			zap.Int("findings", len(s.Findings)),
			zap.Error(err),
		)
		return &Update{
			SetNeedsMore: ptr(false),
			SetNextQuery: ptr(""),
		}, nil
	}

	needsMore := decision.NeedsMoreResearch
	if s.Iteration >= maxIter {
		// Hard ceiling: the oracle does not get a vote past the budget.
		needsMore = false
		a.logger.Info("iteration ceiling reached, forcing loop exit",
			zap.Int("iteration", s.Iteration),
			zap.Int("max_iterations", maxIter),
		)
	}

	update := &Update{
		AppendFindings: decision.Findings,
		SetNeedsMore:   ptr(needsMore),
	}
	if needsMore {
		update.SetNextQuery = ptr(decision.NextQuery)
		update.SetIteration = ptr(s.Iteration + 1)
		a.logger.Info("more research requested",
			zap.Int("iteration", s.Iteration),
			zap.String("next_query", decision.NextQuery),
		)
	} else {
		update.SetNextQuery = ptr("")
		a.logger.Info("research complete",
			zap.Int("iteration", s.Iteration),
			zap.Int("new_findings", len(decision.Findings)),
		)
	}
	return update, nil
}

// RouteAfterAnalyze is the loop-exit router: continue back to the Searcher
// or finish into the Compressor. Pure with respect to the state.
func RouteAfterAnalyze(s State) string {
	if s.NeedsMoreResearch {
		return RouteContinue
	}
	return RouteFinish
}
