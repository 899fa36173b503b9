package research

import (
	"context"

	"go.uber.org/zap"

	"github.com/BaSui01/deepresearch/graph"
)

// Clarifier judges whether the user request is ambiguous enough to warrant
// a clarifying question. It only records the judgment; the baseline
// pipeline proceeds either way. When the oracle is unavailable the phase
// defaults to "no clarification needed"; blocking on a question the user
// never asked is worse than proceeding.
type Clarifier struct {
	oracle Oracle
	logger *zap.Logger
}

// NewClarifier creates the clarify phase.
func NewClarifier(oracle Oracle, logger *zap.Logger) *Clarifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Clarifier{
		oracle: oracle,
		logger: logger.With(zap.String("phase", NodeClarify)),
	}
}

// Execute implements graph.NodeFunc[State].
func (c *Clarifier) Execute(ctx context.Context, s State) (graph.Update[State], error) {
	question := s.Question()

	decision, err := c.oracle.Clarify(ctx, question)
	if err != nil {
		c.logger.Warn("oracle unavailable, proceeding without clarification", zap.Error(err))
		return &Update{
			Clarification: &Clarification{
				Needed:   false,
				Analysis: "clarification skipped: decision oracle unavailable",
			},
		}, nil
	}

	c.logger.Info("clarification judged",
		zap.Bool("needed", decision.Needed),
	)
	return &Update{
		Clarification: &Clarification{
			Needed:   decision.Needed,
			Question: decision.Question,
			Analysis: decision.Analysis,
		},
	}, nil
}
