package research

import (
	"context"

	"go.uber.org/zap"

	"github.com/BaSui01/deepresearch/graph"
)

const (
	minDimensionScore = 1.0
	maxDimensionScore = 5.0
	// revisionThreshold flags answers scoring under 14 of 20 total.
	revisionThreshold = 14.0
)

// Critic scores the final answer on the four CARC dimensions
// (Completeness, Accuracy, Relevance, Clarity) and flags whether a
// revision is warranted. It is diagnostic only: the baseline pipeline
// records the assessment but does not route back to the Writer. A
// revision loop is a documented extension point, not wired here.
type Critic struct {
	oracle Oracle
	logger *zap.Logger
}

// NewCritic creates the critique phase.
func NewCritic(oracle Oracle, logger *zap.Logger) *Critic {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Critic{
		oracle: oracle,
		logger: logger.With(zap.String("phase", NodeCritique)),
	}
}

// Execute implements graph.NodeFunc[State].
func (c *Critic) Execute(ctx context.Context, s State) (graph.Update[State], error) {
	answer := s.FinalAnswer()

	decision, err := c.oracle.Score(ctx, s.Question(), answer)
	if err != nil {
		c.logger.Warn("oracle unavailable, recording null assessment", zap.Error(err))
		return &Update{
			Quality: &Quality{
				Feedback:      "quality assessment unavailable",
				NeedsRevision: false,
			},
		}, nil
	}

	q := &Quality{
		Completeness: clampScore(decision.Completeness),
		Accuracy:     clampScore(decision.Accuracy),
		Relevance:    clampScore(decision.Relevance),
		Clarity:      clampScore(decision.Clarity),
		Feedback:     decision.Feedback,
	}
	q.Total = q.Completeness + q.Accuracy + q.Relevance + q.Clarity
	q.NeedsRevision = q.Total < revisionThreshold

	c.logger.Info("answer scored",
		zap.Float64("completeness", q.Completeness),
		zap.Float64("accuracy", q.Accuracy),
		zap.Float64("relevance", q.Relevance),
		zap.Float64("clarity", q.Clarity),
		zap.Float64("total", q.Total),
		zap.Bool("needs_revision", q.NeedsRevision),
	)
	return &Update{Quality: q}, nil
}

func clampScore(v float64) float64 {
	if v < minDimensionScore {
		return minDimensionScore
	}
	if v > maxDimensionScore {
		return maxDimensionScore
	}
	return v
}
