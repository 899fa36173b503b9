package research

import "context"

// ClarifyDecision is the Clarifier's structured result.
type ClarifyDecision struct {
	Needed   bool   `json:"needed"`
	Question string `json:"question,omitempty"`
	Analysis string `json:"analysis,omitempty"`
}

// PlanDecision is the Planner's structured result.
type PlanDecision struct {
	Queries    []string `json:"queries"`
	FocusAreas []string `json:"focus_areas,omitempty"`
	Depth      int      `json:"depth"`
}

// AnalyzeRequest carries everything the Analyzer hands to the oracle.
type AnalyzeRequest struct {
	Question      string
	Iteration     int
	MaxIterations int
	SearchResults []SearchResult
	ReadContents  []ReadContent
	Findings      []string
}

// AnalyzeDecision is the Analyzer's structured result: new findings plus
// the continue/stop signal and an optional follow-up query.
type AnalyzeDecision struct {
	Findings          []string `json:"findings"`
	NeedsMoreResearch bool     `json:"needs_more_research"`
	NextQuery         string   `json:"next_query,omitempty"`
}

// ComposeRequest carries the Writer's synthesis inputs.
type ComposeRequest struct {
	Question        string
	CompressedNotes string
	Findings        []string
	Sources         []string
}

// QualityDecision is the Critic's structured result: the four CARC
// dimensions, each 1-5.
type QualityDecision struct {
	Completeness float64 `json:"completeness"`
	Accuracy     float64 `json:"accuracy"`
	Relevance    float64 `json:"relevance"`
	Clarity      float64 `json:"clarity"`
	Feedback     string  `json:"feedback,omitempty"`
}

// Oracle is the decision backend for every judgment call in the pipeline.
// Implementations validate their raw output into these typed decisions at
// the call boundary; a malformed or missing field is an error, which the
// calling phase turns into its documented fallback. Calls must honor a
// hard timeout. Implementations are shared, stateless, and safe for
// concurrent use.
type Oracle interface {
	// Clarify judges whether the user request is ambiguous.
	Clarify(ctx context.Context, question string) (*ClarifyDecision, error)

	// Plan expands the request into parallel search queries and a depth
	// target.
	Plan(ctx context.Context, question string) (*PlanDecision, error)

	// Analyze extracts new findings from the collected material and
	// decides whether more research is warranted.
	Analyze(ctx context.Context, req AnalyzeRequest) (*AnalyzeDecision, error)

	// Compose synthesizes the final answer from the compressed notes.
	Compose(ctx context.Context, req ComposeRequest) (string, error)

	// Score rates an answer against the question on the four CARC
	// dimensions.
	Score(ctx context.Context, question, answer string) (*QualityDecision, error)
}
