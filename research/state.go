package research

import (
	"github.com/BaSui01/deepresearch/types"
)

// Complexity classifies how demanding a query is, set by the Supervisor.
type Complexity string

const (
	ComplexitySimple  Complexity = "SIMPLE"
	ComplexityMedium  Complexity = "MEDIUM"
	ComplexityComplex Complexity = "COMPLEX"
)

// Mode selects the research style downstream of the Supervisor. Broad mode
// explores the plan's queries concurrently (fan-out); targeted and deep
// modes run the iterative loop.
type Mode string

const (
	ModeBroad    Mode = "broad"
	ModeTargeted Mode = "targeted"
	ModeDeep     Mode = "deep"
)

// Plan is the Planner's research strategy: 2-4 search queries, focus areas
// and a depth target. Read-only after the Planner writes it.
type Plan struct {
	Queries    []string `json:"queries"`
	FocusAreas []string `json:"focus_areas,omitempty"`
	Depth      int      `json:"depth"` // 1 = quick, 2 = medium, 3 = deep
}

// Strategy holds the loop budgets the Supervisor derived from the plan.
type Strategy struct {
	Complexity    Complexity `json:"complexity"`
	MaxIterations int        `json:"max_iterations"`
	URLsPerQuery  int        `json:"urls_per_query"`
	Mode          Mode       `json:"mode"`
}

// DefaultStrategy is the Supervisor's fallback when no plan is available.
func DefaultStrategy() *Strategy {
	return &Strategy{
		Complexity:    ComplexityMedium,
		MaxIterations: 3,
		URLsPerQuery:  3,
		Mode:          ModeTargeted,
	}
}

// SearchResult is one ranked hit returned by the Search service.
type SearchResult struct {
	URL     string `json:"url"`
	Title   string `json:"title,omitempty"`
	Snippet string `json:"snippet,omitempty"`
}

// ReadContent is the normalized text fetched from one URL.
type ReadContent struct {
	URL     string `json:"url"`
	Title   string `json:"title,omitempty"`
	Content string `json:"content"`
}

// Clarification records the Clarifier's judgment of the user request.
type Clarification struct {
	Needed   bool   `json:"needed"`
	Question string `json:"question,omitempty"`
	Analysis string `json:"analysis,omitempty"`
}

// Quality is the Critic's CARC assessment: four 1-5 dimensions, their sum,
// and whether the total warrants a revision.
type Quality struct {
	Completeness  float64 `json:"completeness"`
	Accuracy      float64 `json:"accuracy"`
	Relevance     float64 `json:"relevance"`
	Clarity       float64 `json:"clarity"`
	Total         float64 `json:"total"`
	Feedback      string  `json:"feedback,omitempty"`
	NeedsRevision bool    `json:"needs_revision"`
}

// State is the single record threaded through every phase. Phases never
// mutate it directly; they return an Update whose Apply implements each
// field's merge rule (see update.go).
type State struct {
	// Conversation is append-only: new messages are concatenated, never
	// replacing prior ones.
	Conversation []types.Message `json:"conversation"`

	// Plan is written once by the Planner.
	Plan *Plan `json:"plan,omitempty"`

	// QueryCursor indexes the next unconsumed plan query.
	// Invariant: 0 <= QueryCursor <= len(Plan.Queries).
	QueryCursor int `json:"query_cursor"`

	// SearchResults and URLsPending are replaced each loop iteration;
	// ReadContents accumulates across iterations and is never cleared.
	SearchResults []SearchResult `json:"search_results,omitempty"`
	URLsPending   []string       `json:"urls_pending,omitempty"`
	ReadContents  []ReadContent  `json:"read_contents,omitempty"`

	// Findings accumulates short factual strings, append-only.
	Findings []string `json:"findings,omitempty"`

	// NeedsMoreResearch drives the loop-exit edge; NextQuery is the
	// Analyzer's follow-up, consumed and cleared by the Searcher.
	NeedsMoreResearch bool   `json:"needs_more_research"`
	NextQuery         string `json:"next_query,omitempty"`

	// Iteration starts at 1 and is incremented only when the loop
	// continues. The loop body never runs past Strategy.MaxIterations.
	Iteration int `json:"iteration"`

	// Strategy is written once by the Supervisor.
	Strategy *Strategy `json:"strategy,omitempty"`

	// ParallelFindings and ParallelContents are merged from concurrent
	// fan-out workers with a commutative append: worker order is not
	// guaranteed, but no element is dropped or duplicated in a merge.
	ParallelFindings []string      `json:"parallel_findings,omitempty"`
	ParallelContents []ReadContent `json:"parallel_contents,omitempty"`

	// CompressedNotes is written once by the Compressor.
	CompressedNotes string `json:"compressed_notes,omitempty"`

	// Quality is written once by the Critic.
	Quality *Quality `json:"quality,omitempty"`

	// Clarification is written once by the Clarifier.
	Clarification *Clarification `json:"clarification,omitempty"`
}

// NewState creates the initial state for a session, seeded with the user's
// question.
func NewState(question string) State {
	return State{
		Conversation: []types.Message{types.NewUserMessage(question)},
		Iteration:    1,
	}
}

// Question returns the latest user message.
func (s State) Question() string {
	return types.LastUserMessage(s.Conversation)
}

// AllFindings returns loop findings followed by fan-out findings.
func (s State) AllFindings() []string {
	out := make([]string, 0, len(s.Findings)+len(s.ParallelFindings))
	out = append(out, s.Findings...)
	out = append(out, s.ParallelFindings...)
	return out
}

// AllContents returns loop contents followed by fan-out contents.
func (s State) AllContents() []ReadContent {
	out := make([]ReadContent, 0, len(s.ReadContents)+len(s.ParallelContents))
	out = append(out, s.ReadContents...)
	out = append(out, s.ParallelContents...)
	return out
}

// FinalAnswer returns the Writer's answer, or "" before the Writer ran.
func (s State) FinalAnswer() string {
	for i := len(s.Conversation) - 1; i >= 0; i-- {
		m := s.Conversation[i]
		if m.Role == types.RoleAssistant && m.Name == NodeWrite {
			return m.Content
		}
	}
	return ""
}

// MaxIterations returns the effective loop ceiling.
func (s State) MaxIterations() int {
	if s.Strategy != nil && s.Strategy.MaxIterations > 0 {
		return s.Strategy.MaxIterations
	}
	return DefaultStrategy().MaxIterations
}

// URLsPerQuery returns the effective per-search URL budget.
func (s State) URLsPerQuery() int {
	if s.Strategy != nil && s.Strategy.URLsPerQuery > 0 {
		return s.Strategy.URLsPerQuery
	}
	return DefaultStrategy().URLsPerQuery
}
