package mocks

import (
	"context"
	"sync"

	"github.com/BaSui01/deepresearch/research"
)

// MockOracle is a scripted research.Oracle. Each operation returns its
// configured decision, or the injected error. Analyze decisions are
// consumed in order so multi-iteration loops can be scripted; the last
// decision repeats once the script runs out.
//
//	oracle := mocks.NewMockOracle().
//	    WithPlan(&research.PlanDecision{Queries: []string{"q"}, Depth: 2}).
//	    WithAnalyzeScript(
//	        &research.AnalyzeDecision{Findings: []string{"f1"}, NeedsMoreResearch: true, NextQuery: "q2"},
//	        &research.AnalyzeDecision{Findings: []string{"f2"}},
//	    )
type MockOracle struct {
	mu sync.Mutex

	clarify *research.ClarifyDecision
	plan    *research.PlanDecision
	analyze []*research.AnalyzeDecision
	answer  string
	quality *research.QualityDecision

	clarifyErr error
	planErr    error
	analyzeErr error
	composeErr error
	scoreErr   error

	analyzeIdx int

	ClarifyCalls int
	PlanCalls    int
	AnalyzeCalls int
	ComposeCalls int
	ScoreCalls   int

	// AnalyzeRequests records what each Analyze call received.
	AnalyzeRequests []research.AnalyzeRequest
}

// NewMockOracle returns an oracle with benign defaults: no
// clarification, a single-query plan, one finding with no follow-up, a
// plain answer, and passing quality scores.
func NewMockOracle() *MockOracle {
	return &MockOracle{
		clarify: &research.ClarifyDecision{Needed: false, Analysis: "clear"},
		plan:    &research.PlanDecision{Queries: []string{"default query"}, Depth: 2},
		analyze: []*research.AnalyzeDecision{
			{Findings: []string{"default finding"}, NeedsMoreResearch: false},
		},
		answer: "## Research Summary\n\nDefault mock answer with enough substance to pass length checks.",
		quality: &research.QualityDecision{
			Completeness: 4, Accuracy: 4, Relevance: 4, Clarity: 4, Feedback: "fine",
		},
	}
}

func (m *MockOracle) WithClarify(d *research.ClarifyDecision) *MockOracle {
	m.clarify = d
	return m
}

func (m *MockOracle) WithPlan(d *research.PlanDecision) *MockOracle {
	m.plan = d
	return m
}

// WithAnalyzeScript sets the ordered Analyze decisions.
func (m *MockOracle) WithAnalyzeScript(ds ...*research.AnalyzeDecision) *MockOracle {
	m.analyze = ds
	return m
}

func (m *MockOracle) WithAnswer(answer string) *MockOracle {
	m.answer = answer
	return m
}

func (m *MockOracle) WithQuality(d *research.QualityDecision) *MockOracle {
	m.quality = d
	return m
}

func (m *MockOracle) WithClarifyError(err error) *MockOracle { m.clarifyErr = err; return m }
func (m *MockOracle) WithPlanError(err error) *MockOracle    { m.planErr = err; return m }
func (m *MockOracle) WithAnalyzeError(err error) *MockOracle { m.analyzeErr = err; return m }
func (m *MockOracle) WithComposeError(err error) *MockOracle { m.composeErr = err; return m }
func (m *MockOracle) WithScoreError(err error) *MockOracle   { m.scoreErr = err; return m }

// WithAllErrors injects the same error into every operation.
func (m *MockOracle) WithAllErrors(err error) *MockOracle {
	m.clarifyErr = err
	m.planErr = err
	m.analyzeErr = err
	m.composeErr = err
	m.scoreErr = err
	return m
}

func (m *MockOracle) Clarify(_ context.Context, _ string) (*research.ClarifyDecision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ClarifyCalls++
	if m.clarifyErr != nil {
		return nil, m.clarifyErr
	}
	return m.clarify, nil
}

func (m *MockOracle) Plan(_ context.Context, _ string) (*research.PlanDecision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PlanCalls++
	if m.planErr != nil {
		return nil, m.planErr
	}
	return m.plan, nil
}

func (m *MockOracle) Analyze(_ context.Context, req research.AnalyzeRequest) (*research.AnalyzeDecision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AnalyzeCalls++
	m.AnalyzeRequests = append(m.AnalyzeRequests, req)
	if m.analyzeErr != nil {
		return nil, m.analyzeErr
	}
	if len(m.analyze) == 0 {
		return &research.AnalyzeDecision{}, nil
	}
	d := m.analyze[m.analyzeIdx]
	if m.analyzeIdx < len(m.analyze)-1 {
		m.analyzeIdx++
	}
	return d, nil
}

func (m *MockOracle) Compose(_ context.Context, _ research.ComposeRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ComposeCalls++
	if m.composeErr != nil {
		return "", m.composeErr
	}
	return m.answer, nil
}

func (m *MockOracle) Score(_ context.Context, _, _ string) (*research.QualityDecision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ScoreCalls++
	if m.scoreErr != nil {
		return nil, m.scoreErr
	}
	return m.quality, nil
}

var _ research.Oracle = (*MockOracle)(nil)
