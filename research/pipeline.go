package research

import (
	"context"

	"go.uber.org/zap"

	"github.com/BaSui01/deepresearch/graph"
)

// Node names of the pipeline's phases.
const (
	NodeClarify   = "Clarify"
	NodePlan      = "Plan"
	NodeSupervise = "Supervise"
	NodeSearch    = "Search"
	NodeRead      = "Read"
	NodeAnalyze   = "Analyze"
	NodeFanOut    = "FanOut"
	NodeCompress  = "Compress"
	NodeWrite     = "Write"
	NodeCritique  = "Critique"
)

// Router labels on the Supervisor's exit edge.
const (
	RouteLoop   = "loop"
	RouteFanOut = "fanout"
)

// Deps are the pipeline's injected collaborators. Oracle, Search and
// Fetch are required; Store enables suspend/resume and is required when
// any interrupt is configured.
type Deps struct {
	Oracle Oracle
	Search SearchService
	Fetch  FetchService
	Store  graph.Store[State]
	Logger *zap.Logger
}

// Option configures the pipeline.
type Option func(*options)

type options struct {
	interruptBefore map[string]string
	events          graph.EventHandler
	maxSteps        int
}

// WithInterruptBefore pauses the session before node runs, requiring an
// approving Resume. denyTo is the documented deny path taken when the
// resume denies approval; use graph.End to finish the session instead.
func WithInterruptBefore(node, denyTo string) Option {
	return func(o *options) { o.interruptBefore[node] = denyTo }
}

// WithApprovalBeforeWrite is the common interrupt: pause for human
// approval before the Writer emits the answer; denial skips straight to
// the end of the run.
func WithApprovalBeforeWrite() Option {
	return WithInterruptBefore(NodeWrite, graph.End)
}

// WithEventHandler forwards execution events for progressive rendering.
func WithEventHandler(h graph.EventHandler) Option {
	return func(o *options) { o.events = h }
}

// WithMaxSteps overrides the engine's safety valve on node invocations.
func WithMaxSteps(n int) Option {
	return func(o *options) { o.maxSteps = n }
}

// Pipeline is the compiled deep-research workflow:
//
//	Clarify → Plan → Supervise → {Search ⇄ Read ⇄ Analyze | FanOut}
//	        → Compress → Write → Critique → end
//
// The research loop is bounded by the strategy's iteration ceiling and
// escapable early by the Analyzer's decision; broad-mode strategies take
// the parallel fan-out instead of the loop.
type Pipeline struct {
	runner *graph.Runner[State]
	logger *zap.Logger
}

// NewPipeline wires the phases into a graph and compiles it. Wiring
// errors (a misconfigured interrupt target, for instance) surface here,
// never during a run.
func NewPipeline(deps Deps, opts ...Option) (*Pipeline, error) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	o := &options{interruptBefore: make(map[string]string)}
	for _, opt := range opts {
		opt(o)
	}

	g := graph.New[State]("deepresearch")
	g.Register(NodeClarify, NewClarifier(deps.Oracle, logger).Execute)
	g.Register(NodePlan, NewPlanner(deps.Oracle, logger).Execute)
	g.Register(NodeSupervise, NewSupervisor(logger).Execute)
	g.Register(NodeSearch, NewSearcher(deps.Search, logger).Execute)
	g.Register(NodeRead, NewContentReader(deps.Fetch, logger).Execute)
	g.Register(NodeAnalyze, NewAnalyzer(deps.Oracle, logger).Execute)
	g.Register(NodeFanOut, NewFanOut(deps.Search, deps.Fetch, logger).Execute)
	g.Register(NodeCompress, NewCompressor(logger).Execute)
	g.Register(NodeWrite, NewWriter(deps.Oracle, logger).Execute)
	g.Register(NodeCritique, NewCritic(deps.Oracle, logger).Execute)

	g.SetEntry(NodeClarify)
	g.Connect(NodeClarify, NodePlan)
	g.Connect(NodePlan, NodeSupervise)
	g.ConnectConditional(NodeSupervise, RouteAfterSupervise, map[string]string{
		RouteLoop:   NodeSearch,
		RouteFanOut: NodeFanOut,
	})
	g.Connect(NodeSearch, NodeRead)
	g.Connect(NodeRead, NodeAnalyze)
	g.ConnectConditional(NodeAnalyze, RouteAfterAnalyze, map[string]string{
		RouteContinue: NodeSearch,
		RouteFinish:   NodeCompress,
	})
	g.Connect(NodeFanOut, NodeCompress)
	g.Connect(NodeCompress, NodeWrite)
	g.Connect(NodeWrite, NodeCritique)
	g.Connect(NodeCritique, graph.End)

	compileOpts := []graph.CompileOption[State]{
		graph.WithLogger[State](logger),
	}
	if deps.Store != nil {
		compileOpts = append(compileOpts, graph.WithStore(deps.Store))
	}
	for node, denyTo := range o.interruptBefore {
		compileOpts = append(compileOpts, graph.WithInterruptBefore[State](node, denyTo))
	}
	if o.events != nil {
		compileOpts = append(compileOpts, graph.WithEventHandler[State](o.events))
	}
	if o.maxSteps > 0 {
		compileOpts = append(compileOpts, graph.WithMaxSteps[State](o.maxSteps))
	}

	runner, err := g.Compile(compileOpts...)
	if err != nil {
		return nil, err
	}
	return &Pipeline{runner: runner, logger: logger}, nil
}

// RouteAfterSupervise picks the research mechanism from the strategy:
// broad mode fans out, everything else loops.
func RouteAfterSupervise(s State) string {
	if s.Strategy != nil && s.Strategy.Mode == ModeBroad {
		return RouteFanOut
	}
	return RouteLoop
}

// Start begins a fresh session for the given user question.
func (p *Pipeline) Start(ctx context.Context, sessionID, question string) (*graph.Result[State], error) {
	return p.runner.Run(ctx, sessionID, NewState(question))
}

// Resume re-enters a suspended session. approval may be nil (plain
// resume), or carry the human's decision for a pending interrupt.
func (p *Pipeline) Resume(ctx context.Context, sessionID string, approval *bool) (*graph.Result[State], error) {
	if approval == nil {
		return p.runner.Resume(ctx, sessionID)
	}
	return p.runner.Resume(ctx, sessionID, graph.WithApproval(*approval))
}
