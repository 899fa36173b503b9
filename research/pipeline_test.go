package research_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/deepresearch/graph"
	"github.com/BaSui01/deepresearch/research"
	"github.com/BaSui01/deepresearch/testutil/mocks"
)

func newDeps(oracle *mocks.MockOracle, store *mocks.RecordingStore) research.Deps {
	deps := research.Deps{
		Oracle: oracle,
		Search: mocks.NewMockSearch(),
		Fetch:  mocks.NewMockFetch(),
	}
	if store != nil {
		deps.Store = store
	}
	return deps
}

// nodeRecorder collects the phase start order of a run.
type nodeRecorder struct {
	started []string
}

func (r *nodeRecorder) handle(ev graph.Event) {
	if ev.Type == graph.EventPhaseStart {
		r.started = append(r.started, ev.Node)
	}
}

func TestPipeline_FullRunProducesAnswer(t *testing.T) {
	oracle := mocks.NewMockOracle()
	rec := &nodeRecorder{}

	p, err := research.NewPipeline(newDeps(oracle, nil),
		research.WithEventHandler(rec.handle))
	require.NoError(t, err)

	res, err := p.Start(context.Background(), "s1", "how does raft elect a leader")
	require.NoError(t, err)
	require.False(t, res.Suspended)

	assert.NotEmpty(t, res.State.FinalAnswer())
	require.NotNil(t, res.State.Quality)
	assert.False(t, res.State.Quality.NeedsRevision)
	require.NotNil(t, res.State.Plan)
	require.NotNil(t, res.State.Strategy)

	// Default strategy runs the loop once: the analyzer's one scripted
	// decision does not ask for more research.
	assert.Equal(t, []string{
		research.NodeClarify, research.NodePlan, research.NodeSupervise,
		research.NodeSearch, research.NodeRead, research.NodeAnalyze,
		research.NodeCompress, research.NodeWrite, research.NodeCritique,
	}, rec.started)
}

func TestPipeline_LoopRunsExactlyMaxIterations(t *testing.T) {
	// A deep plan sets the ceiling to 4, and the analyzer always asks to
	// keep going. The ceiling must win.
	oracle := mocks.NewMockOracle().
		WithPlan(&research.PlanDecision{Queries: []string{"a", "b"}, Depth: 3}).
		WithAnalyzeScript(&research.AnalyzeDecision{
			Findings:          []string{"more"},
			NeedsMoreResearch: true,
			NextQuery:         "again",
		})

	p, err := research.NewPipeline(newDeps(oracle, nil))
	require.NoError(t, err)

	res, err := p.Start(context.Background(), "s1", "q")
	require.NoError(t, err)

	assert.Equal(t, 4, res.State.MaxIterations())
	assert.Equal(t, 4, oracle.AnalyzeCalls, "loop body runs once per iteration up to the ceiling")
	assert.Equal(t, 4, res.State.Iteration)
	assert.NotEmpty(t, res.State.FinalAnswer())
}

func TestPipeline_AllOracleFailuresStillAnswer(t *testing.T) {
	oracle := mocks.NewMockOracle().WithAllErrors(errOracle)

	p, err := research.NewPipeline(newDeps(oracle, nil))
	require.NoError(t, err)

	res, err := p.Start(context.Background(), "s1", "what is raft")
	require.NoError(t, err, "oracle outages degrade, they never abort")
	require.False(t, res.Suspended)

	answer := res.State.FinalAnswer()
	assert.NotEmpty(t, answer)
	assert.Contains(t, answer, "## Research Summary")
	// Fallback plan searched the question verbatim, so sources were still
	// fetched and cited.
	assert.Contains(t, answer, "https://example.com/one")
	require.NotNil(t, res.State.Quality)
	assert.Equal(t, "quality assessment unavailable", res.State.Quality.Feedback)
}

func TestPipeline_BroadStrategyFansOut(t *testing.T) {
	// Three shallow queries trigger broad mode.
	oracle := mocks.NewMockOracle().
		WithPlan(&research.PlanDecision{Queries: []string{"qa", "qb", "qc"}, Depth: 2})
	rec := &nodeRecorder{}
	deps := newDeps(oracle, nil)
	search := mocks.NewMockSearch()
	deps.Search = search

	p, err := research.NewPipeline(deps, research.WithEventHandler(rec.handle))
	require.NoError(t, err)

	res, err := p.Start(context.Background(), "s1", "q")
	require.NoError(t, err)

	assert.Contains(t, rec.started, research.NodeFanOut)
	assert.NotContains(t, rec.started, research.NodeSearch)
	assert.NotContains(t, rec.started, research.NodeAnalyze)
	assert.ElementsMatch(t, []string{"qa", "qb", "qc"}, search.Queries,
		"every plan query is searched by a worker")
	assert.NotEmpty(t, res.State.ParallelFindings)
	assert.NotEmpty(t, res.State.FinalAnswer())
}

func TestPipeline_CheckpointsEveryPhaseBoundary(t *testing.T) {
	store := mocks.NewRecordingStore()
	p, err := research.NewPipeline(newDeps(mocks.NewMockOracle(), store))
	require.NoError(t, err)

	_, err = p.Start(context.Background(), "s1", "q")
	require.NoError(t, err)

	assert.Equal(t, []string{
		research.NodePlan, research.NodeSupervise, research.NodeSearch,
		research.NodeRead, research.NodeAnalyze, research.NodeCompress,
		research.NodeWrite, research.NodeCritique, "",
	}, store.PendingNodes("s1"))

	final := store.Latest("s1")
	require.NotNil(t, final)
	assert.True(t, final.Done)
}

func TestPipeline_ResumeFromMidRunCheckpointMatchesFullRun(t *testing.T) {
	oracle := mocks.NewMockOracle()
	store := mocks.NewRecordingStore()

	p, err := research.NewPipeline(newDeps(oracle, store))
	require.NoError(t, err)

	full, err := p.Start(context.Background(), "s1", "q")
	require.NoError(t, err)

	// Replay a crash after the fourth phase: seed a fresh store with that
	// checkpoint and resume. Deterministic phases must reconverge on the
	// same final state.
	crashed := mocks.NewRecordingStore()
	require.NoError(t, crashed.Save(context.Background(), store.Saved[3]))

	p2, err := research.NewPipeline(newDeps(mocks.NewMockOracle(), crashed))
	require.NoError(t, err)

	resumed, err := p2.Resume(context.Background(), "s1", nil)
	require.NoError(t, err)
	require.False(t, resumed.Suspended)

	assert.Equal(t, full.State.FinalAnswer(), resumed.State.FinalAnswer())
	assert.Equal(t, full.State.Findings, resumed.State.Findings)
	assert.Equal(t, full.State.Quality, resumed.State.Quality)
}

func TestPipeline_ResumeCompletedSessionIsNoOp(t *testing.T) {
	store := mocks.NewRecordingStore()
	p, err := research.NewPipeline(newDeps(mocks.NewMockOracle(), store))
	require.NoError(t, err)

	first, err := p.Start(context.Background(), "s1", "q")
	require.NoError(t, err)
	saves := len(store.Saved)

	again, err := p.Resume(context.Background(), "s1", nil)
	require.NoError(t, err)

	assert.Equal(t, first.State.FinalAnswer(), again.State.FinalAnswer())
	assert.Len(t, store.Saved, saves, "finished sessions are not re-run")
}

func TestPipeline_ApprovalGateBeforeWrite(t *testing.T) {
	store := mocks.NewRecordingStore()
	p, err := research.NewPipeline(newDeps(mocks.NewMockOracle(), store),
		research.WithApprovalBeforeWrite())
	require.NoError(t, err)

	res, err := p.Start(context.Background(), "s1", "q")
	require.NoError(t, err)
	require.True(t, res.Suspended)
	assert.Equal(t, research.NodeWrite, res.PendingNode)
	assert.Empty(t, res.State.FinalAnswer(), "no answer before approval")

	approve := true
	res, err = p.Resume(context.Background(), "s1", &approve)
	require.NoError(t, err)
	require.False(t, res.Suspended)
	assert.NotEmpty(t, res.State.FinalAnswer())
	require.NotNil(t, res.State.Quality)
}

func TestPipeline_PlainResumeCompletesSuspendedSession(t *testing.T) {
	store := mocks.NewRecordingStore()
	p, err := research.NewPipeline(newDeps(mocks.NewMockOracle(), store),
		research.WithApprovalBeforeWrite())
	require.NoError(t, err)

	res, err := p.Start(context.Background(), "s1", "q")
	require.NoError(t, err)
	require.True(t, res.Suspended)

	// Resuming with no decision re-enters at the paused node and runs it.
	res, err = p.Resume(context.Background(), "s1", nil)
	require.NoError(t, err)
	require.False(t, res.Suspended)
	assert.NotEmpty(t, res.State.FinalAnswer())
	require.NotNil(t, res.State.Quality)
}

func TestPipeline_DeniedApprovalEndsWithoutAnswer(t *testing.T) {
	store := mocks.NewRecordingStore()
	oracle := mocks.NewMockOracle()
	p, err := research.NewPipeline(newDeps(oracle, store),
		research.WithApprovalBeforeWrite())
	require.NoError(t, err)

	res, err := p.Start(context.Background(), "s1", "q")
	require.NoError(t, err)
	require.True(t, res.Suspended)

	deny := false
	res, err = p.Resume(context.Background(), "s1", &deny)
	require.NoError(t, err)
	require.False(t, res.Suspended)

	assert.Empty(t, res.State.FinalAnswer())
	assert.Zero(t, oracle.ComposeCalls, "denied writer never runs")
	assert.Nil(t, res.State.Quality, "denial skips the critic too")

	final := store.Latest("s1")
	require.NotNil(t, final)
	assert.True(t, final.Done)
}

func TestNewPipeline_WiringErrorsSurfaceAtConstruction(t *testing.T) {
	t.Run("interrupt on unknown node", func(t *testing.T) {
		_, err := research.NewPipeline(newDeps(mocks.NewMockOracle(), mocks.NewRecordingStore()),
			research.WithInterruptBefore("Nope", graph.End))
		require.Error(t, err)
	})

	t.Run("interrupt without store", func(t *testing.T) {
		_, err := research.NewPipeline(newDeps(mocks.NewMockOracle(), nil),
			research.WithApprovalBeforeWrite())
		require.Error(t, err)
	})

	t.Run("bad deny path", func(t *testing.T) {
		_, err := research.NewPipeline(newDeps(mocks.NewMockOracle(), mocks.NewRecordingStore()),
			research.WithInterruptBefore(research.NodeWrite, "Nowhere"))
		require.Error(t, err)
	})
}
