package graph

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testStore is a minimal in-memory Store for runner tests.
type testStore struct {
	mu    sync.Mutex
	data  map[string]*Checkpoint[trackState]
	saved []*Checkpoint[trackState]
}

func newTestStore() *testStore {
	return &testStore{data: make(map[string]*Checkpoint[trackState])}
}

func (s *testStore) Save(_ context.Context, cp *Checkpoint[trackState]) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *cp
	s.data[cp.SessionID] = &copied
	s.saved = append(s.saved, &copied)
	return nil
}

func (s *testStore) Load(_ context.Context, sessionID string) (*Checkpoint[trackState], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp, ok := s.data[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *cp
	return &copied, nil
}

func TestRun_LinearExecution(t *testing.T) {
	runner, err := linearGraph("a", "b", "c").Compile()
	require.NoError(t, err)

	result, err := runner.Run(context.Background(), "s1", trackState{})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, result.State.Visited)
	assert.Equal(t, 3, result.State.N)
	assert.False(t, result.Suspended)
}

func TestRun_ConditionalRouting(t *testing.T) {
	g := New[trackState]("test")
	g.Register("start", visitNode("start")).
		Register("left", visitNode("left")).
		Register("right", visitNode("right")).
		ConnectConditional("start", func(s trackState) string {
			if s.N > 0 {
				return "go_left"
			}
			return "go_right"
		}, map[string]string{"go_left": "left", "go_right": "right"}).
		Connect("left", End).
		Connect("right", End).
		SetEntry("start")

	runner, err := g.Compile()
	require.NoError(t, err)

	// start's update sets N=1, so the router picks left.
	result, err := runner.Run(context.Background(), "s1", trackState{})
	require.NoError(t, err)
	assert.Equal(t, []string{"start", "left"}, result.State.Visited)
}

func TestRun_UndeclaredRouteLabelFails(t *testing.T) {
	g := New[trackState]("test")
	g.Register("a", visitNode("a")).
		ConnectConditional("a", func(trackState) string { return "surprise" },
			map[string]string{"known": End}).
		SetEntry("a")

	runner, err := g.Compile()
	require.NoError(t, err)

	_, err = runner.Run(context.Background(), "s1", trackState{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "surprise")
}

func TestRun_NodeErrorAborts(t *testing.T) {
	sentinel := errors.New("boom")
	g := New[trackState]("test")
	g.Register("a", visitNode("a")).
		Register("bad", func(context.Context, trackState) (Update[trackState], error) {
			return nil, sentinel
		}).
		Connect("a", "bad").
		Connect("bad", End).
		SetEntry("a")

	runner, err := g.Compile()
	require.NoError(t, err)

	_, err = runner.Run(context.Background(), "s1", trackState{})
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)
}

func TestRun_NilUpdateKeepsState(t *testing.T) {
	g := New[trackState]("test")
	g.Register("noop", func(context.Context, trackState) (Update[trackState], error) {
		return nil, nil
	}).
		Connect("noop", End).
		SetEntry("noop")

	runner, err := g.Compile()
	require.NoError(t, err)

	result, err := runner.Run(context.Background(), "s1", trackState{N: 7})
	require.NoError(t, err)
	assert.Equal(t, 7, result.State.N)
	assert.Empty(t, result.State.Visited)
}

func TestRun_MaxStepsGuard(t *testing.T) {
	g := New[trackState]("test")
	g.Register("spin", visitNode("spin")).
		Connect("spin", "spin").
		SetEntry("spin")

	runner, err := g.Compile(WithMaxSteps[trackState](10))
	require.NoError(t, err)

	_, err = runner.Run(context.Background(), "s1", trackState{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeded 10 steps")
}

func TestRun_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	g := New[trackState]("test")
	g.Register("a", func(context.Context, trackState) (Update[trackState], error) {
		cancel()
		return &visit{name: "a"}, nil
	}).
		Register("b", visitNode("b")).
		Connect("a", "b").
		Connect("b", End).
		SetEntry("a")

	runner, err := g.Compile()
	require.NoError(t, err)

	_, err = runner.Run(ctx, "s1", trackState{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_CheckpointAfterEveryNode(t *testing.T) {
	store := newTestStore()
	runner, err := linearGraph("a", "b", "c").Compile(WithStore(store))
	require.NoError(t, err)

	_, err = runner.Run(context.Background(), "s1", trackState{})
	require.NoError(t, err)

	require.Len(t, store.saved, 3)
	assert.Equal(t, "b", store.saved[0].PendingNode)
	assert.Equal(t, "c", store.saved[1].PendingNode)
	assert.Empty(t, store.saved[2].PendingNode)
	assert.True(t, store.saved[2].Done)

	// Each checkpoint snapshots the state with the finished node applied.
	assert.Equal(t, []string{"a"}, store.saved[0].State.Visited)
	assert.Equal(t, []string{"a", "b"}, store.saved[1].State.Visited)
}

func TestResume_ContinuesFromPendingNode(t *testing.T) {
	store := newTestStore()
	runner, err := linearGraph("a", "b", "c").Compile(WithStore(store))
	require.NoError(t, err)

	// Simulate a crash after node a: keep only its checkpoint.
	_, err = runner.Run(context.Background(), "s1", trackState{})
	require.NoError(t, err)
	afterA := store.saved[0]
	store.data["s1"] = afterA

	result, err := runner.Resume(context.Background(), "s1")
	require.NoError(t, err)

	// a is not re-executed; the run picks up at b.
	assert.Equal(t, []string{"a", "b", "c"}, result.State.Visited)
}

func TestResume_UnknownSession(t *testing.T) {
	runner, err := linearGraph("a").Compile(WithStore(newTestStore()))
	require.NoError(t, err)

	_, err = runner.Resume(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResume_WithoutStore(t *testing.T) {
	runner, err := linearGraph("a").Compile()
	require.NoError(t, err)

	_, err = runner.Resume(context.Background(), "s1")
	require.Error(t, err)
}

func TestResume_CompletedSessionIsNoOp(t *testing.T) {
	store := newTestStore()
	runner, err := linearGraph("a", "b").Compile(WithStore(store))
	require.NoError(t, err)

	first, err := runner.Run(context.Background(), "s1", trackState{})
	require.NoError(t, err)

	saves := len(store.saved)
	again, err := runner.Resume(context.Background(), "s1")
	require.NoError(t, err)

	assert.Equal(t, first.State, again.State)
	assert.Equal(t, saves, len(store.saved), "no-op resume must not write")
}

func TestInterrupt_SuspendsBeforeNode(t *testing.T) {
	store := newTestStore()
	runner, err := linearGraph("a", "b", "c").Compile(
		WithStore(store),
		WithInterruptBefore[trackState]("b", End),
	)
	require.NoError(t, err)

	result, err := runner.Run(context.Background(), "s1", trackState{})
	require.NoError(t, err)

	assert.True(t, result.Suspended)
	assert.Equal(t, "b", result.PendingNode)
	assert.Equal(t, []string{"a"}, result.State.Visited, "b must not have run")

	cp, err := store.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "b", cp.PendingNode)
	assert.False(t, cp.Done)
}

func TestInterrupt_ApprovedResumeRunsNode(t *testing.T) {
	store := newTestStore()
	runner, err := linearGraph("a", "b", "c").Compile(
		WithStore(store),
		WithInterruptBefore[trackState]("b", End),
	)
	require.NoError(t, err)

	_, err = runner.Run(context.Background(), "s1", trackState{})
	require.NoError(t, err)

	result, err := runner.Resume(context.Background(), "s1", WithApproval(true))
	require.NoError(t, err)

	assert.False(t, result.Suspended)
	assert.Equal(t, []string{"a", "b", "c"}, result.State.Visited)
}

func TestInterrupt_DeniedResumeTakesDenyPath(t *testing.T) {
	store := newTestStore()
	runner, err := linearGraph("a", "b", "c").Compile(
		WithStore(store),
		WithInterruptBefore[trackState]("b", "c"),
	)
	require.NoError(t, err)

	_, err = runner.Run(context.Background(), "s1", trackState{})
	require.NoError(t, err)

	result, err := runner.Resume(context.Background(), "s1", WithApproval(false))
	require.NoError(t, err)

	// b is skipped entirely; execution jumps to the deny target.
	assert.Equal(t, []string{"a", "c"}, result.State.Visited)
}

func TestInterrupt_DenyPathToEnd(t *testing.T) {
	store := newTestStore()
	runner, err := linearGraph("a", "b", "c").Compile(
		WithStore(store),
		WithInterruptBefore[trackState]("b", End),
	)
	require.NoError(t, err)

	_, err = runner.Run(context.Background(), "s1", trackState{})
	require.NoError(t, err)

	result, err := runner.Resume(context.Background(), "s1", WithApproval(false))
	require.NoError(t, err)

	assert.Equal(t, []string{"a"}, result.State.Visited)

	cp, err := store.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, cp.Done)
}

func TestInterrupt_PlainResumeRunsPendingNode(t *testing.T) {
	store := newTestStore()
	runner, err := linearGraph("a", "b", "c").Compile(
		WithStore(store),
		WithInterruptBefore[trackState]("b", End),
	)
	require.NoError(t, err)

	_, err = runner.Run(context.Background(), "s1", trackState{})
	require.NoError(t, err)

	// The resume call itself is the signal: no approval option needed.
	result, err := runner.Resume(context.Background(), "s1")
	require.NoError(t, err)
	assert.False(t, result.Suspended)
	assert.Equal(t, []string{"a", "b", "c"}, result.State.Visited)
}

func TestInterrupt_PlainResumeClearsOnlyThePendingMarker(t *testing.T) {
	store := newTestStore()
	runner, err := linearGraph("a", "b", "c").Compile(
		WithStore(store),
		WithInterruptBefore[trackState]("b", End),
		WithInterruptBefore[trackState]("c", End),
	)
	require.NoError(t, err)

	_, err = runner.Run(context.Background(), "s1", trackState{})
	require.NoError(t, err)

	result, err := runner.Resume(context.Background(), "s1")
	require.NoError(t, err)

	// b ran, but the next flagged node still suspends.
	assert.True(t, result.Suspended)
	assert.Equal(t, "c", result.PendingNode)
	assert.Equal(t, []string{"a", "b"}, result.State.Visited)
}

func TestEvents_EmittedInOrder(t *testing.T) {
	var events []EventType
	runner, err := linearGraph("a", "b").Compile(
		WithEventHandler[trackState](func(ev Event) {
			events = append(events, ev.Type)
		}),
	)
	require.NoError(t, err)

	_, err = runner.Run(context.Background(), "s1", trackState{})
	require.NoError(t, err)

	assert.Equal(t, []EventType{
		EventPhaseStart, EventPhaseEnd,
		EventPhaseStart, EventPhaseEnd,
		EventDone,
	}, events)
}

func TestEvents_ErrorEmitted(t *testing.T) {
	var errEvents int
	g := New[trackState]("test")
	g.Register("bad", func(context.Context, trackState) (Update[trackState], error) {
		return nil, errors.New("boom")
	}).Connect("bad", End).SetEntry("bad")

	runner, err := g.Compile(WithEventHandler[trackState](func(ev Event) {
		if ev.Type == EventError {
			errEvents++
		}
	}))
	require.NoError(t, err)

	_, err = runner.Run(context.Background(), "s1", trackState{})
	require.Error(t, err)
	assert.Equal(t, 1, errEvents)
}
