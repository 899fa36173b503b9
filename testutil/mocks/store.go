package mocks

import (
	"context"
	"sync"

	"github.com/BaSui01/deepresearch/graph"
	"github.com/BaSui01/deepresearch/research"
)

// RecordingStore is an in-memory graph.Store that records every saved
// checkpoint, letting tests assert on the persistence sequence.
type RecordingStore struct {
	mu sync.Mutex

	current map[string]*graph.Checkpoint[research.State]

	// Saved holds every checkpoint in save order.
	Saved []*graph.Checkpoint[research.State]

	saveErr error
	loadErr error
}

// NewRecordingStore creates an empty recording store.
func NewRecordingStore() *RecordingStore {
	return &RecordingStore{current: make(map[string]*graph.Checkpoint[research.State])}
}

// WithSaveError makes every save fail.
func (s *RecordingStore) WithSaveError(err error) *RecordingStore {
	s.saveErr = err
	return s
}

// WithLoadError makes every load fail.
func (s *RecordingStore) WithLoadError(err error) *RecordingStore {
	s.loadErr = err
	return s
}

func (s *RecordingStore) Save(_ context.Context, cp *graph.Checkpoint[research.State]) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	copied := *cp
	s.current[cp.SessionID] = &copied
	s.Saved = append(s.Saved, &copied)
	return nil
}

func (s *RecordingStore) Load(_ context.Context, sessionID string) (*graph.Checkpoint[research.State], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	cp, ok := s.current[sessionID]
	if !ok {
		return nil, graph.ErrNotFound
	}
	copied := *cp
	return &copied, nil
}

// Latest returns the most recent checkpoint for a session, or nil.
func (s *RecordingStore) Latest(sessionID string) *graph.Checkpoint[research.State] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current[sessionID]
}

// PendingNodes returns the pending node of every save for a session, in
// order.
func (s *RecordingStore) PendingNodes(sessionID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var nodes []string
	for _, cp := range s.Saved {
		if cp.SessionID == sessionID {
			nodes = append(nodes, cp.PendingNode)
		}
	}
	return nodes
}

var _ graph.Store[research.State] = (*RecordingStore)(nil)
