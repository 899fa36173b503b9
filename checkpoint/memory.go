package checkpoint

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/BaSui01/deepresearch/graph"
	"github.com/BaSui01/deepresearch/types"
)

// MemoryStore keeps checkpoints in process memory. Snapshots are stored
// as serialized JSON so a loaded checkpoint never aliases the saved one.
type MemoryStore[S any] struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore[S any]() *MemoryStore[S] {
	return &MemoryStore[S]{data: make(map[string][]byte)}
}

// Save replaces the session's checkpoint.
func (s *MemoryStore[S]) Save(_ context.Context, cp *graph.Checkpoint[S]) error {
	raw, err := json.Marshal(cp)
	if err != nil {
		return types.WrapError(types.ErrCheckpointSave, "marshal checkpoint", err)
	}

	s.mu.Lock()
	s.data[cp.SessionID] = raw
	s.mu.Unlock()
	return nil
}

// Load returns the session's checkpoint, or graph.ErrNotFound.
func (s *MemoryStore[S]) Load(_ context.Context, sessionID string) (*graph.Checkpoint[S], error) {
	s.mu.RLock()
	raw, ok := s.data[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, graph.ErrNotFound
	}

	var cp graph.Checkpoint[S]
	if err := json.Unmarshal(raw, &cp); err != nil {
		return nil, types.WrapError(types.ErrCheckpointLoad, "unmarshal checkpoint", err)
	}
	return &cp, nil
}

// Delete removes a session's checkpoint. Unknown sessions are a no-op.
func (s *MemoryStore[S]) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.data, sessionID)
	s.mu.Unlock()
	return nil
}

// Sessions lists the session ids with a stored checkpoint.
func (s *MemoryStore[S]) Sessions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids
}

var _ graph.Store[struct{}] = (*MemoryStore[struct{}])(nil)
