package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BaSui01/deepresearch/graph"
	"github.com/BaSui01/deepresearch/types"
)

const checkpointExt = ".json"

// FileStore persists one JSON file per session under a directory.
// Writes go through a temp file and rename so a crash mid-write never
// leaves a truncated checkpoint behind.
type FileStore[S any] struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates the directory if needed and returns a store
// rooted there.
func NewFileStore[S any](dir string) (*FileStore[S], error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, types.WrapError(types.ErrCheckpointSave, "create checkpoint dir", err)
	}
	return &FileStore[S]{dir: dir}, nil
}

// path maps a session id to its file. Session ids are sanitized so a
// hostile id cannot escape the store directory.
func (s *FileStore[S]) path(sessionID string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '_'
		}
	}, sessionID)
	return filepath.Join(s.dir, safe+checkpointExt)
}

// Save replaces the session's checkpoint file.
func (s *FileStore[S]) Save(_ context.Context, cp *graph.Checkpoint[S]) error {
	raw, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return types.WrapError(types.ErrCheckpointSave, "marshal checkpoint", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.path(cp.SessionID)
	tmp, err := os.CreateTemp(s.dir, "cp-*.tmp")
	if err != nil {
		return types.WrapError(types.ErrCheckpointSave, "create temp file", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return types.WrapError(types.ErrCheckpointSave, "write checkpoint", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return types.WrapError(types.ErrCheckpointSave, "close checkpoint", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return types.WrapError(types.ErrCheckpointSave, "replace checkpoint", err)
	}
	return nil
}

// Load reads the session's checkpoint file, or returns graph.ErrNotFound.
func (s *FileStore[S]) Load(_ context.Context, sessionID string) (*graph.Checkpoint[S], error) {
	raw, err := os.ReadFile(s.path(sessionID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, graph.ErrNotFound
	}
	if err != nil {
		return nil, types.WrapError(types.ErrCheckpointLoad, "read checkpoint", err)
	}

	var cp graph.Checkpoint[S]
	if err := json.Unmarshal(raw, &cp); err != nil {
		return nil, types.WrapError(types.ErrCheckpointLoad, "unmarshal checkpoint", err)
	}
	return &cp, nil
}

// Delete removes a session's checkpoint file. Unknown sessions are a
// no-op.
func (s *FileStore[S]) Delete(_ context.Context, sessionID string) error {
	err := os.Remove(s.path(sessionID))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return types.WrapError(types.ErrCheckpointSave, "remove checkpoint", err)
	}
	return nil
}

var _ graph.Store[struct{}] = (*FileStore[struct{}])(nil)
