package graph

import (
	"context"
	"time"

	"github.com/BaSui01/deepresearch/types"
)

// ErrNotFound is returned by Store.Load when a session has no checkpoint.
var ErrNotFound = types.NewError(types.ErrCheckpointNotFound, "checkpoint not found")

// Checkpoint is a persisted snapshot of a session. PendingNode names the
// node about to run; an empty PendingNode with Done set marks a finished
// session whose final state is the snapshot.
type Checkpoint[S any] struct {
	SessionID   string    `json:"session_id"`
	State       S         `json:"state"`
	PendingNode string    `json:"pending_node,omitempty"`
	Done        bool      `json:"done"`
	Step        int       `json:"step"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store persists one checkpoint per session, keyed by session id. Save
// replaces any prior snapshot; Load returns ErrNotFound for unknown
// sessions. Implementations must be safe for concurrent use across
// sessions.
type Store[S any] interface {
	Save(ctx context.Context, cp *Checkpoint[S]) error
	Load(ctx context.Context, sessionID string) (*Checkpoint[S], error)
}
