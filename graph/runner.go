package graph

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/deepresearch/types"
)

// defaultMaxSteps bounds node invocations per run. Domain loops carry their
// own iteration ceilings; this valve only catches wiring mistakes.
const defaultMaxSteps = 256

// Runner executes a compiled graph, one logical thread per session.
type Runner[S any] struct {
	graph           *Graph[S]
	store           Store[S]
	logger          *zap.Logger
	interruptBefore map[string]string // node -> deny target
	events          EventHandler
	maxSteps        int
}

// Result is the outcome of Run or Resume. When Suspended is set the session
// stopped at an interrupt marker before PendingNode ran; State is the
// snapshot at that boundary.
type Result[S any] struct {
	State       S
	Suspended   bool
	PendingNode string
}

// Run starts a fresh session from the entry node.
func (r *Runner[S]) Run(ctx context.Context, sessionID string, initial S) (*Result[S], error) {
	r.logger.Info("starting run",
		zap.String("session_id", sessionID),
		zap.String("entry", r.graph.entry),
	)
	return r.drive(ctx, sessionID, initial, r.graph.entry, 0, "")
}

// ResumeOption configures Resume.
type ResumeOption func(*resumeConfig)

type resumeConfig struct {
	hasApproval bool
	approved    bool
}

// WithApproval attaches an explicit approval decision to the resume.
// Denying skips the pending interrupted node and continues along its
// configured deny path. Approving is equivalent to a plain Resume: the
// resume call itself clears the pending interrupt.
func WithApproval(approved bool) ResumeOption {
	return func(c *resumeConfig) {
		c.hasApproval = true
		c.approved = approved
	}
}

// Resume re-enters a suspended session at its pending node. When the
// session is paused at an interrupt, resuming clears that one marker and
// runs the pending node, unless WithApproval(false) routes it down the
// deny path instead. Resuming an already-completed session is a no-op
// that returns the final state.
func (r *Runner[S]) Resume(ctx context.Context, sessionID string, opts ...ResumeOption) (*Result[S], error) {
	if r.store == nil {
		return nil, types.NewError(types.ErrCheckpointLoad, "runner has no checkpoint store")
	}

	var cfg resumeConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	cp, err := r.store.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}

	if cp.Done {
		r.logger.Info("resume on completed session is a no-op", zap.String("session_id", sessionID))
		return &Result[S]{State: cp.State}, nil
	}

	node := cp.PendingNode
	approvedNode := ""
	if denyTo, interruptible := r.interruptBefore[node]; interruptible {
		if cfg.hasApproval && !cfg.approved {
			r.logger.Info("approval denied, taking deny path",
				zap.String("session_id", sessionID),
				zap.String("denied_node", node),
				zap.String("deny_to", denyTo),
			)
			node = denyTo
		} else {
			approvedNode = node
		}
	}

	r.logger.Info("resuming run",
		zap.String("session_id", sessionID),
		zap.String("pending_node", node),
		zap.Int("step", cp.Step),
	)
	return r.drive(ctx, sessionID, cp.State, node, cp.Step, approvedNode)
}

// drive is the execution loop shared by Run and Resume. approvedNode names
// the one interrupt marker already cleared by an approval; all other
// flagged nodes still suspend.
func (r *Runner[S]) drive(ctx context.Context, sessionID string, state S, node string, step int, approvedNode string) (*Result[S], error) {
	for {
		if node == End {
			if err := r.saveCheckpoint(ctx, sessionID, state, "", true, step); err != nil {
				return nil, err
			}
			r.emit(Event{Type: EventDone, SessionID: sessionID, Step: step, At: time.Now()})
			r.logger.Info("run completed", zap.String("session_id", sessionID), zap.Int("steps", step))
			return &Result[S]{State: state}, nil
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if step >= r.maxSteps {
			return nil, fmt.Errorf("graph %s exceeded %d steps at node %s", r.graph.name, r.maxSteps, node)
		}

		if _, flagged := r.interruptBefore[node]; flagged && node != approvedNode {
			if err := r.saveCheckpoint(ctx, sessionID, state, node, false, step); err != nil {
				return nil, err
			}
			r.emit(Event{Type: EventSuspended, SessionID: sessionID, Node: node, Step: step, At: time.Now()})
			r.logger.Info("suspended before node",
				zap.String("session_id", sessionID),
				zap.String("pending_node", node),
			)
			return &Result[S]{State: state, Suspended: true, PendingNode: node}, nil
		}

		fn := r.graph.nodes[node]
		start := time.Now()
		r.emit(Event{Type: EventPhaseStart, SessionID: sessionID, Node: node, Step: step, At: start})
		r.logger.Debug("executing node", zap.String("session_id", sessionID), zap.String("node", node))

		update, err := fn(ctx, state)
		elapsed := time.Since(start)
		if err != nil {
			r.emit(Event{Type: EventError, SessionID: sessionID, Node: node, Step: step, Err: err, Elapsed: elapsed, At: time.Now()})
			r.logger.Error("node failed",
				zap.String("session_id", sessionID),
				zap.String("node", node),
				zap.Duration("elapsed", elapsed),
				zap.Error(err),
			)
			return nil, fmt.Errorf("node %s: %w", node, err)
		}
		if update != nil {
			state = update.Apply(state)
		}
		step++
		r.emit(Event{Type: EventPhaseEnd, SessionID: sessionID, Node: node, Step: step, Elapsed: elapsed, At: time.Now()})
		r.logger.Debug("node completed",
			zap.String("session_id", sessionID),
			zap.String("node", node),
			zap.Duration("elapsed", elapsed),
		)

		next, err := r.graph.successor(node, state)
		if err != nil {
			return nil, err
		}

		// Phase boundary: persist before moving on so a restart re-enters
		// at the successor with this node's update already applied.
		pending := next
		done := next == End
		if done {
			pending = ""
		}
		if err := r.saveCheckpoint(ctx, sessionID, state, pending, done, step); err != nil {
			return nil, err
		}
		if done {
			r.emit(Event{Type: EventDone, SessionID: sessionID, Step: step, At: time.Now()})
			r.logger.Info("run completed", zap.String("session_id", sessionID), zap.Int("steps", step))
			return &Result[S]{State: state}, nil
		}
		node = next
	}
}

func (r *Runner[S]) saveCheckpoint(ctx context.Context, sessionID string, state S, pending string, done bool, step int) error {
	if r.store == nil {
		return nil
	}
	cp := &Checkpoint[S]{
		SessionID:   sessionID,
		State:       state,
		PendingNode: pending,
		Done:        done,
		Step:        step,
		CreatedAt:   time.Now(),
	}
	if err := r.store.Save(ctx, cp); err != nil {
		return types.WrapError(types.ErrCheckpointSave, fmt.Sprintf("session %s", sessionID), err)
	}
	return nil
}

func (r *Runner[S]) emit(ev Event) {
	if r.events != nil {
		r.events(ev)
	}
}
