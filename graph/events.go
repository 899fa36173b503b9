package graph

import "time"

// EventType classifies execution events emitted by the Runner. Events are
// phase-granular: the engine treats node functions as opaque, so there is
// no token-level event for streaming partial oracle output. A front end
// wanting token streams must tap the oracle client directly.
type EventType string

const (
	EventPhaseStart EventType = "phase_start"
	EventPhaseEnd   EventType = "phase_end"
	EventError      EventType = "error"
	EventSuspended  EventType = "suspended"
	EventDone       EventType = "done"
)

// Event is a single execution event, suitable for progressive rendering by
// a front end.
type Event struct {
	Type      EventType     `json:"type"`
	SessionID string        `json:"session_id"`
	Node      string        `json:"node,omitempty"`
	Step      int           `json:"step"`
	Elapsed   time.Duration `json:"elapsed,omitempty"`
	Err       error         `json:"-"`
	At        time.Time     `json:"at"`
}

// EventHandler receives execution events.
type EventHandler func(Event)
