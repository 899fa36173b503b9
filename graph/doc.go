// Package graph implements a cyclic state-machine engine for phase-based
// pipelines. A Graph registers named nodes, wires unconditional and
// conditional edges between them, and compiles into a Runner that drives
// execution one node at a time, merging each node's partial update into a
// single state record.
//
// The engine persists a checkpoint at every phase boundary and supports
// interrupt-before markers: reaching a flagged node suspends the session
// with a pending-node checkpoint, and Resume re-enters exactly there. The
// suspend/resume gap may span process restarts; nothing is parked on a
// goroutine.
//
// All wiring mistakes (unregistered nodes, unmapped routing labels, bad
// interrupt targets) are reported by Compile, never at run time.
package graph
