// Package research implements a multi-phase deep-research pipeline on top
// of the graph engine: a Clarifier, Planner and Supervisor feed a bounded
// iterative research loop (Searcher, ContentReader, Analyzer) or a parallel
// fan-out, whose output is compressed with citations, synthesized into a
// final answer and scored against the CARC quality rubric.
//
// Every phase reads the shared State and returns a partial Update; the
// per-field merge rules live in one place (Update.Apply). External
// collaborators (the decision Oracle, the Search and Fetch services, and
// the checkpoint store) are injected at construction, never ambient.
//
// A failed collaborator call never aborts the pipeline: each phase carries
// a documented fallback so the user always receives a best-effort answer.
package research
