// Package checkpoint provides graph.Store implementations for session
// persistence: an in-memory store for tests and single-process runs, a
// JSON file store for local durability, and a Redis store for
// distributed deployments.
package checkpoint
