// Package mocks provides test doubles for the pipeline's collaborators:
// a scripted decision oracle, canned search and fetch services, and a
// recording checkpoint store. All support a builder style with error
// injection.
package mocks
