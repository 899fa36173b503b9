package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/BaSui01/deepresearch/research"
)

// MockSearch is a canned research.SearchService. Results can be keyed
// per query; unknown queries get the default results.
type MockSearch struct {
	mu sync.Mutex

	byQuery  map[string][]research.SearchResult
	defaults []research.SearchResult
	err      error

	Calls   int
	Queries []string
}

// NewMockSearch returns a search service with two default results.
func NewMockSearch() *MockSearch {
	return &MockSearch{
		byQuery: make(map[string][]research.SearchResult),
		defaults: []research.SearchResult{
			{URL: "https://example.com/one", Title: "One", Snippet: "first snippet"},
			{URL: "https://example.com/two", Title: "Two", Snippet: "second snippet"},
		},
	}
}

// WithResults sets the default results returned for any query.
func (m *MockSearch) WithResults(results ...research.SearchResult) *MockSearch {
	m.defaults = results
	return m
}

// WithQueryResults sets results for one specific query.
func (m *MockSearch) WithQueryResults(query string, results ...research.SearchResult) *MockSearch {
	m.byQuery[query] = results
	return m
}

// WithError makes every search fail.
func (m *MockSearch) WithError(err error) *MockSearch {
	m.err = err
	return m
}

func (m *MockSearch) Search(_ context.Context, query string, limit int) ([]research.SearchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	m.Queries = append(m.Queries, query)
	if m.err != nil {
		return nil, m.err
	}

	results, ok := m.byQuery[query]
	if !ok {
		results = m.defaults
	}
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// MockFetch is a canned research.FetchService. Content can be keyed per
// URL; unknown URLs get generated content mentioning the URL. Specific
// URLs can be made to fail.
type MockFetch struct {
	mu sync.Mutex

	byURL   map[string]string
	failing map[string]error
	err     error

	Calls int
	URLs  []string
}

// NewMockFetch returns a fetch service that serves generated content.
func NewMockFetch() *MockFetch {
	return &MockFetch{
		byURL:   make(map[string]string),
		failing: make(map[string]error),
	}
}

// WithContent sets the content for one URL.
func (m *MockFetch) WithContent(url, content string) *MockFetch {
	m.byURL[url] = content
	return m
}

// WithFailingURL makes one URL fail while others keep working.
func (m *MockFetch) WithFailingURL(url string, err error) *MockFetch {
	m.failing[url] = err
	return m
}

// WithError makes every fetch fail.
func (m *MockFetch) WithError(err error) *MockFetch {
	m.err = err
	return m
}

func (m *MockFetch) Fetch(_ context.Context, url string, maxChars int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	m.URLs = append(m.URLs, url)
	if m.err != nil {
		return "", m.err
	}
	if err, ok := m.failing[url]; ok {
		return "", err
	}

	content, ok := m.byURL[url]
	if !ok {
		content = fmt.Sprintf("generated page content for %s", url)
	}
	if maxChars > 0 && len(content) > maxChars {
		content = content[:maxChars]
	}
	return content, nil
}

var (
	_ research.SearchService = (*MockSearch)(nil)
	_ research.FetchService  = (*MockFetch)(nil)
)
