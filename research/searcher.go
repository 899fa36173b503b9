package research

import (
	"context"

	"go.uber.org/zap"

	"github.com/BaSui01/deepresearch/graph"
)

// maxURLsPerSearch caps how many result URLs one search may queue for
// reading, before the reader's own per-iteration cap.
const maxURLsPerSearch = 5

// Searcher runs one web search per loop iteration. It prefers the
// Analyzer's follow-up query over the plan's next unconsumed query, stores
// up to the strategy's URL budget into the pending list, and clears the
// follow-up after consuming it. A search failure degrades to an empty
// result set; the loop then exits through the Analyzer finding nothing new.
type Searcher struct {
	search SearchService
	logger *zap.Logger
}

// NewSearcher creates the search phase.
func NewSearcher(search SearchService, logger *zap.Logger) *Searcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Searcher{
		search: search,
		logger: logger.With(zap.String("phase", NodeSearch)),
	}
}

// Execute implements graph.NodeFunc[State].
func (sr *Searcher) Execute(ctx context.Context, s State) (graph.Update[State], error) {
	query, fromPlan := selectQuery(s)
	if query == "" {
		sr.logger.Info("no query available", zap.Int("iteration", s.Iteration))
		return &Update{
			SetSearchResults: ptr([]SearchResult{}),
			SetURLsPending:   ptr([]string{}),
		}, nil
	}

	update := &Update{SetNextQuery: ptr("")}
	if fromPlan {
		update.SetQueryCursor = ptr(s.QueryCursor + 1)
	}

	results, err := sr.search.Search(ctx, query, s.URLsPerQuery())
	if err != nil {
		sr.logger.Warn("search failed, continuing with empty results",
			zap.String("query", query),
			zap.Error(err),
		)
		update.SetSearchResults = ptr([]SearchResult{})
		update.SetURLsPending = ptr([]string{})
		return update, nil
	}

	urls := make([]string, 0, len(results))
	for _, r := range results {
		if r.URL == "" {
			continue
		}
		urls = append(urls, r.URL)
		if len(urls) == maxURLsPerSearch || len(urls) == s.URLsPerQuery() {
			break
		}
	}

	sr.logger.Info("search completed",
		zap.Int("iteration", s.Iteration),
		zap.String("query", query),
		zap.Int("results", len(results)),
		zap.Int("urls", len(urls)),
	)

	update.SetSearchResults = ptr(results)
	update.SetURLsPending = ptr(urls)
	return update, nil
}

// selectQuery picks the follow-up query when set, else the next plan query.
// The second return reports whether a plan query was consumed.
func selectQuery(s State) (string, bool) {
	if s.NextQuery != "" {
		return s.NextQuery, false
	}
	if s.Plan != nil && s.QueryCursor < len(s.Plan.Queries) {
		return s.Plan.Queries[s.QueryCursor], true
	}
	return "", false
}
