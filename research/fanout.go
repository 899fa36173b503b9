package research

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/deepresearch/graph"
)

// defaultWorkerTimeout bounds each fan-out sub-task individually.
const defaultWorkerTimeout = 45 * time.Second

// FanOut explores the plan's queries concurrently instead of iterating:
// one search+read worker per query, joined at a single merge point. Worker
// completion order is not controlled, so the merge is a commutative append
// on the parallel fields. A worker's failure degrades to an empty
// contribution; the fan-out as a whole never fails.
type FanOut struct {
	search        SearchService
	fetch         FetchService
	workerTimeout time.Duration
	logger        *zap.Logger
}

// NewFanOut creates the parallel research phase.
func NewFanOut(search SearchService, fetch FetchService, logger *zap.Logger) *FanOut {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FanOut{
		search:        search,
		fetch:         fetch,
		workerTimeout: defaultWorkerTimeout,
		logger:        logger.With(zap.String("phase", NodeFanOut)),
	}
}

type workerResult struct {
	findings []string
	contents []ReadContent
}

// Execute implements graph.NodeFunc[State].
func (f *FanOut) Execute(ctx context.Context, s State) (graph.Update[State], error) {
	var queries []string
	if s.Plan != nil {
		queries = s.Plan.Queries
	}
	if len(queries) > maxPlanQueries {
		queries = queries[:maxPlanQueries]
	}
	if len(queries) == 0 {
		f.logger.Warn("no plan queries, fan-out contributes nothing")
		return (*Update)(nil), nil
	}

	f.logger.Info("launching research workers", zap.Int("workers", len(queries)))

	// Workers own no shared state; each writes only its slot. The merge
	// below is the single synchronization point.
	results := make([]workerResult, len(queries))
	g, groupCtx := errgroup.WithContext(ctx)
	for i, query := range queries {
		i, query := i, query
		g.Go(func() error {
			results[i] = f.runWorker(groupCtx, query, s.URLsPerQuery())
			return nil // a worker never fails the group
		})
	}
	// Workers return nil, so Wait only reflects context cancellation.
	if err := g.Wait(); err != nil {
		return nil, err
	}

	update := &Update{}
	for _, r := range results {
		update.MergeParallelFindings = append(update.MergeParallelFindings, r.findings...)
		update.MergeParallelContents = append(update.MergeParallelContents, r.contents...)
	}

	f.logger.Info("fan-out merged",
		zap.Int("workers", len(queries)),
		zap.Int("findings", len(update.MergeParallelFindings)),
		zap.Int("contents", len(update.MergeParallelContents)),
	)
	return update, nil
}

// runWorker is one independent search+read sub-task against a single
// query. Failures degrade to an empty contribution.
func (f *FanOut) runWorker(ctx context.Context, query string, urlBudget int) workerResult {
	ctx, cancel := context.WithTimeout(ctx, f.workerTimeout)
	defer cancel()

	hits, err := f.search.Search(ctx, query, urlBudget)
	if err != nil {
		f.logger.Warn("worker search failed",
			zap.String("query", query),
			zap.Error(err),
		)
		return workerResult{}
	}

	var res workerResult
	urls := make([]string, 0, maxReadsPerIteration)
	for _, h := range hits {
		if h.Snippet != "" {
			res.findings = append(res.findings, workerFinding(h))
		}
		if h.URL != "" && len(urls) < maxReadsPerIteration {
			urls = append(urls, h.URL)
		}
	}
	res.contents = readAll(ctx, f.fetch, urls, f.logger)
	return res
}

func workerFinding(h SearchResult) string {
	if h.Title != "" {
		return fmt.Sprintf("%s: %s (%s)", h.Title, h.Snippet, h.URL)
	}
	return fmt.Sprintf("%s (%s)", h.Snippet, h.URL)
}
