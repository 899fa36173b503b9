package research

import (
	"context"

	"go.uber.org/zap"

	"github.com/BaSui01/deepresearch/graph"
)

const (
	// maxReadsPerIteration bounds fetch latency and cost per loop pass.
	maxReadsPerIteration = 3
	// maxContentChars truncates each fetched page.
	maxContentChars = 4000
)

// ContentReader fetches the pending URLs, truncates each page to a fixed
// character budget and accumulates the text. A failed fetch is logged and
// skipped; it never fails the pipeline, and contributes nothing to the
// accumulated contents.
type ContentReader struct {
	fetch  FetchService
	logger *zap.Logger
}

// NewContentReader creates the read phase.
func NewContentReader(fetch FetchService, logger *zap.Logger) *ContentReader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContentReader{
		fetch:  fetch,
		logger: logger.With(zap.String("phase", NodeRead)),
	}
}

// Execute implements graph.NodeFunc[State].
func (cr *ContentReader) Execute(ctx context.Context, s State) (graph.Update[State], error) {
	urls := s.URLsPending
	if len(urls) > maxReadsPerIteration {
		urls = urls[:maxReadsPerIteration]
	}
	if len(urls) == 0 {
		cr.logger.Info("no URLs to read", zap.Int("iteration", s.Iteration))
		return &Update{SetURLsPending: ptr([]string{})}, nil
	}

	contents := readAll(ctx, cr.fetch, urls, cr.logger)
	cr.logger.Info("content reading completed",
		zap.Int("iteration", s.Iteration),
		zap.Int("requested", len(urls)),
		zap.Int("read", len(contents)),
	)

	return &Update{
		AppendContents: contents,
		SetURLsPending: ptr([]string{}),
	}, nil
}

// readAll fetches each URL sequentially, skipping failures. Shared by the
// loop reader and the fan-out workers.
func readAll(ctx context.Context, fetch FetchService, urls []string, logger *zap.Logger) []ReadContent {
	contents := make([]ReadContent, 0, len(urls))
	for _, url := range urls {
		text, err := fetch.Fetch(ctx, url, maxContentChars)
		if err != nil {
			logger.Warn("fetch failed, skipping URL",
				zap.String("url", url),
				zap.Error(err),
			)
			continue
		}
		if text == "" {
			continue
		}
		contents = append(contents, ReadContent{URL: url, Content: text})
	}
	return contents
}
