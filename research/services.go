package research

import "context"

// SearchService returns ranked results for a query. Implementations must
// surface every failure as an error value and be safe for concurrent use
// by fan-out workers.
type SearchService interface {
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)
}

// FetchService retrieves the text of a URL, stripped of markup, whitespace
// collapsed, truncated to maxChars. Implementations must never panic past
// their boundary; timeouts and HTTP failures surface as error values.
type FetchService interface {
	Fetch(ctx context.Context, url string, maxChars int) (string, error)
}
