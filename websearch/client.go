package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/BaSui01/deepresearch/research"
	"github.com/BaSui01/deepresearch/types"
)

// ClientConfig configures the search client.
type ClientConfig struct {
	// BaseURL of a SearxNG-compatible instance, e.g. "http://localhost:8888".
	BaseURL string `yaml:"base_url" json:"base_url"`

	Timeout time.Duration `yaml:"timeout" json:"timeout"`

	// RequestsPerSecond throttles outbound queries. Zero disables
	// throttling.
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`

	// CacheTTL keeps recent query results around so a retried iteration
	// does not hammer the search backend. Zero disables the cache.
	CacheTTL time.Duration `yaml:"cache_ttl" json:"cache_ttl"`

	UserAgent string `yaml:"user_agent" json:"user_agent"`
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Timeout:           15 * time.Second,
		RequestsPerSecond: 2,
		CacheTTL:          10 * time.Minute,
		UserAgent:         "deepresearch/1.0",
	}
}

// Client queries a SearxNG-compatible JSON API. It implements
// research.SearchService.
type Client struct {
	config  ClientConfig
	http    *http.Client
	limiter *rate.Limiter
	cache   *queryCache
	logger  *zap.Logger
}

// NewClient validates the configuration and builds a client.
func NewClient(config ClientConfig, logger *zap.Logger) (*Client, error) {
	if config.BaseURL == "" {
		return nil, types.NewError(types.ErrSearchFailed, "search base URL not configured")
	}
	if _, err := url.Parse(config.BaseURL); err != nil {
		return nil, types.WrapError(types.ErrSearchFailed, "invalid search base URL", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultClientConfig().Timeout
	}

	c := &Client{
		config: config,
		http:   &http.Client{Timeout: timeout},
		logger: logger.With(zap.String("component", "websearch")),
	}
	if config.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1)
	}
	if config.CacheTTL > 0 {
		c.cache = newQueryCache(config.CacheTTL)
	}
	return c, nil
}

// searxResponse mirrors the fields we need from the SearxNG JSON format.
type searxResponse struct {
	Results []struct {
		URL     string `json:"url"`
		Title   string `json:"title"`
		Content string `json:"content"`
	} `json:"results"`
}

// Search runs a query and returns at most limit results.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]research.SearchResult, error) {
	if limit <= 0 {
		return nil, nil
	}

	if c.cache != nil {
		if cached, ok := c.cache.get(query); ok {
			c.logger.Debug("search cache hit", zap.String("query", query))
			return capResults(cached, limit), nil
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, types.WrapError(types.ErrSearchFailed, "rate limit wait", err)
		}
	}

	endpoint := strings.TrimRight(c.config.BaseURL, "/") + "/search"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, types.WrapError(types.ErrSearchFailed, "build search request", err)
	}
	q := req.URL.Query()
	q.Set("q", query)
	q.Set("format", "json")
	req.URL.RawQuery = q.Encode()
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, types.WrapError(types.ErrSearchFailed, "search request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, types.NewError(types.ErrSearchFailed,
			fmt.Sprintf("search backend returned %d", resp.StatusCode))
	}

	var parsed searxResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, types.WrapError(types.ErrSearchFailed, "decode search response", err)
	}

	results := make([]research.SearchResult, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		if r.URL == "" {
			continue
		}
		results = append(results, research.SearchResult{
			URL:     r.URL,
			Title:   r.Title,
			Snippet: r.Content,
		})
	}

	c.logger.Debug("search completed",
		zap.String("query", query),
		zap.Int("results", len(results)),
		zap.Duration("duration", time.Since(start)))

	if c.cache != nil && len(results) > 0 {
		c.cache.set(query, results)
	}
	return capResults(results, limit), nil
}

func capResults(results []research.SearchResult, limit int) []research.SearchResult {
	if len(results) > limit {
		return results[:limit]
	}
	return results
}

type queryCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	ttl     time.Duration
}

type cacheEntry struct {
	results   []research.SearchResult
	expiresAt time.Time
}

func newQueryCache(ttl time.Duration) *queryCache {
	return &queryCache{entries: make(map[string]*cacheEntry), ttl: ttl}
}

func cacheKey(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

func (c *queryCache) get(query string) ([]research.SearchResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[cacheKey(query)]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.results, true
}

func (c *queryCache) set(query string, results []research.SearchResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(query)] = &cacheEntry{
		results:   results,
		expiresAt: time.Now().Add(c.ttl),
	}
}

var _ research.SearchService = (*Client)(nil)
