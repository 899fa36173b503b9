package websearch

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/BaSui01/deepresearch/research"
	"github.com/BaSui01/deepresearch/types"
)

// FetcherConfig configures the page fetcher.
type FetcherConfig struct {
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
	UserAgent string        `yaml:"user_agent" json:"user_agent"`

	// MaxBodyBytes caps how much of a response is read before parsing.
	MaxBodyBytes int64 `yaml:"max_body_bytes" json:"max_body_bytes"`
}

// DefaultFetcherConfig returns sensible defaults.
func DefaultFetcherConfig() FetcherConfig {
	return FetcherConfig{
		Timeout:      20 * time.Second,
		UserAgent:    "deepresearch/1.0",
		MaxBodyBytes: 2 << 20,
	}
}

// Fetcher downloads a page and reduces it to readable text. It
// implements research.FetchService.
type Fetcher struct {
	config FetcherConfig
	http   *http.Client
	logger *zap.Logger
}

// NewFetcher builds a fetcher with the given configuration.
func NewFetcher(config FetcherConfig, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultFetcherConfig().Timeout
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = DefaultFetcherConfig().MaxBodyBytes
	}
	return &Fetcher{
		config: config,
		http:   &http.Client{Timeout: timeout},
		logger: logger.With(zap.String("component", "fetcher")),
	}
}

// Fetch downloads url and returns its visible text, truncated to
// maxChars.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string, maxChars int) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", types.WrapError(types.ErrFetchFailed, "build fetch request", err)
	}
	if f.config.UserAgent != "" {
		req.Header.Set("User-Agent", f.config.UserAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	start := time.Now()
	resp, err := f.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", types.WrapError(types.ErrFetchTimeout, "fetch cancelled", err)
		}
		return "", types.WrapError(types.ErrFetchFailed, "fetch request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", types.NewError(types.ErrFetchFailed,
			fmt.Sprintf("fetch %s returned %d", pageURL, resp.StatusCode))
	}

	body := http.MaxBytesReader(nil, resp.Body, f.config.MaxBodyBytes)
	doc, err := html.Parse(body)
	if err != nil {
		return "", types.WrapError(types.ErrFetchFailed, "parse html", err)
	}

	text := extractText(doc)
	if maxChars > 0 && len(text) > maxChars {
		text = truncateRunes(text, maxChars)
	}

	f.logger.Debug("page fetched",
		zap.String("url", pageURL),
		zap.Int("chars", len(text)),
		zap.Duration("duration", time.Since(start)))
	return text, nil
}

// skippedElements never contribute visible prose.
var skippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"head":     true,
	"nav":      true,
	"footer":   true,
	"iframe":   true,
	"svg":      true,
	"form":     true,
}

// extractText walks the parsed tree collecting text nodes, skipping
// non-content elements and collapsing runs of whitespace.
func extractText(root *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skippedElements[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			trimmed := strings.TrimSpace(n.Data)
			if trimmed != "" {
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(collapseWhitespace(trimmed))
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return sb.String()
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncateRunes cuts s to at most max bytes without splitting a rune.
func truncateRunes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

var _ research.FetchService = (*Fetcher)(nil)
