package research

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/BaSui01/deepresearch/graph"
)

// Compressor deduplicates the accumulated findings, assigns each distinct
// source URL a stable citation index in order of first appearance, and
// produces a single citation-annotated notes string for the Writer. The
// phase is deterministic; with nothing to cite it degrades to the raw
// findings as a bullet list.
type Compressor struct {
	logger *zap.Logger
}

// NewCompressor creates the compress phase.
func NewCompressor(logger *zap.Logger) *Compressor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Compressor{logger: logger.With(zap.String("phase", NodeCompress))}
}

// Execute implements graph.NodeFunc[State].
func (c *Compressor) Execute(ctx context.Context, s State) (graph.Update[State], error) {
	findings := dedupeFindings(s.AllFindings())
	contents := s.AllContents()

	notes := Compress(findings, contents)
	c.logger.Info("findings compressed",
		zap.Int("raw_findings", len(s.AllFindings())),
		zap.Int("distinct_findings", len(findings)),
		zap.Int("sources", len(contents)),
		zap.Int("notes_chars", len(notes)),
	)

	return &Update{SetCompressedNotes: ptr(notes)}, nil
}

// Compress renders deduplicated findings with citation markers. URLs
// mentioned inline in a finding are rewritten to their citation index.
func Compress(findings []string, contents []ReadContent) string {
	citations := citationIndex(contents)

	var b strings.Builder
	b.WriteString("Research notes:\n")
	for _, f := range findings {
		annotated := f
		for url, idx := range citations {
			annotated = strings.ReplaceAll(annotated, "("+url+")", fmt.Sprintf("[%d]", idx))
			annotated = strings.ReplaceAll(annotated, url, fmt.Sprintf("[%d]", idx))
		}
		b.WriteString("- ")
		b.WriteString(annotated)
		b.WriteByte('\n')
	}

	if len(citations) > 0 {
		b.WriteString("\nSources:\n")
		ordered := make([]string, len(citations))
		for url, idx := range citations {
			ordered[idx-1] = url
		}
		for i, url := range ordered {
			fmt.Fprintf(&b, "[%d] %s\n", i+1, url)
		}
	}
	return b.String()
}

// citationIndex assigns 1-based indexes to distinct URLs in first-seen
// order, which keeps citations stable across re-runs over the same
// contents.
func citationIndex(contents []ReadContent) map[string]int {
	idx := make(map[string]int, len(contents))
	for _, c := range contents {
		if c.URL == "" {
			continue
		}
		if _, seen := idx[c.URL]; !seen {
			idx[c.URL] = len(idx) + 1
		}
	}
	return idx
}

// dedupeFindings drops findings that collapse to the same normalized text,
// keeping the first occurrence.
func dedupeFindings(findings []string) []string {
	seen := make(map[string]struct{}, len(findings))
	out := make([]string, 0, len(findings))
	for _, f := range findings {
		key := strings.ToLower(strings.Join(strings.Fields(f), " "))
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, f)
	}
	return out
}
