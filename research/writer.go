package research

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/BaSui01/deepresearch/graph"
	"github.com/BaSui01/deepresearch/types"
)

// minAnswerChars rejects degenerate oracle output in favor of the fallback
// summary.
const minAnswerChars = 50

// Writer synthesizes the final answer from the compressed notes and
// appends it to the conversation. When the oracle fails or produces a
// degenerate answer, the phase emits a minimal summary built directly from
// the findings and source list rather than failing the run.
type Writer struct {
	oracle Oracle
	logger *zap.Logger
}

// NewWriter creates the write phase.
func NewWriter(oracle Oracle, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{
		oracle: oracle,
		logger: logger.With(zap.String("phase", NodeWrite)),
	}
}

// Execute implements graph.NodeFunc[State].
func (w *Writer) Execute(ctx context.Context, s State) (graph.Update[State], error) {
	question := s.Question()
	findings := dedupeFindings(s.AllFindings())
	sources := sourceURLs(s.AllContents())

	notes := s.CompressedNotes
	if notes == "" {
		// Compressor fallback: raw findings as bullets, no citations.
		notes = "- " + strings.Join(findings, "\n- ")
	}

	answer, err := w.oracle.Compose(ctx, ComposeRequest{
		Question:        question,
		CompressedNotes: notes,
		Findings:        findings,
		Sources:         sources,
	})
	if err != nil {
		w.logger.Warn("oracle unavailable, writing fallback summary", zap.Error(err))
		answer = fallbackAnswer(findings, sources)
	} else if len(strings.TrimSpace(answer)) < minAnswerChars {
		w.logger.Warn("oracle answer degenerate, writing fallback summary",
			zap.Int("chars", len(answer)),
		)
		answer = fallbackAnswer(findings, sources)
	}

	w.logger.Info("answer composed", zap.Int("chars", len(answer)))
	return &Update{
		AppendMessages: []types.Message{types.NamedAssistantMessage(NodeWrite, answer)},
	}, nil
}

// fallbackAnswer builds the minimal best-effort answer from raw material.
// It is never empty: even with zero findings the user gets an explicit
// empty-handed summary instead of silence.
func fallbackAnswer(findings, sources []string) string {
	var b strings.Builder
	b.WriteString("## Research Summary\n\n")
	if len(findings) == 0 {
		b.WriteString("No findings could be gathered for this question.\n")
	}
	for _, f := range findings {
		b.WriteString("- ")
		b.WriteString(f)
		b.WriteByte('\n')
	}
	if len(sources) > 0 {
		b.WriteString("\n### Sources\n")
		for _, u := range sources {
			b.WriteString("- ")
			b.WriteString(u)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func sourceURLs(contents []ReadContent) []string {
	seen := make(map[string]struct{}, len(contents))
	out := make([]string, 0, len(contents))
	for _, c := range contents {
		if c.URL == "" {
			continue
		}
		if _, dup := seen[c.URL]; dup {
			continue
		}
		seen[c.URL] = struct{}{}
		out = append(out, c.URL)
	}
	return out
}
