package openai

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/BaSui01/deepresearch/research"
)

// Prompt assembly truncation budgets. Oracles have context limits; the
// material lists are trimmed aggressively since findings already carry
// the distilled signal.
const (
	maxSnippetChars = 500
	maxContentChars = 800
	maxPayloadChars = 6000
)

const clarifySystemPrompt = `You are a research assistant judging whether a user request is specific enough to research.
Respond with JSON: {"needed": bool, "question": "clarifying question if needed", "analysis": "one-line reasoning"}.
Only flag requests that are genuinely ambiguous; a broad but clear topic does not need clarification.`

func clarifyUserPrompt(question string) string {
	return "User request:\n" + truncate(question, maxPayloadChars)
}

const planSystemPrompt = `You are a research planner. Expand the user request into a research plan.
Respond with JSON: {"queries": ["2 to 4 distinct web search queries"], "focus_areas": ["key aspects"], "depth": 1-3}.
Depth 1 is a quick lookup, 3 is a thorough investigation. Queries must cover different angles of the request.`

func planUserPrompt(question string) string {
	return "User request:\n" + truncate(question, maxPayloadChars)
}

const analyzeSystemPrompt = `You are a research analyst reviewing gathered material.
Extract new factual findings and decide whether another research iteration is warranted.
Respond with JSON: {"findings": ["concise factual statements"], "needs_more_research": bool, "next_query": "follow-up search query if more research is needed"}.
Do not repeat findings already listed. Only request more research when a concrete gap remains.`

func analyzeUserPrompt(req research.AnalyzeRequest) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Question: %s\n", truncate(req.Question, maxSnippetChars))
	fmt.Fprintf(&sb, "Iteration %d of %d\n\n", req.Iteration, req.MaxIterations)

	if len(req.Findings) > 0 {
		sb.WriteString("Findings so far:\n")
		for _, f := range req.Findings {
			fmt.Fprintf(&sb, "- %s\n", truncate(f, maxSnippetChars))
		}
		sb.WriteString("\n")
	}

	if len(req.SearchResults) > 0 {
		sb.WriteString("Search results:\n")
		for _, r := range req.SearchResults {
			fmt.Fprintf(&sb, "- %s: %s (%s)\n", r.Title, truncate(r.Snippet, maxSnippetChars), r.URL)
		}
		sb.WriteString("\n")
	}

	if len(req.ReadContents) > 0 {
		sb.WriteString("Page contents:\n")
		for _, c := range req.ReadContents {
			fmt.Fprintf(&sb, "--- %s ---\n%s\n", c.URL, truncate(c.Content, maxContentChars))
		}
	}

	return truncate(sb.String(), maxPayloadChars)
}

const composeSystemPrompt = `You are a research writer. Synthesize a final answer from the research notes.
Write in markdown with a short summary, supporting detail, and a Sources section citing the numbered references.
Ground every claim in the notes; do not invent sources.`

func composeUserPrompt(req research.ComposeRequest) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Question: %s\n\n", truncate(req.Question, maxSnippetChars))

	if req.CompressedNotes != "" {
		sb.WriteString(req.CompressedNotes)
		sb.WriteString("\n")
	} else if len(req.Findings) > 0 {
		sb.WriteString("Findings:\n")
		for _, f := range req.Findings {
			fmt.Fprintf(&sb, "- %s\n", truncate(f, maxSnippetChars))
		}
	}

	if len(req.Sources) > 0 {
		sb.WriteString("\nSources:\n")
		for i, s := range req.Sources {
			fmt.Fprintf(&sb, "[%d] %s\n", i+1, s)
		}
	}

	return truncate(sb.String(), maxPayloadChars)
}

const scoreSystemPrompt = `You are a strict research reviewer. Rate the answer against the question on four dimensions, each 1 to 5:
completeness (covers the question fully), accuracy (claims match the sources), relevance (stays on topic), clarity (well organized and readable).
Respond with JSON: {"completeness": n, "accuracy": n, "relevance": n, "clarity": n, "feedback": "one short paragraph"}.`

func scoreUserPrompt(question, answer string) string {
	return fmt.Sprintf("Question:\n%s\n\nAnswer:\n%s",
		truncate(question, maxSnippetChars),
		truncate(answer, maxPayloadChars))
}

// truncate cuts s to at most maxChars bytes, backing off to a rune
// boundary so a multi-byte character is never split.
func truncate(s string, maxChars int) string {
	if len(s) <= maxChars {
		return s
	}
	for maxChars > 0 && !utf8.RuneStart(s[maxChars]) {
		maxChars--
	}
	return s[:maxChars]
}
