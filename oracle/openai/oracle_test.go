package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/deepresearch/research"
	"github.com/BaSui01/deepresearch/types"
)

// fakeBackend serves an OpenAI-compatible chat completions endpoint that
// always replies with content.
func fakeBackend(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		resp := map[string]any{
			"id":     "chatcmpl-test",
			"object": "chat.completion",
			"model":  "gpt-4o-mini",
			"choices": []map[string]any{
				{
					"index":         0,
					"finish_reason": "stop",
					"message":       map[string]any{"role": "assistant", "content": content},
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func newTestOracle(t *testing.T, content string) *Oracle {
	t.Helper()
	srv := fakeBackend(t, content)
	t.Cleanup(srv.Close)

	cfg := DefaultConfig()
	cfg.APIKey = "test-key"
	cfg.BaseURL = srv.URL

	o, err := New(cfg, nil)
	require.NoError(t, err)
	return o
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(Config{}, nil)
	require.Error(t, err)
	assert.Equal(t, types.ErrOracleUnavailable, types.CodeOf(err))
}

func TestOracle_Clarify(t *testing.T) {
	o := newTestOracle(t, `{"needed": false, "analysis": "request is specific"}`)

	decision, err := o.Clarify(context.Background(), "how does raft elect a leader")
	require.NoError(t, err)
	assert.False(t, decision.Needed)
	assert.Equal(t, "request is specific", decision.Analysis)
}

func TestOracle_ClarifyNeededWithoutQuestionIsMalformed(t *testing.T) {
	o := newTestOracle(t, `{"needed": true}`)

	_, err := o.Clarify(context.Background(), "it")
	require.Error(t, err)
	assert.Equal(t, types.ErrOracleMalformed, types.CodeOf(err))
}

func TestOracle_Plan(t *testing.T) {
	o := newTestOracle(t, `{"queries": ["raft leader election", "  ", "raft election timeout"], "focus_areas": ["terms"], "depth": 2}`)

	decision, err := o.Plan(context.Background(), "how does raft elect a leader")
	require.NoError(t, err)
	assert.Equal(t, []string{"raft leader election", "raft election timeout"}, decision.Queries)
	assert.Equal(t, 2, decision.Depth)
}

func TestOracle_PlanNoQueriesIsMalformed(t *testing.T) {
	o := newTestOracle(t, `{"queries": ["   "], "depth": 2}`)

	_, err := o.Plan(context.Background(), "anything")
	require.Error(t, err)
	assert.Equal(t, types.ErrOracleMalformed, types.CodeOf(err))
}

func TestOracle_PlanToleratesMarkdownFences(t *testing.T) {
	o := newTestOracle(t, "```json\n{\"queries\": [\"q1\"], \"depth\": 1}\n```")

	decision, err := o.Plan(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, []string{"q1"}, decision.Queries)
}

func TestOracle_Analyze(t *testing.T) {
	o := newTestOracle(t, `{"findings": ["leaders are elected by majority vote", ""], "needs_more_research": true, "next_query": " split vote handling "}`)

	decision, err := o.Analyze(context.Background(), research.AnalyzeRequest{
		Question:      "how does raft elect a leader",
		Iteration:     1,
		MaxIterations: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"leaders are elected by majority vote"}, decision.Findings)
	assert.True(t, decision.NeedsMoreResearch)
	assert.Equal(t, "split vote handling", decision.NextQuery)
}

func TestOracle_Compose(t *testing.T) {
	o := newTestOracle(t, "  ## Answer\nLeaders win majority votes.\n")

	answer, err := o.Compose(context.Background(), research.ComposeRequest{
		Question: "how does raft elect a leader",
		Findings: []string{"majority vote"},
	})
	require.NoError(t, err)
	assert.Equal(t, "## Answer\nLeaders win majority votes.", answer)
}

func TestOracle_Score(t *testing.T) {
	o := newTestOracle(t, `{"completeness": 4, "accuracy": 5, "relevance": 4, "clarity": 3, "feedback": "solid"}`)

	decision, err := o.Score(context.Background(), "q", "a")
	require.NoError(t, err)
	assert.Equal(t, 5.0, decision.Accuracy)
	assert.Equal(t, "solid", decision.Feedback)
}

func TestOracle_MalformedJSON(t *testing.T) {
	o := newTestOracle(t, "no json here")

	_, err := o.Score(context.Background(), "q", "a")
	require.Error(t, err)
	assert.Equal(t, types.ErrOracleMalformed, types.CodeOf(err))
}

func TestOracle_BackendDown(t *testing.T) {
	srv := fakeBackend(t, "{}")
	srv.Close()

	cfg := DefaultConfig()
	cfg.APIKey = "test-key"
	cfg.BaseURL = srv.URL

	o, err := New(cfg, nil)
	require.NoError(t, err)

	_, err = o.Clarify(context.Background(), "anything")
	require.Error(t, err)
	assert.Equal(t, types.ErrOracleUnavailable, types.CodeOf(err))
}

func TestPromptTruncation(t *testing.T) {
	long := make([]byte, maxPayloadChars*2)
	for i := range long {
		long[i] = 'x'
	}

	prompt := analyzeUserPrompt(research.AnalyzeRequest{
		Question:      string(long),
		Iteration:     1,
		MaxIterations: 3,
		ReadContents: []research.ReadContent{
			{URL: "https://example.com", Content: string(long)},
		},
	})
	assert.LessOrEqual(t, len(prompt), maxPayloadChars)
}

func TestTruncateRespectsRuneBoundaries(t *testing.T) {
	text := strings.Repeat("研究ノート", 10)
	for i := 0; i <= len(text); i++ {
		cut := truncate(text, i)
		assert.True(t, utf8.ValidString(cut))
		assert.LessOrEqual(t, len(cut), i)
	}
	assert.Equal(t, "plain ascii", truncate("plain ascii", 60))
}
