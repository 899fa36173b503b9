package openai

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/BaSui01/deepresearch/research"
	"github.com/BaSui01/deepresearch/types"
)

// Config holds the oracle's connection and generation settings.
type Config struct {
	// APIKey authenticates against the backend.
	APIKey string `yaml:"api_key" json:"api_key"`

	// BaseURL points at an OpenAI-compatible endpoint. Empty means the
	// official API.
	BaseURL string `yaml:"base_url" json:"base_url"`

	Model string `yaml:"model" json:"model"`

	// CallTimeout bounds every individual oracle call.
	CallTimeout time.Duration `yaml:"call_timeout" json:"call_timeout"`

	Temperature float32 `yaml:"temperature" json:"temperature"`
	MaxTokens   int     `yaml:"max_tokens" json:"max_tokens"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Model:       "gpt-4o-mini",
		CallTimeout: 60 * time.Second,
		Temperature: 0.2,
		MaxTokens:   2048,
	}
}

// Oracle implements research.Oracle via chat completions with JSON
// output. Stateless and safe for concurrent use.
type Oracle struct {
	client *openai.Client
	config Config
	logger *zap.Logger
}

// New builds an oracle from the configuration.
func New(config Config, logger *zap.Logger) (*Oracle, error) {
	if config.APIKey == "" {
		return nil, types.NewError(types.ErrOracleUnavailable, "oracle API key not configured")
	}
	if config.Model == "" {
		config.Model = DefaultConfig().Model
	}
	if config.CallTimeout <= 0 {
		config.CallTimeout = DefaultConfig().CallTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	clientCfg := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientCfg.BaseURL = config.BaseURL
	}

	return &Oracle{
		client: openai.NewClientWithConfig(clientCfg),
		config: config,
		logger: logger.With(zap.String("component", "oracle")),
	}, nil
}

// complete runs one chat completion and returns the raw content.
func (o *Oracle) complete(ctx context.Context, op, system, user string, jsonOutput bool) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.config.CallTimeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:       o.config.Model,
		Temperature: o.config.Temperature,
		MaxTokens:   o.config.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}
	if jsonOutput {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	start := time.Now()
	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", types.WrapError(types.ErrOracleTimeout, op+" timed out", err)
		}
		return "", types.WrapError(types.ErrOracleUnavailable, op+" call failed", err)
	}
	if len(resp.Choices) == 0 {
		return "", types.NewError(types.ErrOracleMalformed, op+" returned no choices")
	}

	o.logger.Debug("oracle call completed",
		zap.String("op", op),
		zap.String("model", o.config.Model),
		zap.Duration("duration", time.Since(start)))
	return resp.Choices[0].Message.Content, nil
}

// decode parses a JSON decision, tolerating markdown fences some models
// wrap around their output.
func decode(op, raw string, v any) error {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return types.WrapError(types.ErrOracleMalformed, op+" returned invalid JSON", err)
	}
	return nil
}

// Clarify implements research.Oracle.
func (o *Oracle) Clarify(ctx context.Context, question string) (*research.ClarifyDecision, error) {
	raw, err := o.complete(ctx, "clarify", clarifySystemPrompt, clarifyUserPrompt(question), true)
	if err != nil {
		return nil, err
	}

	var decision research.ClarifyDecision
	if err := decode("clarify", raw, &decision); err != nil {
		return nil, err
	}
	if decision.Needed && decision.Question == "" {
		return nil, types.NewError(types.ErrOracleMalformed, "clarify flagged ambiguity without a question")
	}
	return &decision, nil
}

// Plan implements research.Oracle.
func (o *Oracle) Plan(ctx context.Context, question string) (*research.PlanDecision, error) {
	raw, err := o.complete(ctx, "plan", planSystemPrompt, planUserPrompt(question), true)
	if err != nil {
		return nil, err
	}

	var decision research.PlanDecision
	if err := decode("plan", raw, &decision); err != nil {
		return nil, err
	}

	queries := make([]string, 0, len(decision.Queries))
	for _, q := range decision.Queries {
		if trimmed := strings.TrimSpace(q); trimmed != "" {
			queries = append(queries, trimmed)
		}
	}
	if len(queries) == 0 {
		return nil, types.NewError(types.ErrOracleMalformed, "plan returned no usable queries")
	}
	decision.Queries = queries
	return &decision, nil
}

// Analyze implements research.Oracle.
func (o *Oracle) Analyze(ctx context.Context, req research.AnalyzeRequest) (*research.AnalyzeDecision, error) {
	raw, err := o.complete(ctx, "analyze", analyzeSystemPrompt, analyzeUserPrompt(req), true)
	if err != nil {
		return nil, err
	}

	var decision research.AnalyzeDecision
	if err := decode("analyze", raw, &decision); err != nil {
		return nil, err
	}

	findings := make([]string, 0, len(decision.Findings))
	for _, f := range decision.Findings {
		if trimmed := strings.TrimSpace(f); trimmed != "" {
			findings = append(findings, trimmed)
		}
	}
	decision.Findings = findings
	decision.NextQuery = strings.TrimSpace(decision.NextQuery)
	return &decision, nil
}

// Compose implements research.Oracle.
func (o *Oracle) Compose(ctx context.Context, req research.ComposeRequest) (string, error) {
	answer, err := o.complete(ctx, "compose", composeSystemPrompt, composeUserPrompt(req), false)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

// Score implements research.Oracle.
func (o *Oracle) Score(ctx context.Context, question, answer string) (*research.QualityDecision, error) {
	raw, err := o.complete(ctx, "score", scoreSystemPrompt, scoreUserPrompt(question, answer), true)
	if err != nil {
		return nil, err
	}

	var decision research.QualityDecision
	if err := decode("score", raw, &decision); err != nil {
		return nil, err
	}
	return &decision, nil
}

var _ research.Oracle = (*Oracle)(nil)
