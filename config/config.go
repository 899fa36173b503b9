package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the complete deepresearch configuration.
type Config struct {
	// Oracle configures the decision backend.
	Oracle OracleConfig `yaml:"oracle" env:"ORACLE"`

	// Search configures the web search client.
	Search SearchConfig `yaml:"search" env:"SEARCH"`

	// Fetch configures the page fetcher.
	Fetch FetchConfig `yaml:"fetch" env:"FETCH"`

	// Checkpoint configures session persistence.
	Checkpoint CheckpointConfig `yaml:"checkpoint" env:"CHECKPOINT"`

	// Pipeline configures run behavior.
	Pipeline PipelineConfig `yaml:"pipeline" env:"PIPELINE"`

	// Log configures structured logging.
	Log LogConfig `yaml:"log" env:"LOG"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `yaml:"metrics" env:"METRICS"`
}

// OracleConfig configures the OpenAI-compatible decision backend.
type OracleConfig struct {
	APIKey      string        `yaml:"api_key" env:"API_KEY"`
	BaseURL     string        `yaml:"base_url" env:"BASE_URL"`
	Model       string        `yaml:"model" env:"MODEL"`
	CallTimeout time.Duration `yaml:"call_timeout" env:"CALL_TIMEOUT"`
	Temperature float64       `yaml:"temperature" env:"TEMPERATURE"`
	MaxTokens   int           `yaml:"max_tokens" env:"MAX_TOKENS"`
}

// SearchConfig configures the SearxNG-compatible search client.
type SearchConfig struct {
	BaseURL           string        `yaml:"base_url" env:"BASE_URL"`
	Timeout           time.Duration `yaml:"timeout" env:"TIMEOUT"`
	RequestsPerSecond float64       `yaml:"requests_per_second" env:"REQUESTS_PER_SECOND"`
	CacheTTL          time.Duration `yaml:"cache_ttl" env:"CACHE_TTL"`
}

// FetchConfig configures the page fetcher.
type FetchConfig struct {
	Timeout      time.Duration `yaml:"timeout" env:"TIMEOUT"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" env:"MAX_BODY_BYTES"`
	UserAgent    string        `yaml:"user_agent" env:"USER_AGENT"`
}

// CheckpointConfig configures where session snapshots live. Backend is
// one of "memory", "file", or "redis".
type CheckpointConfig struct {
	Backend string `yaml:"backend" env:"BACKEND"`

	// Dir is the file backend's directory.
	Dir string `yaml:"dir" env:"DIR"`

	Redis RedisConfig `yaml:"redis" env:"REDIS"`
}

// RedisConfig configures the Redis checkpoint backend.
type RedisConfig struct {
	Addr      string        `yaml:"addr" env:"ADDR"`
	Password  string        `yaml:"password" env:"PASSWORD"`
	DB        int           `yaml:"db" env:"DB"`
	KeyPrefix string        `yaml:"key_prefix" env:"KEY_PREFIX"`
	TTL       time.Duration `yaml:"ttl" env:"TTL"`
}

// PipelineConfig configures run behavior.
type PipelineConfig struct {
	// ApprovalBeforeWrite pauses every session for human approval
	// before the answer is written.
	ApprovalBeforeWrite bool `yaml:"approval_before_write" env:"APPROVAL_BEFORE_WRITE"`

	// MaxSteps caps node invocations per session. Zero keeps the
	// engine default.
	MaxSteps int `yaml:"max_steps" env:"MAX_STEPS"`
}

// LogConfig configures zap.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" env:"LEVEL"`
	// Format is json or console.
	Format string `yaml:"format" env:"FORMAT"`
}

// MetricsConfig configures the Prometheus scrape endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED"`
	Addr    string `yaml:"addr" env:"ADDR"`
}

// Default returns the configuration used when nothing is specified.
func Default() *Config {
	return &Config{
		Oracle: OracleConfig{
			Model:       "gpt-4o-mini",
			CallTimeout: 60 * time.Second,
			Temperature: 0.2,
			MaxTokens:   2048,
		},
		Search: SearchConfig{
			Timeout:           15 * time.Second,
			RequestsPerSecond: 2,
			CacheTTL:          10 * time.Minute,
		},
		Fetch: FetchConfig{
			Timeout:      20 * time.Second,
			MaxBodyBytes: 2 << 20,
			UserAgent:    "deepresearch/1.0",
		},
		Checkpoint: CheckpointConfig{
			Backend: "memory",
			Dir:     ".deepresearch/sessions",
			Redis: RedisConfig{
				Addr: "localhost:6379",
				TTL:  24 * time.Hour,
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9090",
		},
	}
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	var errs []string

	switch c.Checkpoint.Backend {
	case "memory", "file", "redis":
	default:
		errs = append(errs, fmt.Sprintf("unknown checkpoint backend %q", c.Checkpoint.Backend))
	}
	if c.Checkpoint.Backend == "file" && c.Checkpoint.Dir == "" {
		errs = append(errs, "file checkpoint backend requires a dir")
	}
	if c.Checkpoint.Backend == "redis" && c.Checkpoint.Redis.Addr == "" {
		errs = append(errs, "redis checkpoint backend requires an addr")
	}

	if c.Oracle.Temperature < 0 || c.Oracle.Temperature > 2 {
		errs = append(errs, "oracle temperature must be between 0 and 2")
	}
	if c.Pipeline.MaxSteps < 0 {
		errs = append(errs, "pipeline max_steps cannot be negative")
	}

	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("unknown log level %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "", "json", "console":
	default:
		errs = append(errs, fmt.Sprintf("unknown log format %q", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}
	return nil
}
