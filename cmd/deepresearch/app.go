package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/BaSui01/deepresearch/checkpoint"
	"github.com/BaSui01/deepresearch/config"
	"github.com/BaSui01/deepresearch/graph"
	"github.com/BaSui01/deepresearch/internal/metrics"
	oracleopenai "github.com/BaSui01/deepresearch/oracle/openai"
	"github.com/BaSui01/deepresearch/research"
	"github.com/BaSui01/deepresearch/websearch"
)

// app wires configuration into a runnable pipeline with its supporting
// services.
type app struct {
	pipeline *research.Pipeline
	logger   *zap.Logger

	redisStore *checkpoint.RedisStore[research.State]
	metricsSrv *http.Server
}

func newApp(cfg *config.Config, logger *zap.Logger) (*app, error) {
	oracle, err := oracleopenai.New(oracleopenai.Config{
		APIKey:      cfg.Oracle.APIKey,
		BaseURL:     cfg.Oracle.BaseURL,
		Model:       cfg.Oracle.Model,
		CallTimeout: cfg.Oracle.CallTimeout,
		Temperature: float32(cfg.Oracle.Temperature),
		MaxTokens:   cfg.Oracle.MaxTokens,
	}, logger)
	if err != nil {
		return nil, err
	}

	search, err := websearch.NewClient(websearch.ClientConfig{
		BaseURL:           cfg.Search.BaseURL,
		Timeout:           cfg.Search.Timeout,
		RequestsPerSecond: cfg.Search.RequestsPerSecond,
		CacheTTL:          cfg.Search.CacheTTL,
		UserAgent:         cfg.Fetch.UserAgent,
	}, logger)
	if err != nil {
		return nil, err
	}

	fetch := websearch.NewFetcher(websearch.FetcherConfig{
		Timeout:      cfg.Fetch.Timeout,
		UserAgent:    cfg.Fetch.UserAgent,
		MaxBodyBytes: cfg.Fetch.MaxBodyBytes,
	}, logger)

	a := &app{logger: logger}

	store, err := a.buildStore(cfg.Checkpoint)
	if err != nil {
		return nil, err
	}

	opts := []research.Option{
		research.WithEventHandler(a.eventHandler(cfg)),
	}
	if cfg.Pipeline.ApprovalBeforeWrite {
		opts = append(opts, research.WithApprovalBeforeWrite())
	}
	if cfg.Pipeline.MaxSteps > 0 {
		opts = append(opts, research.WithMaxSteps(cfg.Pipeline.MaxSteps))
	}

	pipeline, err := research.NewPipeline(research.Deps{
		Oracle: oracle,
		Search: search,
		Fetch:  fetch,
		Store:  store,
		Logger: logger,
	}, opts...)
	if err != nil {
		return nil, err
	}
	a.pipeline = pipeline
	return a, nil
}

func (a *app) buildStore(cfg config.CheckpointConfig) (graph.Store[research.State], error) {
	switch cfg.Backend {
	case "memory":
		return checkpoint.NewMemoryStore[research.State](), nil
	case "file":
		return checkpoint.NewFileStore[research.State](cfg.Dir)
	case "redis":
		store, err := checkpoint.NewRedisStore[research.State](checkpoint.RedisConfig{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
			TTL:       cfg.Redis.TTL,
		})
		if err != nil {
			return nil, err
		}
		a.redisStore = store
		return store, nil
	default:
		return nil, fmt.Errorf("unknown checkpoint backend %q", cfg.Backend)
	}
}

// eventHandler prints progress to the terminal and, when metrics are
// enabled, feeds the Prometheus collector and serves the scrape
// endpoint.
func (a *app) eventHandler(cfg *config.Config) graph.EventHandler {
	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		collector = metrics.NewCollector("deepresearch", reg, a.logger)

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		a.metricsSrv = &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}
		go func() {
			if err := a.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Warn("metrics server stopped", zap.Error(err))
			}
		}()
	}

	return func(ev graph.Event) {
		switch ev.Type {
		case graph.EventPhaseStart:
			fmt.Printf("  [%d] %s...\n", ev.Step, ev.Node)
		case graph.EventPhaseEnd:
			fmt.Printf("  [%d] %s done (%s)\n", ev.Step, ev.Node, ev.Elapsed.Round(time.Millisecond))
		case graph.EventSuspended:
			fmt.Printf("  session suspended before %s; resume to continue, or resume --deny to skip it\n", ev.Node)
		case graph.EventError:
			fmt.Printf("  [%d] %s failed: %v\n", ev.Step, ev.Node, ev.Err)
		case graph.EventDone:
			fmt.Println("  session complete")
		}
		if collector != nil {
			collector.HandleEvent(ev)
		}
	}
}

func (a *app) Run(sessionID, question string) (*graph.Result[research.State], error) {
	return a.pipeline.Start(context.Background(), sessionID, question)
}

func (a *app) Resume(sessionID string, approval *bool) (*graph.Result[research.State], error) {
	return a.pipeline.Resume(context.Background(), sessionID, approval)
}

func (a *app) Close() {
	if a.metricsSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		a.metricsSrv.Shutdown(ctx)
		cancel()
	}
	if a.redisStore != nil {
		a.redisStore.Close()
	}
}

func printResult(sessionID string, result *graph.Result[research.State]) {
	if result.Suspended {
		fmt.Printf("\nsession %s is waiting for approval before %s\n", sessionID, result.PendingNode)
		fmt.Printf("resume with: deepresearch resume --session %s\n", sessionID)
		return
	}

	fmt.Println()
	fmt.Println(result.State.FinalAnswer())

	if q := result.State.Quality; q != nil {
		fmt.Printf("\nquality: completeness=%.0f accuracy=%.0f relevance=%.0f clarity=%.0f (total %.0f)\n",
			q.Completeness, q.Accuracy, q.Relevance, q.Clarity, q.Total)
		if q.NeedsRevision {
			fmt.Println("note: the reviewer flagged this answer as below threshold")
			if q.Feedback != "" {
				fmt.Printf("feedback: %s\n", q.Feedback)
			}
		}
	}
}
