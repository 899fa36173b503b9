// Package metrics provides Prometheus instrumentation for pipeline
// runs. Internal; not for import by external projects.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/BaSui01/deepresearch/graph"
)

// Collector tracks pipeline phase and session metrics. It plugs into
// the pipeline as an event handler.
type Collector struct {
	phaseRuns     *prometheus.CounterVec
	phaseDuration *prometheus.HistogramVec
	sessionsTotal *prometheus.CounterVec

	logger *zap.Logger
}

// NewCollector registers the pipeline metrics on the given registerer.
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Collector{
		phaseRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "phase_runs_total",
				Help:      "Phase executions by phase name and status.",
			},
			[]string{"phase", "status"},
		),
		phaseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "phase_duration_seconds",
				Help:      "Phase execution latency.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"phase"},
		),
		sessionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sessions_total",
				Help:      "Session outcomes: done, suspended, or error.",
			},
			[]string{"outcome"},
		),
		logger: logger.With(zap.String("component", "metrics")),
	}

	reg.MustRegister(c.phaseRuns, c.phaseDuration, c.sessionsTotal)
	return c
}

// HandleEvent implements graph.EventHandler.
func (c *Collector) HandleEvent(ev graph.Event) {
	switch ev.Type {
	case graph.EventPhaseEnd:
		c.phaseRuns.WithLabelValues(ev.Node, "ok").Inc()
		c.phaseDuration.WithLabelValues(ev.Node).Observe(ev.Elapsed.Seconds())
	case graph.EventError:
		if ev.Node != "" {
			c.phaseRuns.WithLabelValues(ev.Node, "error").Inc()
		}
		c.sessionsTotal.WithLabelValues("error").Inc()
	case graph.EventSuspended:
		c.sessionsTotal.WithLabelValues("suspended").Inc()
	case graph.EventDone:
		c.sessionsTotal.WithLabelValues("done").Inc()
	}
}
