package metrics

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/BaSui01/deepresearch/graph"
)

var namespaceSeq uint64

func nextTestNamespace() string {
	return fmt.Sprintf("test_%d", atomic.AddUint64(&namespaceSeq, 1))
}

func TestCollector_PhaseEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(nextTestNamespace(), reg, nil)

	c.HandleEvent(graph.Event{Type: graph.EventPhaseEnd, Node: "Search", Elapsed: 120 * time.Millisecond})
	c.HandleEvent(graph.Event{Type: graph.EventPhaseEnd, Node: "Search", Elapsed: 80 * time.Millisecond})
	c.HandleEvent(graph.Event{Type: graph.EventError, Node: "Analyze"})

	assert.Equal(t, 2.0, testutil.ToFloat64(c.phaseRuns.WithLabelValues("Search", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.phaseRuns.WithLabelValues("Analyze", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.sessionsTotal.WithLabelValues("error")))
}

func TestCollector_SessionOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(nextTestNamespace(), reg, nil)

	c.HandleEvent(graph.Event{Type: graph.EventDone})
	c.HandleEvent(graph.Event{Type: graph.EventDone})
	c.HandleEvent(graph.Event{Type: graph.EventSuspended})

	assert.Equal(t, 2.0, testutil.ToFloat64(c.sessionsTotal.WithLabelValues("done")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.sessionsTotal.WithLabelValues("suspended")))
}

func TestCollector_IgnoresPhaseStart(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(nextTestNamespace(), reg, nil)

	c.HandleEvent(graph.Event{Type: graph.EventPhaseStart, Node: "Plan"})

	assert.Equal(t, 0, testutil.CollectAndCount(c.phaseRuns))
}
