package workflow

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects Prometheus metrics for workflow execution.
//
// Exposed metrics (namespace "reportflow"):
//
//   - step_latency_ms (histogram): node execution duration, labeled by
//     node_id and status (success/error).
//   - runs_total (counter): finished runs labeled by outcome
//     (completed, error, canceled, max_steps, no_route).
//   - node_fallbacks_total (counter): degraded node executions labeled by
//     node_id and reason; incremented by nodes, not by the engine.
//   - reflect_iterations (histogram): refinement passes consumed per run.
//
// Register with a custom registry for isolation and expose via promhttp:
//
//	registry := prometheus.NewRegistry()
//	metrics := workflow.NewMetrics(registry)
//	http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
type Metrics struct {
	stepLatency       *prometheus.HistogramVec
	runs              *prometheus.CounterVec
	nodeFallbacks     *prometheus.CounterVec
	reflectIterations prometheus.Histogram
}

// NewMetrics creates and registers all workflow metrics with the given
// registry. A nil registry falls back to the default registerer.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &Metrics{
		stepLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "reportflow",
			Name:      "step_latency_ms",
			Help:      "Node execution duration in milliseconds",
			Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000, 30000},
		}, []string{"node_id", "status"}),
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reportflow",
			Name:      "runs_total",
			Help:      "Finished workflow runs by outcome",
		}, []string{"outcome"}),
		nodeFallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reportflow",
			Name:      "node_fallbacks_total",
			Help:      "Node executions that degraded to their deterministic fallback",
		}, []string{"node_id", "reason"}),
		reflectIterations: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "reportflow",
			Name:      "reflect_iterations",
			Help:      "Refinement passes consumed per completed run",
			Buckets:   []float64{0, 1, 2, 3, 4, 5},
		}),
	}
}

// ObserveStep records one node execution.
func (m *Metrics) ObserveStep(nodeID string, latency time.Duration, status string) {
	if m == nil {
		return
	}
	m.stepLatency.WithLabelValues(nodeID, status).Observe(float64(latency.Milliseconds()))
}

// IncRun records a finished run with its outcome.
func (m *Metrics) IncRun(outcome string) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(outcome).Inc()
}

// IncFallback records a node execution that used its fallback path.
func (m *Metrics) IncFallback(nodeID, reason string) {
	if m == nil {
		return
	}
	m.nodeFallbacks.WithLabelValues(nodeID, reason).Inc()
}

// ObserveIterations records how many refinement passes a run consumed.
func (m *Metrics) ObserveIterations(n int) {
	if m == nil {
		return
	}
	m.reflectIterations.Observe(float64(n))
}
