package search

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics collects engine metrics for production monitoring.
//
// Metrics exposed (all namespaced with "pathwise_"):
//
//   - searches_inflight (gauge): searches currently executing, sync or async.
//   - frontier_depth (gauge): frontier size sampled at the end of each run.
//   - search_duration_ms (histogram): run duration, labeled by graph_id,
//     mode and status (completed / no_path / aborted / error).
//   - expanded_cells_total (counter): cells expanded, labeled by graph_id.
//   - aborts_total (counter): Abort calls, labeled by graph_id.
//   - pending_disposals (gauge): graph disposals waiting on in-flight handles.
//   - disposal_wait_ms (histogram): time between DisposeGraph and the actual
//     memory release, labeled by graph_id.
//
// All methods are safe on a nil receiver so the engine can call them
// unconditionally.
type PrometheusMetrics struct {
	searchesInflight prometheus.Gauge
	frontierDepth    prometheus.Gauge
	searchDuration   *prometheus.HistogramVec
	expandedCells    *prometheus.CounterVec
	aborts           *prometheus.CounterVec
	pendingDisposals prometheus.Gauge
	disposalWait     *prometheus.HistogramVec
}

// NewPrometheusMetrics creates and registers all engine metrics with the
// provided registry. Pass prometheus.DefaultRegisterer for the global
// registry, or a private prometheus.NewRegistry() for isolation (tests).
func NewPrometheusMetrics(registry prometheus.Registerer) *PrometheusMetrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &PrometheusMetrics{
		searchesInflight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "pathwise",
			Name:      "searches_inflight",
			Help:      "Number of searches currently executing",
		}),
		frontierDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "pathwise",
			Name:      "frontier_depth",
			Help:      "Frontier size sampled at search completion",
		}),
		searchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pathwise",
			Name:      "search_duration_ms",
			Help:      "Search execution duration in milliseconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 50, 100, 500, 1000, 5000},
		}, []string{"graph_id", "mode", "status"}),
		expandedCells: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pathwise",
			Name:      "expanded_cells_total",
			Help:      "Cumulative count of cells expanded by all searches",
		}, []string{"graph_id"}),
		aborts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pathwise",
			Name:      "aborts_total",
			Help:      "Cumulative count of aborted searches",
		}, []string{"graph_id"}),
		pendingDisposals: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "pathwise",
			Name:      "pending_disposals",
			Help:      "Graph disposals waiting on in-flight search handles",
		}),
		disposalWait: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pathwise",
			Name:      "disposal_wait_ms",
			Help:      "Delay between DisposeGraph and the actual memory release",
			Buckets:   []float64{0.1, 1, 10, 100, 1000, 10000, 60000},
		}, []string{"graph_id"}),
	}
}

func (pm *PrometheusMetrics) searchStarted() {
	if pm == nil {
		return
	}
	pm.searchesInflight.Inc()
}

func (pm *PrometheusMetrics) searchFinished(graphID string, mode Mode, status string, dur time.Duration, expanded, frontier int) {
	if pm == nil {
		return
	}
	pm.searchesInflight.Dec()
	pm.frontierDepth.Set(float64(frontier))
	pm.searchDuration.WithLabelValues(graphID, mode.String(), status).
		Observe(float64(dur) / float64(time.Millisecond))
	pm.expandedCells.WithLabelValues(graphID).Add(float64(expanded))
}

func (pm *PrometheusMetrics) searchAborted(graphID string) {
	if pm == nil {
		return
	}
	pm.aborts.WithLabelValues(graphID).Inc()
}

func (pm *PrometheusMetrics) disposalPending() {
	if pm == nil {
		return
	}
	pm.pendingDisposals.Inc()
}

func (pm *PrometheusMetrics) disposalReleased(graphID string, waited time.Duration) {
	if pm == nil {
		return
	}
	pm.pendingDisposals.Dec()
	pm.disposalWait.WithLabelValues(graphID).
		Observe(float64(waited) / float64(time.Millisecond))
}
