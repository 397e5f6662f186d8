package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Planning metrics
	PlanDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pipeliner_plan_duration_seconds",
			Help:    "Time taken to plan a graph into a runtime plan",
			Buckets: prometheus.DefBuckets,
		},
	)

	ProxiesInserted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pipeliner_proxies_inserted_total",
			Help: "Total number of alias proxies inserted by the planner",
		},
	)

	FanoutsInserted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pipeliner_fanouts_inserted_total",
			Help: "Total number of fan-out jobs inserted by the planner",
		},
	)

	EndpointsAllocated = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pipeliner_endpoints_allocated",
			Help: "Number of endpoints handed out by the allocator so far",
		},
	)

	// Runtime metrics
	JobsStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeliner_jobs_started_total",
			Help: "Total number of wiring jobs started, by kind",
		},
		[]string{"kind"},
	)

	NodesRunning = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pipeliner_nodes_running",
			Help: "Number of node processes currently running",
		},
	)

	NodeExitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeliner_node_exits_total",
			Help: "Total number of node process exits, by node and outcome",
		},
		[]string{"node", "outcome"},
	)

	EdgeBytesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeliner_edge_bytes_total",
			Help: "Total bytes teed across a declared edge",
		},
		[]string{"edge"},
	)

	LogTeeDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeliner_log_tee_dropped_total",
			Help: "Total number of writes dropped from a log tee because the sink could not keep up",
		},
		[]string{"edge"},
	)

	ShutdownDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pipeliner_shutdown_duration_seconds",
			Help:    "Time taken to drain and tear down a pipeline run",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(
		PlanDuration,
		ProxiesInserted,
		FanoutsInserted,
		EndpointsAllocated,
		JobsStarted,
		NodesRunning,
		NodeExitsTotal,
		EdgeBytesTotal,
		LogTeeDroppedTotal,
		ShutdownDuration,
	)
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
