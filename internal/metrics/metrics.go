// Package metrics holds the Prometheus collectors of the sync engine.
package metrics

import (
	"database/sql"
	"strconv"
	"time"

	"github.com/dataspaces/syncer/internal/biz/execution"
	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var Provider = wire.NewSet(New)

type Metrics struct {
	executions     *prometheus.CounterVec
	records        *prometheus.CounterVec
	runDuration    *prometheus.HistogramVec
	tickDuration   prometheus.Histogram
	tickExecuted   prometheus.Counter
	guardConflicts prometheus.Counter
	staleResets    prometheus.Counter

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// New registers every collector on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		executions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "syncer_executions_total",
			Help: "Finished sync executions by status and trigger",
		}, []string{"status", "trigger"}),
		records: f.NewCounterVec(prometheus.CounterOpts{
			Name: "syncer_records_total",
			Help: "Records handled by sync executions by outcome",
		}, []string{"outcome"}),
		runDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "syncer_execution_duration_seconds",
			Help:    "Wall time of sync executions",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 14),
		}, []string{"status"}),
		tickDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "syncer_tick_duration_seconds",
			Help:    "Wall time of scheduler ticks",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 14),
		}),
		tickExecuted: f.NewCounter(prometheus.CounterOpts{
			Name: "syncer_tick_executed_total",
			Help: "Executions recorded by scheduler ticks",
		}),
		guardConflicts: f.NewCounter(prometheus.CounterOpts{
			Name: "syncer_guard_conflicts_total",
			Help: "Execution attempts rejected because the schedule was already running",
		}),
		staleResets: f.NewCounter(prometheus.CounterOpts{
			Name: "syncer_stale_resets_total",
			Help: "Stale running schedules reset",
		}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		httpRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}

// NewNop returns metrics registered on a private registry.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}

func (m *Metrics) ObserveExecution(exec *execution.SyncExecution) {
	m.executions.WithLabelValues(string(exec.Status), string(exec.TriggeredBy)).Inc()
	m.runDuration.WithLabelValues(string(exec.Status)).Observe(float64(exec.DurationMs) / 1000)

	c := exec.Counters
	m.records.WithLabelValues("fetched").Add(float64(c.Fetched))
	m.records.WithLabelValues("inserted").Add(float64(c.Inserted))
	m.records.WithLabelValues("updated").Add(float64(c.Updated))
	m.records.WithLabelValues("deleted").Add(float64(c.Deleted))
	m.records.WithLabelValues("failed").Add(float64(c.Failed))
}

func (m *Metrics) ObserveTick(d time.Duration, executed int) {
	m.tickDuration.Observe(d.Seconds())
	m.tickExecuted.Add(float64(executed))
}

func (m *Metrics) GuardConflict() {
	m.guardConflicts.Inc()
}

func (m *Metrics) StaleReset(n int) {
	m.staleResets.Add(float64(n))
}

func (m *Metrics) ObserveRequest(method, path string, status int, d time.Duration) {
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

// RegisterDBStats exposes connection pool statistics of db as gauges.
func RegisterDBStats(reg prometheus.Registerer, db *sql.DB) {
	reg.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "syncer_db_open_connections",
			Help: "Number of established connections to the store",
		}, func() float64 {
			return float64(db.Stats().OpenConnections)
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "syncer_db_in_use_connections",
			Help: "Number of store connections currently in use",
		}, func() float64 {
			return float64(db.Stats().InUse)
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "syncer_db_wait_count",
			Help: "Total number of connections waited for",
		}, func() float64 {
			return float64(db.Stats().WaitCount)
		}),
	)
}
