package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RowsInserted counts committed click rows by target table.
	RowsInserted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clickseed_rows_inserted_total",
		Help: "Total number of click rows inserted and committed",
	}, []string{"table"})

	// InsertErrors counts failed inserts by target table.
	InsertErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clickseed_insert_errors_total",
		Help: "Total number of click inserts that failed",
	}, []string{"table"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "clickseed_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// PublishErrors counts clicks that could not be published to the live feed.
	PublishErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clickseed_publish_errors_total",
		Help: "Total number of click publish failures",
	})

	// RedisErrors counts Redis errors by command.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clickseed_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// SeedProgress is the fraction of the current run's target rows committed.
	SeedProgress = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "clickseed_run_progress_ratio",
		Help: "Fraction of target rows committed in the current run",
	})
)

// DatabaseMetrics records query latency for one table.
type DatabaseMetrics struct {
	table string
}

// NewDatabaseMetrics returns a new DatabaseMetrics instance.
func NewDatabaseMetrics(table string) *DatabaseMetrics {
	return &DatabaseMetrics{table: table}
}

// ObserveQuery records the latency of a database query.
func (m *DatabaseMetrics) ObserveQuery(operation string, start time.Time) {
	DatabaseQueryLatency.WithLabelValues(operation, m.table).Observe(time.Since(start).Seconds())
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func (m *DatabaseMetrics) TrackQuery(operation string) func() {
	start := time.Now()
	return func() {
		m.ObserveQuery(operation, start)
	}
}

// RecordInsert counts an insert outcome.
func (m *DatabaseMetrics) RecordInsert(err error) {
	if err != nil {
		InsertErrors.WithLabelValues(m.table).Inc()
		return
	}
	RowsInserted.WithLabelValues(m.table).Inc()
}

// SetProgress publishes done/target as the run progress ratio.
func SetProgress(done, target int) {
	if target <= 0 {
		SeedProgress.Set(0)
		return
	}
	SeedProgress.Set(float64(done) / float64(target))
}
