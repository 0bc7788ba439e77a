// Package observability provides Prometheus metrics and OpenTelemetry tracing.
package observability

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Parse metrics
	RowsParsed    *prometheus.CounterVec
	RowsSkipped   *prometheus.CounterVec
	TradesParsed  *prometheus.CounterVec
	ParseFailures prometheus.Counter

	// Pipeline metrics
	StageDuration    *prometheus.HistogramVec
	ReportsGenerated prometheus.Counter
	ReportsStored    *prometheus.CounterVec
	SimulationRuns   prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec

	// Health metrics
	LastSuccessfulReport prometheus.Gauge
}

// NewMetrics creates a new Metrics instance registered with reg.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "trade_report_lab"
	}
	factory := promauto.With(reg)

	return &Metrics{
		// Parse metrics
		RowsParsed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "parser",
			Name:      "rows_parsed_total",
			Help:      "Total number of rows turned into trades by platform",
		}, []string{"platform"}),
		RowsSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "parser",
			Name:      "rows_skipped_total",
			Help:      "Total number of unmappable rows by platform",
		}, []string{"platform"}),
		TradesParsed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "parser",
			Name:      "trades_total",
			Help:      "Total number of normalized trades by platform and kind",
		}, []string{"platform", "kind"}),
		ParseFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "parser",
			Name:      "failures_total",
			Help:      "Total number of files with no recognizable trade table",
		}),

		// Pipeline metrics
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Analysis stage duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}, []string{"stage"}),
		ReportsGenerated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "reports_generated_total",
			Help:      "Total number of reports generated",
		}),
		ReportsStored: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "reports_stored_total",
			Help:      "Total number of reports persisted by store",
		}, []string{"store"}),
		SimulationRuns: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "runs_total",
			Help:      "Total number of Monte Carlo paths simulated",
		}),

		// Database metrics
		DBQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// HTTP metrics
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by route and status",
		}, []string{"method", "route", "status"}),

		// Health metrics
		LastSuccessfulReport: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_report_timestamp",
			Help:      "Unix timestamp of last successful report",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("", prometheus.DefaultRegisterer)

// RecordParse records the outcome of parsing one file.
func (m *Metrics) RecordParse(platform string, rows, skipped int) {
	m.RowsParsed.WithLabelValues(platform).Add(float64(rows))
	m.RowsSkipped.WithLabelValues(platform).Add(float64(skipped))
}

// RecordTrade increments the trade counter for one normalized row.
func (m *Metrics) RecordTrade(platform, kind string) {
	m.TradesParsed.WithLabelValues(platform, kind).Inc()
}

// RecordParseFailure increments the unparseable file counter.
func (m *Metrics) RecordParseFailure() {
	m.ParseFailures.Inc()
}

// RecordStage records how long one analysis stage took.
func (m *Metrics) RecordStage(stage string, seconds float64) {
	m.StageDuration.WithLabelValues(stage).Observe(seconds)
}

// RecordReport records a generated report.
func (m *Metrics) RecordReport(unixSeconds int64) {
	m.ReportsGenerated.Inc()
	m.LastSuccessfulReport.Set(float64(unixSeconds))
}

// RecordStored records a report persisted to store.
func (m *Metrics) RecordStored(store string) {
	m.ReportsStored.WithLabelValues(store).Inc()
}

// RecordSimulation adds simulated paths.
func (m *Metrics) RecordSimulation(runs int) {
	m.SimulationRuns.Add(float64(runs))
}

// RecordDBQuery records database query metrics.
func (m *Metrics) RecordDBQuery(database, operation string, seconds float64, err error) {
	m.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		m.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// RecordHTTPRequest counts one served request.
func (m *Metrics) RecordHTTPRequest(method, route string, status int) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// RecordDBQuery records database query metrics on DefaultMetrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.RecordDBQuery(database, operation, seconds, err)
}
