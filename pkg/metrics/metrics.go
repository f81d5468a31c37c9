package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Report metrics
	ReportsTotal      *prometheus.CounterVec
	ReportDuration    *prometheus.HistogramVec
	ReportsInProgress prometheus.Gauge
	RecordsProcessed  *prometheus.CounterVec
	PivotRowsRendered *prometheus.HistogramVec

	// Config metrics
	ConfigIssues    *prometheus.CounterVec
	InvalidFormulas prometheus.Counter
	ConfigCache     *prometheus.CounterVec

	// Export metrics
	ExportsTotal *prometheus.CounterVec

	// External API metrics
	ExternalAPICalls    *prometheus.CounterVec
	ExternalAPIDuration *prometheus.HistogramVec
	ExternalAPIFailures *prometheus.CounterVec
}

// registers all instruments on the default registry
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// registers all instruments on reg; tests pass a fresh prometheus.NewRegistry()
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		HTTPRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
		),

		ReportsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adintel_reports_total",
				Help: "Total number of reports built",
			},
			[]string{"kind", "status"},
		),

		ReportDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "adintel_report_duration_seconds",
				Help:    "Report build duration in seconds, upstream fetch included",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"kind"},
		),

		ReportsInProgress: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "adintel_reports_in_progress",
				Help: "Number of reports currently being built",
			},
		),

		RecordsProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adintel_records_processed_total",
				Help: "Total number of ad rows normalized",
			},
			[]string{"source", "platform"},
		),

		PivotRowsRendered: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "adintel_pivot_rows_rendered",
				Help:    "Rows rendered per pivot, subtotals and grand total included",
				Buckets: []float64{1, 10, 50, 100, 500, 1000, 5000},
			},
			[]string{"kind"},
		),

		ConfigIssues: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adintel_config_issues_total",
				Help: "Persisted config entries dropped or defaulted during validation",
			},
			[]string{"kind"},
		),

		InvalidFormulas: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "adintel_invalid_formulas_total",
				Help: "Formulas that failed to compile and evaluate to 0",
			},
		),

		ConfigCache: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adintel_config_cache_total",
				Help: "Config cache lookups by result",
			},
			[]string{"result"},
		),

		ExportsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adintel_exports_total",
				Help: "Total number of pivot exports",
			},
			[]string{"format", "status"},
		),

		ExternalAPICalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "external_api_calls_total",
				Help: "Total number of external API calls",
			},
			[]string{"api", "status"},
		),

		ExternalAPIDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "external_api_duration_seconds",
				Help:    "External API call duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"api"},
		),

		ExternalAPIFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "external_api_failures_total",
				Help: "Total number of external API failures",
			},
			[]string{"api", "error_type"},
		),
	}
}

// HTTP request metrics
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// report build metrics
func (m *Metrics) RecordReport(kind, status string, duration time.Duration) {
	m.ReportsTotal.WithLabelValues(kind, status).Inc()
	m.ReportDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

func (m *Metrics) RecordRecords(source, platform string, count int) {
	m.RecordsProcessed.WithLabelValues(source, platform).Add(float64(count))
}

func (m *Metrics) RecordPivotRows(kind string, rows int) {
	m.PivotRowsRendered.WithLabelValues(kind).Observe(float64(rows))
}

// config validation metrics
func (m *Metrics) RecordConfigIssues(kind string, count int) {
	if count > 0 {
		m.ConfigIssues.WithLabelValues(kind).Add(float64(count))
	}
}

func (m *Metrics) RecordInvalidFormula() {
	m.InvalidFormulas.Inc()
}

func (m *Metrics) RecordConfigCache(hit bool) {
	if hit {
		m.ConfigCache.WithLabelValues("hit").Inc()
		return
	}
	m.ConfigCache.WithLabelValues("miss").Inc()
}

func (m *Metrics) RecordExport(format, status string) {
	m.ExportsTotal.WithLabelValues(format, status).Inc()
}

// External API call metrics
func (m *Metrics) RecordExternalAPICall(api, status string, duration time.Duration) {
	m.ExternalAPICalls.WithLabelValues(api, status).Inc()
	m.ExternalAPIDuration.WithLabelValues(api).Observe(duration.Seconds())
}

// External API failure metrics
func (m *Metrics) RecordExternalAPIFailure(api, errorType string) {
	m.ExternalAPIFailures.WithLabelValues(api, errorType).Inc()
}

func (m *Metrics) IncReportsInProgress() {
	m.ReportsInProgress.Inc()
}

func (m *Metrics) DecReportsInProgress() {
	m.ReportsInProgress.Dec()
}

// HTTP requests in flight counter
func (m *Metrics) IncHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Inc()
}

func (m *Metrics) DecHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Dec()
}
