package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the counters of a single harvest run. All methods are safe
// to call on a nil receiver so components can run without metrics.
type Metrics struct {
	Registry *prometheus.Registry

	requests    *prometheus.CounterVec
	rateLimited *prometheus.CounterVec
	fetched     *prometheus.CounterVec
	skipped     *prometheus.CounterVec
	rows        *prometheus.GaugeVec
	lastRun     prometheus.Gauge
}

// New creates the metrics on a private registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "priceharvest_http_requests_total",
			Help: "HTTP requests sent to price providers by response status.",
		}, []string{"provider", "status"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "priceharvest_rate_limited_total",
			Help: "Responses with status 429 that triggered a backoff.",
		}, []string{"provider"}),
		fetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "priceharvest_assets_fetched_total",
			Help: "Assets whose series was added to a table.",
		}, []string{"class"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "priceharvest_assets_skipped_total",
			Help: "Assets skipped after a per-asset fetch failure.",
		}, []string{"class"}),
		rows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "priceharvest_table_rows",
			Help: "Rows written per output table.",
		}, []string{"table"}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "priceharvest_last_success_timestamp_seconds",
			Help: "Unix time of the last run that wrote every output.",
		}),
	}
	m.Registry.MustRegister(m.requests, m.rateLimited, m.fetched, m.skipped, m.rows, m.lastRun)
	return m
}

func (m *Metrics) ObserveRequest(provider string, status int) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(provider, strconv.Itoa(status)).Inc()
}

func (m *Metrics) ObserveRateLimited(provider string) {
	if m == nil {
		return
	}
	m.rateLimited.WithLabelValues(provider).Inc()
}

func (m *Metrics) ObserveFetched(class string) {
	if m == nil {
		return
	}
	m.fetched.WithLabelValues(class).Inc()
}

func (m *Metrics) ObserveSkipped(class string) {
	if m == nil {
		return
	}
	m.skipped.WithLabelValues(class).Inc()
}

func (m *Metrics) SetRows(table string, n int) {
	if m == nil {
		return
	}
	m.rows.WithLabelValues(table).Set(float64(n))
}

func (m *Metrics) MarkSuccess(unix int64) {
	if m == nil {
		return
	}
	m.lastRun.Set(float64(unix))
}

// WriteTextfile dumps the registry in the text exposition format, for
// node_exporter's textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
