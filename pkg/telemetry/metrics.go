package telemetry

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics for score directors, supply caches and lookups.
// A Metrics built with metrics disabled, or a nil *Metrics, records nothing.
type Metrics struct {
	config MetricsConfig

	// Score metrics
	scoreCalculations   prometheus.Counter
	scoreCalculationDur prometheus.Histogram

	// Notification metrics
	notifications *prometheus.CounterVec
	usageErrors   *prometheus.CounterVec

	// Lookup metrics
	lookups *prometheus.CounterVec

	// Supply metrics
	supplyDemands  *prometheus.CounterVec
	supplyCancels  prometheus.Counter
	activeSupplies prometheus.Gauge

	// Director metrics
	activeDirectors prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		// Return a no-op metrics instance
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	buckets := cfg.DefaultHistogramBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		scoreCalculations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "score_calculations_total",
				Help:      "Total number of score calculations",
			},
		),
		scoreCalculationDur: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "score_calculation_duration_seconds",
				Help:      "Duration of score calculations in seconds",
				Buckets:   buckets,
			},
		),

		notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_total",
				Help:      "Total number of before/after notifications by kind",
			},
			[]string{"kind"},
		),
		usageErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "usage_errors_total",
				Help:      "Total number of usage errors by error code",
			},
			[]string{"code"},
		),

		lookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "lookups_total",
				Help:      "Total number of working object lookups by strategy and outcome",
			},
			[]string{"strategy", "outcome"},
		),

		supplyDemands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "supply_demands_total",
				Help:      "Total number of supply demands by outcome (created, shared)",
			},
			[]string{"outcome"},
		),
		supplyCancels: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "supply_cancels_total",
				Help:      "Total number of successful supply cancels",
			},
		),
		activeSupplies: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_supplies",
				Help:      "Current number of cached supplies",
			},
		),

		activeDirectors: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_score_directors",
				Help:      "Current number of open score directors",
			},
		),
	}

	registry.MustRegister(
		m.scoreCalculations,
		m.scoreCalculationDur,
		m.notifications,
		m.usageErrors,
		m.lookups,
		m.supplyDemands,
		m.supplyCancels,
		m.activeSupplies,
		m.activeDirectors,
	)

	return m, nil
}

func (m *Metrics) enabled() bool {
	return m != nil && m.registry != nil
}

// Score Metrics

// RecordScoreCalculation records one score calculation and its duration.
func (m *Metrics) RecordScoreCalculation(duration time.Duration) {
	if !m.enabled() {
		return
	}
	m.scoreCalculations.Inc()
	m.scoreCalculationDur.Observe(duration.Seconds())
}

// Notification Metrics

// RecordNotification records a before/after notification of the given kind.
func (m *Metrics) RecordNotification(kind string) {
	if !m.enabled() {
		return
	}
	m.notifications.WithLabelValues(kind).Inc()
}

// RecordUsageError records a usage error by code.
func (m *Metrics) RecordUsageError(code string) {
	if !m.enabled() {
		return
	}
	if code == "" {
		code = "unknown"
	}
	m.usageErrors.WithLabelValues(code).Inc()
}

// Lookup Metrics

// RecordLookup records a lookup outcome. It satisfies lookup.Observer.
func (m *Metrics) RecordLookup(strategy, outcome string) {
	if !m.enabled() {
		return
	}
	m.lookups.WithLabelValues(strategy, outcome).Inc()
}

// Supply Metrics

// RecordSupplyDemand records a demand. created is false when an existing supply was shared.
func (m *Metrics) RecordSupplyDemand(created bool) {
	if !m.enabled() {
		return
	}
	outcome := "shared"
	if created {
		outcome = "created"
		m.activeSupplies.Inc()
	}
	m.supplyDemands.WithLabelValues(outcome).Inc()
}

// RecordSupplyCancel records a cancel. destroyed is true when the supply left the cache.
func (m *Metrics) RecordSupplyCancel(destroyed bool) {
	if !m.enabled() {
		return
	}
	m.supplyCancels.Inc()
	if destroyed {
		m.activeSupplies.Dec()
	}
}

// RecordSuppliesDestroyed lowers the active supplies gauge by n.
func (m *Metrics) RecordSuppliesDestroyed(n int) {
	if !m.enabled() {
		return
	}
	m.activeSupplies.Sub(float64(n))
}

// Director Metrics

// RecordDirectorOpened increments the open score directors gauge.
func (m *Metrics) RecordDirectorOpened() {
	if !m.enabled() {
		return
	}
	m.activeDirectors.Inc()
}

// RecordDirectorClosed decrements the open score directors gauge.
func (m *Metrics) RecordDirectorClosed() {
	if !m.enabled() {
		return
	}
	m.activeDirectors.Dec()
}

// Registry returns the private registry, or nil when metrics are disabled.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Timer provides a convenient way to time operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer was created.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if !m.enabled() {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// StartMetricsServer starts an HTTP server to expose metrics.
// The returned server is nil when metrics are disabled.
func (m *Metrics) StartMetricsServer() (*http.Server, error) {
	if !m.enabled() {
		return nil, nil
	}

	mux := http.NewServeMux()
	mux.Handle(m.config.Path, m.Handler())

	server := &http.Server{
		Addr:              m.config.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			// Log error but don't fail the application
			fmt.Printf("metrics server error: %v\n", err)
		}
	}()

	return server, nil
}
