package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "instrument_catalog"

// Metrics is a prometheus.Collector for the catalog's HTTP surface, outbound
// image probes, rate limiting and validation. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	httpRequests       *prometheus.CounterVec
	httpLatency        *prometheus.HistogramVec
	httpInflight       prometheus.Gauge
	imageChecks        *prometheus.CounterVec
	imageCheckLatency  prometheus.Histogram
	rateLimitRejected  *prometheus.CounterVec
	validationFailures *prometheus.CounterVec
	instrumentWrites   *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by method, route and status.",
			}, []string{"method", "route", "status"},
		),
		httpLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"method", "route"},
		),
		httpInflight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "http_requests_inflight",
				Help:      "HTTP requests currently being served.",
			},
		),
		imageChecks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "image_checks_total",
				Help:      "Image URL probes by outcome.",
			}, []string{"outcome"},
		),
		imageCheckLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "image_check_duration_seconds",
				Help:      "Time spent probing image URLs.",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
		),
		rateLimitRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "rate_limit_rejections_total",
				Help:      "API requests rejected by the rate limiter, by rule.",
			}, []string{"rule"},
		),
		validationFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "validation_failures_total",
				Help:      "Instrument payloads rejected by validation, by mode.",
			}, []string{"mode"},
		),
		instrumentWrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "instrument_writes_total",
				Help:      "Committed instrument mutations by operation.",
			}, []string{"op"},
		),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.httpRequests,
		m.httpLatency,
		m.httpInflight,
		m.imageChecks,
		m.imageCheckLatency,
		m.rateLimitRejected,
		m.validationFailures,
		m.instrumentWrites,
	}
}

// Describe is part of the prometheus.Collector interface.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.collectors() {
		c.Describe(ch)
	}
}

// Collect is part of the prometheus.Collector interface.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.collectors() {
		c.Collect(ch)
	}
}

func (m *Metrics) ApiInflightInc() {
	if m != nil {
		m.httpInflight.Inc()
	}
}

func (m *Metrics) ApiInflightDec() {
	if m != nil {
		m.httpInflight.Dec()
	}
}

func (m *Metrics) ObserveAPI(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpLatency.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) ObserveImageCheck(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.imageChecks.WithLabelValues(outcome).Inc()
	m.imageCheckLatency.Observe(d.Seconds())
}

func (m *Metrics) IncRateLimited(rule string) {
	if m != nil {
		m.rateLimitRejected.WithLabelValues(rule).Inc()
	}
}

func (m *Metrics) IncValidationFailure(mode string) {
	if m != nil {
		m.validationFailures.WithLabelValues(mode).Inc()
	}
}

func (m *Metrics) IncInstrumentWrite(op string) {
	if m != nil {
		m.instrumentWrites.WithLabelValues(op).Inc()
	}
}
