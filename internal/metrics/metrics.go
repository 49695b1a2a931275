// Package metrics holds the Prometheus collectors for the preview client and
// the descriptor backend. All methods are nil-safe so components can run
// without metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "gophview"

// Preview reports preview outcomes on the client.
type Preview struct {
	duration *prometheus.HistogramVec
	outcomes *prometheus.CounterVec
	active   prometheus.Gauge
}

// MustNewPreview registers the preview collectors with reg, or with the
// default registerer when reg is nil. It panics on duplicate registration.
func MustNewPreview(reg prometheus.Registerer) *Preview {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Preview{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "preview",
			Name:      "settle_duration_seconds",
			Help:      "Time from opening a preview to a terminal state.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20},
		}, []string{"strategy", "outcome"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "preview",
			Name:      "outcomes_total",
			Help:      "Terminal preview outcomes by strategy.",
		}, []string{"strategy", "outcome"}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "preview",
			Name:      "engines_active",
			Help:      "Preview engines currently holding resources.",
		}),
	}
	reg.MustRegister(m.duration, m.outcomes, m.active)
	return m
}

// ObserveOutcome records a terminal outcome such as "ready", "ready_timeout"
// or "error".
func (m *Preview) ObserveOutcome(strategy, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(strategy, outcome).Inc()
	m.duration.WithLabelValues(strategy, outcome).Observe(elapsed.Seconds())
}

// EngineStarted marks an engine as holding resources.
func (m *Preview) EngineStarted() {
	if m == nil {
		return
	}
	m.active.Inc()
}

// EngineReleased marks an engine's resources as released.
func (m *Preview) EngineReleased() {
	if m == nil {
		return
	}
	m.active.Dec()
}

// HTTP reports backend request handling.
type HTTP struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	issued   *prometheus.CounterVec
}

// MustNewHTTP registers the backend collectors with reg, or with the default
// registerer when reg is nil.
func MustNewHTTP(reg prometheus.Registerer) *HTTP {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &HTTP{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		issued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "descriptors_issued_total",
			Help:      "Preview descriptors issued by strategy hint.",
		}, []string{"hint"}),
	}
	reg.MustRegister(m.requests, m.latency, m.issued)
	return m
}

// ObserveRequest records one handled request.
func (m *HTTP) ObserveRequest(route, code string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, code).Inc()
	m.latency.WithLabelValues(route).Observe(elapsed.Seconds())
}

// DescriptorIssued counts an issued descriptor.
func (m *HTTP) DescriptorIssued(hint string) {
	if m == nil {
		return
	}
	m.issued.WithLabelValues(hint).Inc()
}
