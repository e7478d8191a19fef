package observability

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests can build as many as they like.
// All methods are safe on a nil receiver.
type Metrics struct {
	registry        *prometheus.Registry
	apiRequests     *prometheus.CounterVec
	apiLatency      *prometheus.HistogramVec
	apiInflight     prometheus.Gauge
	decisionOps     *prometheus.CounterVec
	decisionLatency *prometheus.HistogramVec
	auditFailures   *prometheus.CounterVec
	dispatchTotal   *prometheus.CounterVec
}

func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "accord"
	}
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		apiInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "api_inflight_requests",
			Help:      "HTTP requests currently being served.",
		}),
		decisionOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decision_operations_total",
			Help:      "Decision service operations by outcome.",
		}, []string{"operation", "outcome"}),
		decisionLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "decision_operation_duration_seconds",
			Help:      "Decision service operation latency.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"operation"}),
		auditFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_failures_total",
			Help:      "Audit records that could not be delivered, by sink.",
		}, []string{"sink"}),
		dispatchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_requests_total",
			Help:      "Tagged integration requests by kind and outcome.",
		}, []string{"kind", "outcome"}),
	}
	reg.MustRegister(
		m.apiRequests,
		m.apiLatency,
		m.apiInflight,
		m.decisionOps,
		m.decisionLatency,
		m.auditFailures,
		m.dispatchTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RegisterDBStats exports connection pool stats for db.
func (m *Metrics) RegisterDBStats(db *sql.DB, name string) error {
	if m == nil || db == nil {
		return nil
	}
	return m.registry.Register(collectors.NewDBStatsCollector(db, name))
}

// ObserveHTTP records one served request under its route template.
func (m *Metrics) ObserveHTTP(method, route string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.apiLatency.WithLabelValues(method, route).Observe(dur.Seconds())
}

// TrackInflight bumps the in-flight gauge; call the returned func when the
// request is done.
func (m *Metrics) TrackInflight() func() {
	if m == nil {
		return func() {}
	}
	m.apiInflight.Inc()
	return m.apiInflight.Dec
}

func (m *Metrics) ObserveDecisionOp(operation, outcome string, dur time.Duration) {
	if m == nil {
		return
	}
	m.decisionOps.WithLabelValues(operation, outcome).Inc()
	m.decisionLatency.WithLabelValues(operation).Observe(dur.Seconds())
}

func (m *Metrics) IncAuditFailure(sink string) {
	if m == nil {
		return
	}
	m.auditFailures.WithLabelValues(sink).Inc()
}

func (m *Metrics) IncDispatch(kind, outcome string) {
	if m == nil {
		return
	}
	m.dispatchTotal.WithLabelValues(kind, outcome).Inc()
}
