// Package metrics exposes Prometheus metrics for the session engine.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contains the engine's Prometheus metrics.
type Metrics struct {
	RequestsTotal             *prometheus.CounterVec
	CollaboratorFailuresTotal *prometheus.CounterVec
	StageDuration             *prometheus.HistogramVec
	TurnsAdvancedTotal        prometheus.Counter
	SessionsEndedTotal        prometheus.Counter
	ActiveSessions            prometheus.Gauge

	registry *prometheus.Registry
}

// New creates the metrics on their own registry, alongside the standard Go
// and process collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return NewWithRegistry(registry)
}

// NewWithRegistry creates the metrics and registers them with registry.
func NewWithRegistry(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storycrew_requests_total",
				Help: "Total number of player requests by intent category",
			},
			[]string{"category"},
		),
		CollaboratorFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storycrew_collaborator_failures_total",
				Help: "Total number of collaborator failures by capability",
			},
			[]string{"capability"},
		),
		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "storycrew_stage_duration_seconds",
				Help:    "Collaborator stage latency by capability",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"capability"},
		),
		TurnsAdvancedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storycrew_turns_advanced_total",
			Help: "Total number of turns advanced across sessions",
		}),
		SessionsEndedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storycrew_sessions_ended_total",
			Help: "Total number of sessions that reached their final turn",
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "storycrew_active_sessions",
			Help: "Number of sessions held in memory",
		}),
		registry: registry,
	}

	registry.MustRegister(
		m.RequestsTotal,
		m.CollaboratorFailuresTotal,
		m.StageDuration,
		m.TurnsAdvancedTotal,
		m.SessionsEndedTotal,
		m.ActiveSessions,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RecordRequest(category string) {
	m.RequestsTotal.WithLabelValues(category).Inc()
}

func (m *Metrics) RecordCollaboratorFailure(capability string) {
	m.CollaboratorFailuresTotal.WithLabelValues(capability).Inc()
}

func (m *Metrics) ObserveStage(capability string, d time.Duration) {
	m.StageDuration.WithLabelValues(capability).Observe(d.Seconds())
}

func (m *Metrics) RecordTurnAdvanced() {
	m.TurnsAdvancedTotal.Inc()
}

func (m *Metrics) RecordSessionEnded() {
	m.SessionsEndedTotal.Inc()
}

func (m *Metrics) SetActiveSessions(n int) {
	m.ActiveSessions.Set(float64(n))
}
