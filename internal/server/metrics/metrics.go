// Package metrics holds the server's Prometheus collectors.
package metrics

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests can create as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	GateOutcomesTotal     *prometheus.CounterVec
	CredentialEventsTotal *prometheus.CounterVec
}

// New creates and registers all collectors, including Go runtime and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskkeeper_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "taskkeeper_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		GateOutcomesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskkeeper_auth_gate_outcomes_total",
				Help: "Authentication gate decisions by outcome",
			},
			[]string{"outcome"},
		),
		CredentialEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskkeeper_credential_events_total",
				Help: "Signup, login and logout attempts by outcome",
			},
			[]string{"event", "outcome"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.GateOutcomesTotal,
		m.CredentialEventsTotal,
	)

	return m
}

// RegisterDB exports connection pool statistics of db under dbName.
func (m *Metrics) RegisterDB(db *sql.DB, dbName string) error {
	return m.registry.Register(collectors.NewDBStatsCollector(db, dbName))
}

// CredentialEvent counts a signup, login or logout outcome.
func (m *Metrics) CredentialEvent(event, outcome string) {
	m.CredentialEventsTotal.WithLabelValues(event, outcome).Inc()
}

// GateOutcome counts one authentication gate decision.
func (m *Metrics) GateOutcome(outcome string) {
	m.GateOutcomesTotal.WithLabelValues(outcome).Inc()
}

// ObserveHTTP records a finished request. route is the matched route
// template, never the raw path.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
