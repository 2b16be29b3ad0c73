// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Auth metrics
	AuthEventsTotal *prometheus.CounterVec

	// Notification metrics
	MailTotal *prometheus.CounterVec

	// Business metrics
	IssuesCreatedTotal  prometheus.Counter
	IssuesResolvedTotal prometheus.Counter
}

// New creates the collectors and registers them on registry.
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "issuedesk_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "issuedesk_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		AuthEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "issuedesk_auth_events_total",
				Help: "Authentication events by kind and outcome",
			},
			[]string{"event", "outcome"},
		),
		MailTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "issuedesk_mail_total",
				Help: "Outgoing emails by kind and status",
			},
			[]string{"kind", "status"},
		),
		IssuesCreatedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "issuedesk_issues_created_total",
				Help: "Total number of reported issues",
			},
		),
		IssuesResolvedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "issuedesk_issues_resolved_total",
				Help: "Total number of resolved issues",
			},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.AuthEventsTotal,
		m.MailTotal,
		m.IssuesCreatedTotal,
		m.IssuesResolvedTotal,
	)

	return m
}

// ObserveHTTP records one finished request. route is the matched route
// pattern, not the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// AuthEvent counts events such as ("login", "success") or ("bypass", "used").
func (m *Metrics) AuthEvent(event, outcome string) {
	if m == nil {
		return
	}
	m.AuthEventsTotal.WithLabelValues(event, outcome).Inc()
}

func (m *Metrics) Mail(kind string, err error) {
	if m == nil {
		return
	}
	status := "sent"
	if err != nil {
		status = "failed"
	}
	m.MailTotal.WithLabelValues(kind, status).Inc()
}

func (m *Metrics) IssueCreated() {
	if m == nil {
		return
	}
	m.IssuesCreatedTotal.Inc()
}

func (m *Metrics) IssueResolved() {
	if m == nil {
		return
	}
	m.IssuesResolvedTotal.Inc()
}

// Handler serves the registry in the Prometheus text format.
func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
