// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the service collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	schedulerRuns   *prometheus.CounterVec
	spawned         prometheus.Counter
	spawnFailures   prometheus.Counter
	deliveries      *prometheus.CounterVec
}

// New creates the collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "homebase",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "homebase",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		schedulerRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "homebase",
			Name:      "scheduler_runs_total",
			Help:      "Recurring-expense scheduler passes by outcome.",
		}, []string{"outcome"}),
		spawned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "homebase",
			Name:      "recurring_expenses_spawned_total",
			Help:      "Expense instances created from recurring templates.",
		}),
		spawnFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "homebase",
			Name:      "recurring_expense_failures_total",
			Help:      "Recurring templates that failed to regenerate.",
		}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "homebase",
			Name:      "notification_deliveries_total",
			Help:      "Notification deliveries by channel and result.",
		}, []string{"channel", "result"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.requestDuration, m.schedulerRuns, m.spawned, m.spawnFailures, m.deliveries,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveRequest(route, method, status string, seconds float64) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, status).Inc()
	m.requestDuration.WithLabelValues(route, method).Observe(seconds)
}

// SchedulerRun records one scheduler pass.
func (m *Metrics) SchedulerRun(spawned, failed int, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	} else if failed > 0 {
		outcome = "partial"
	}
	m.schedulerRuns.WithLabelValues(outcome).Inc()
	m.spawned.Add(float64(spawned))
	m.spawnFailures.Add(float64(failed))
}

// Delivery records a notification delivery attempt. channel is "inapp" or "push".
func (m *Metrics) Delivery(channel string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.deliveries.WithLabelValues(channel, result).Inc()
}
