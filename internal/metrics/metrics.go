// Package metrics holds the prometheus collectors exported on /metrics.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fundtrack"

type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	registrations   *prometheus.CounterVec
	projectsCreated prometheus.Counter
	treeReplaced    prometheus.Counter
	spendingUpdates *prometheus.CounterVec
	reminders       prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "user_registrations_total",
			Help:      "Users created, by sign-up method.",
		}, []string{"method"}),
		projectsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "projects_created_total",
			Help:      "Projects created.",
		}),
		treeReplaced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "budget_tree_replacements_total",
			Help:      "Project budget trees rewritten by an update.",
		}),
		spendingUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "spending_updates_total",
			Help:      "Spending updates, labelled by whether a record was appended.",
		}, []string{"recorded"}),
		reminders: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deadline_reminders_total",
			Help:      "Project deadline reminders sent.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.requestDuration,
		m.registrations,
		m.projectsCreated,
		m.treeReplaced,
		m.spendingUpdates,
		m.reminders,
	)

	return m
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records one observation per request, labelled with the route
// pattern rather than the raw path to keep cardinality bounded.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if m == nil {
			ctx.Next()
			return
		}

		start := time.Now()
		ctx.Next()

		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := ctx.Request.Method

		m.requests.WithLabelValues(method, route, strconv.Itoa(ctx.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) UserRegistered(method string) {
	if m == nil {
		return
	}
	m.registrations.WithLabelValues(method).Inc()
}

func (m *Metrics) ProjectCreated() {
	if m == nil {
		return
	}
	m.projectsCreated.Inc()
}

func (m *Metrics) BudgetTreeReplaced() {
	if m == nil {
		return
	}
	m.treeReplaced.Inc()
}

func (m *Metrics) SpendingUpdated(recorded bool) {
	if m == nil {
		return
	}
	m.spendingUpdates.WithLabelValues(strconv.FormatBool(recorded)).Inc()
}

func (m *Metrics) DeadlineReminded() {
	if m == nil {
		return
	}
	m.reminders.Inc()
}
