// Package metrics holds the web tier's Prometheus collectors.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/forum-platform/services/web/internal/interaction"
)

type Metrics struct {
	reg *prometheus.Registry

	toggles     *prometheus.CounterVec
	staleDrops  prometheus.Counter
	refreshes   prometheus.Counter
	treeNodes   prometheus.Histogram
	treeRoots   prometheus.Histogram
	requests    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
}

// New registers every collector on a fresh registry, plus the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		toggles: f.NewCounterVec(prometheus.CounterOpts{
			Name: "forum_web_interaction_toggles_total",
			Help: "Interaction toggles by intent and outcome",
		}, []string{"intent", "outcome"}),
		staleDrops: f.NewCounter(prometheus.CounterOpts{
			Name: "forum_web_interaction_stale_dropped_total",
			Help: "Interaction responses dropped because the entry was superseded",
		}),
		refreshes: f.NewCounter(prometheus.CounterOpts{
			Name: "forum_web_refresh_triggers_total",
			Help: "Refresh signals seen by this process",
		}),
		treeNodes: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "forum_web_thread_tree_nodes",
			Help:    "Comments per assembled thread view",
			Buckets: []float64{0, 1, 10, 50, 100, 500, 1000, 5000},
		}),
		treeRoots: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "forum_web_thread_tree_roots",
			Help:    "Top-level comments per assembled thread view",
			Buckets: []float64{0, 1, 5, 20, 100, 500},
		}),
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "forum_web_http_requests_total",
			Help: "HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "forum_web_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

func (m *Metrics) Toggled(intent interaction.Intent, outcome string) {
	m.toggles.WithLabelValues(intent.String(), outcome).Inc()
}

func (m *Metrics) StaleDropped() { m.staleDrops.Inc() }

// Middleware records request counts and latency labelled by chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.latency.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) TreeBuilt(nodes, roots int) {
	m.treeNodes.Observe(float64(nodes))
	m.treeRoots.Observe(float64(roots))
}

// CountRefreshes increments the refresh counter for every version watch
// delivers until ctx is done.
func (m *Metrics) CountRefreshes(ctx context.Context, watch func(context.Context, func(uint64)) error) error {
	return watch(ctx, func(uint64) { m.refreshes.Inc() })
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.reg }
