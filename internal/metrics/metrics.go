// Package metrics holds the bridge's prometheus collectors and the optional
// listener that exposes them.
package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "chatscript_bridge"

// Metrics groups every collector the bridge records. Collectors are
// registered on a private registry so tests can build as many as they need.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    prometheus.Histogram
	BackendRequests *prometheus.CounterVec
	BackendDuration prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "HTTP requests handled, by response status code",
			},
			[]string{"status"},
		),

		HTTPDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Time from request accepted to response written",
				Buckets:   prometheus.DefBuckets,
			},
		),

		BackendRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "backend",
				Name:      "requests_total",
				Help:      "ChatScript exchanges, by outcome (ok, error)",
			},
			[]string{"outcome"},
		),

		BackendDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "backend",
				Name:      "duration_seconds",
				Help:      "ChatScript exchange duration including connect",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}

	m.registry.MustRegister(
		m.HTTPRequests,
		m.HTTPDuration,
		m.BackendRequests,
		m.BackendDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// ObserveRequest records one completed HTTP request.
func (m *Metrics) ObserveRequest(status int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(strconv.Itoa(status)).Inc()
	m.HTTPDuration.Observe(elapsed.Seconds())
}

// ObserveBackend records one ChatScript exchange.
func (m *Metrics) ObserveBackend(err error, elapsed time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.BackendRequests.WithLabelValues(outcome).Inc()
	m.BackendDuration.Observe(elapsed.Seconds())
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// NewServer builds the metrics listener on :port. It is kept apart from the
// gateway so the gateway's routes stay limited to POST /chat.
func NewServer(port string, m *Metrics) *http.Server {
	r := chi.NewRouter()
	r.Handle("/metrics", m.Handler())

	return &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
