package metrics

import (
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ClientMetrics observes the request pipeline. It owns its registry.
type ClientMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	refreshTotal    *prometheus.CounterVec
}

func NewClientMetrics(service string) *ClientMetrics {
	registry := prometheus.NewRegistry()
	constLabels := prometheus.Labels{"service": service}

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "resumind",
			Subsystem:   "client",
			Name:        "requests_total",
			Help:        "Total API requests dispatched by the client.",
			ConstLabels: constLabels,
		},
		[]string{"method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   "resumind",
			Subsystem:   "client",
			Name:        "request_duration_seconds",
			Help:        "API request duration in seconds.",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: constLabels,
		},
		[]string{"method", "path"},
	)
	refreshTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "resumind",
			Subsystem:   "client",
			Name:        "token_refresh_total",
			Help:        "Access token refresh attempts by outcome.",
			ConstLabels: constLabels,
		},
		[]string{"outcome"},
	)

	registry.MustRegister(requestTotal, requestDuration, refreshTotal)

	return &ClientMetrics{
		registry:        registry,
		requestTotal:    requestTotal,
		requestDuration: requestDuration,
		refreshTotal:    refreshTotal,
	}
}

func (m *ClientMetrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

func (m *ClientMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *ClientMetrics) RecordRequest(method, path, status string, duration time.Duration) {
	path = normalizePath(path)
	if status == "" {
		status = "unknown"
	}
	m.requestTotal.WithLabelValues(method, path, status).Inc()
	m.requestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func (m *ClientMetrics) RecordTokenRefresh(outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}
	m.refreshTotal.WithLabelValues(outcome).Inc()
}

func normalizePath(path string) string {
	path, _, _ = strings.Cut(path, "?")
	switch {
	case strings.HasPrefix(path, "/media/"):
		return "/media/{file}"
	default:
		return path
	}
}
