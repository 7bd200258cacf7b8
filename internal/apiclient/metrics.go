package apiclient

import (
	"regexp"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsConfig names the client metrics
type MetricsConfig struct {
	Namespace        string
	Subsystem        string
	HistogramBuckets []float64
}

// DefaultMetricsConfig returns the default metric naming
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace:        "frontdesk",
		Subsystem:        "api",
		HistogramBuckets: prometheus.DefBuckets,
	}
}

// Metrics holds the gateway client's request metrics in a private registry
type Metrics struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers the client metrics
func NewMetrics(cfg MetricsConfig) *Metrics {
	if len(cfg.HistogramBuckets) == 0 {
		cfg.HistogramBuckets = prometheus.DefBuckets
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "requests_total",
				Help:      "Total number of backend API requests.",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "request_duration_seconds",
				Help:      "Duration of backend API requests in seconds.",
				Buckets:   cfg.HistogramBuckets,
			},
			[]string{"route"},
		),
	}
	m.registry.MustRegister(m.requestsTotal, m.requestDuration)
	return m
}

// Registry returns the registry holding the client metrics
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RequestsTotal exposes the request counter
func (m *Metrics) RequestsTotal() *prometheus.CounterVec {
	return m.requestsTotal
}

func (m *Metrics) observe(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, route, status).Inc()
	m.requestDuration.WithLabelValues(route).Observe(d.Seconds())
}

var (
	uuidSegment     = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	objectIDSegment = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)
	numericSegment  = regexp.MustCompile(`^[0-9]+$`)
)

// RouteTemplate replaces id-like path segments with ":id" so metric labels
// stay low-cardinality: /wallet/64b0.../balance -> /wallet/:id/balance
func RouteTemplate(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i, p := range parts {
		if uuidSegment.MatchString(p) || objectIDSegment.MatchString(p) || numericSegment.MatchString(p) {
			parts[i] = ":id"
		}
	}
	return "/" + strings.Join(parts, "/")
}
