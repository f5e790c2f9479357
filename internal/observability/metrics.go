package observability

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	metricsNamespace     = "embedding_api"
	metricsSubsystemHTTP = "http"
	metricsSubsystemAPI  = "api"
)

// Metrics instruments the service with Prometheus. A nil *Metrics is valid
// and records nothing, so callers never have to branch on whether metrics
// are enabled.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal prometheus.Counter
	httpErrorsTotal   prometheus.Counter
	apiTime           *prometheus.HistogramVec
	encodeTime        prometheus.Histogram
}

// NewMetrics creates a registry with process/Go collectors and the service's
// own instruments.
func NewMetrics() *Metrics {
	m := &Metrics{}

	m.registry = prometheus.NewRegistry()
	m.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{
		Namespace: metricsNamespace,
	}))
	m.registry.MustRegister(collectors.NewGoCollector())

	m.httpRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: metricsSubsystemHTTP,
		Name:      "requests_total",
		Help:      "The total number of HTTP requests.",
	})
	m.registry.MustRegister(m.httpRequestsTotal)

	m.httpErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: metricsSubsystemHTTP,
		Name:      "errors_total",
		Help:      "The total number of HTTP responses with a 5xx status.",
	})
	m.registry.MustRegister(m.httpErrorsTotal)

	m.apiTime = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystemAPI,
			Name:      "time_seconds",
			Help:      "Time to execute the API handler.",
		},
		[]string{"handler", "method", "status_code"},
	)
	m.registry.MustRegister(m.apiTime)

	m.encodeTime = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: metricsSubsystemAPI,
		Name:      "encode_time_seconds",
		Help:      "Time spent in the embedding model's encode call.",
	})
	m.registry.MustRegister(m.encodeTime)

	return m
}

// ObserveAPIRequest records one handled request.
func (m *Metrics) ObserveAPIRequest(handler, method, statusCode string, elapsed time.Duration) {
	if m == nil {
		return
	}

	m.httpRequestsTotal.Inc()
	if statusCode != "" && statusCode[0] == '5' {
		m.httpErrorsTotal.Inc()
	}
	m.apiTime.WithLabelValues(handler, method, statusCode).Observe(elapsed.Seconds())
}

// ObserveEncodeDuration records one embedding encode call.
func (m *Metrics) ObserveEncodeDuration(elapsed time.Duration) {
	if m == nil {
		return
	}

	m.encodeTime.Observe(elapsed.Seconds())
}

// Handler returns an HTTP handler exposing the registry, for GET /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog: slogErrorLogger{},
	})
}

// slogErrorLogger adapts slog to promhttp's error logger.
type slogErrorLogger struct{}

func (slogErrorLogger) Println(v ...interface{}) {
	slog.Error("metrics handler error", "error", v)
}
