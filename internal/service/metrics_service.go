package service

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	importCreated   prometheus.Counter
	importSkipped   prometheus.Counter
	invertedWindows prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	importCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "schedule_rows_created_total",
		Help: "Schedule rows created by the import pipeline",
	})

	importSkipped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "schedule_rows_skipped_total",
		Help: "Schedule rows skipped by the import pipeline",
	})

	invertedWindows := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "schedule_rows_inverted_window_total",
		Help: "Imported schedule rows whose open time is not before close time",
	})

	registry.MustRegister(requestDuration, requestTotal, importCreated, importSkipped, invertedWindows)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		importCreated:   importCreated,
		importSkipped:   importSkipped,
		invertedWindows: invertedWindows,
	}
}

// Handler returns the Prometheus scrape handler.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveHTTPRequest records a completed HTTP request.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	labels := []string{method, path, fmt.Sprintf("%d", status)}
	s.requestDuration.WithLabelValues(labels...).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(labels...).Inc()
}

// ObserveImport records the outcome of one import batch.
func (s *MetricsService) ObserveImport(created, skipped int) {
	s.importCreated.Add(float64(created))
	s.importSkipped.Add(float64(skipped))
}

// ObserveInvertedWindow counts a row whose open time is not before its close
// time. The row is still imported; the model does not enforce the ordering.
func (s *MetricsService) ObserveInvertedWindow() {
	s.invertedWindows.Inc()
}
