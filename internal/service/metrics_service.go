package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the planner.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	validationRuns  *prometheus.CounterVec
	findingsTotal   *prometheus.CounterVec
	suggestionSize  prometheus.Histogram
	actionsTotal    *prometheus.CounterVec
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

	validationRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "validation_runs_total",
		Help: "Rule evaluation runs by operation and outcome",
	}, []string{"operation", "outcome"})

	findingsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "validation_findings_total",
		Help: "Findings produced by rule runs, by severity",
	}, []string{"severity"})

	suggestionSize := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "suggestion_result_count",
		Help:    "Number of candidates returned per suggestion run",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
	})

	actionsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "staged_actions_total",
		Help: "Staged actions by resolution state",
	}, []string{"state"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, validationRuns, findingsTotal, suggestionSize, actionsTotal, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		validationRuns:  validationRuns,
		findingsTotal:   findingsTotal,
		suggestionSize:  suggestionSize,
		actionsTotal:    actionsTotal,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveValidation records one rule run and its findings.
func (m *MetricsService) ObserveValidation(operation string, valid bool, errors, warnings int) {
	if m == nil {
		return
	}
	outcome := "valid"
	if !valid {
		outcome = "invalid"
	}
	m.validationRuns.WithLabelValues(operation, outcome).Inc()
	m.findingsTotal.WithLabelValues("error").Add(float64(errors))
	m.findingsTotal.WithLabelValues("warning").Add(float64(warnings))
}

// ObserveSuggestionRun records the size of a suggestion result.
func (m *MetricsService) ObserveSuggestionRun(count int) {
	if m == nil {
		return
	}
	m.suggestionSize.Observe(float64(count))
}

// ObserveActionResolution records how a staged action ended.
func (m *MetricsService) ObserveActionResolution(state string) {
	if m == nil {
		return
	}
	m.actionsTotal.WithLabelValues(state).Inc()
}
