package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kirillkom/pdf-ocr-pipeline/internal/core/domain"
)

// PipelineMetrics counts pages, documents and background jobs. It satisfies
// the page and document observers of the use cases and the worker pool observer.
type PipelineMetrics struct {
	service  string
	registry *prometheus.Registry

	pagesTotal       *prometheus.CounterVec
	documentsTotal   *prometheus.CounterVec
	documentDuration *prometheus.HistogramVec
	jobsQueued       prometheus.Gauge
	jobsInFlight     prometheus.Gauge
	breakerOpen      *prometheus.GaugeVec
}

func NewPipelineMetrics(service string) *PipelineMetrics {
	registry := prometheus.NewRegistry()

	pagesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ocr",
			Subsystem: "pipeline",
			Name:      "pages_total",
			Help:      "Total extracted pages by the strategy that produced their text.",
		},
		[]string{"service", "source"},
	)
	documentsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ocr",
			Subsystem: "pipeline",
			Name:      "documents_total",
			Help:      "Total processed documents by status.",
		},
		[]string{"service", "status"},
	)
	documentDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ocr",
			Subsystem: "pipeline",
			Name:      "document_duration_seconds",
			Help:      "Document processing duration in seconds by status.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600, 1200},
		},
		[]string{"service", "status"},
	)
	jobsQueued := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   "ocr",
			Subsystem:   "worker",
			Name:        "jobs_queued",
			Help:        "Background jobs waiting for a worker.",
			ConstLabels: prometheus.Labels{"service": service},
		},
	)
	jobsInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   "ocr",
			Subsystem:   "worker",
			Name:        "jobs_in_flight",
			Help:        "Background jobs currently running.",
			ConstLabels: prometheus.Labels{"service": service},
		},
	)
	breakerOpen := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "ocr",
			Subsystem: "resilience",
			Name:      "circuit_open",
			Help:      "1 while the circuit breaker for an operation is not closed.",
		},
		[]string{"service", "operation"},
	)

	registry.MustRegister(pagesTotal, documentsTotal, documentDuration, jobsQueued, jobsInFlight, breakerOpen)

	return &PipelineMetrics{
		service:          service,
		registry:         registry,
		pagesTotal:       pagesTotal,
		documentsTotal:   documentsTotal,
		documentDuration: documentDuration,
		jobsQueued:       jobsQueued,
		jobsInFlight:     jobsInFlight,
		breakerOpen:      breakerOpen,
	}
}

func (m *PipelineMetrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *PipelineMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *PipelineMetrics) ObservePage(source domain.PageSource) {
	m.pagesTotal.WithLabelValues(m.service, string(source)).Inc()
}

func (m *PipelineMetrics) ObserveDocument(status string, duration time.Duration) {
	if status == "" {
		status = "unknown"
	}
	m.documentsTotal.WithLabelValues(m.service, status).Inc()
	m.documentDuration.WithLabelValues(m.service, status).Observe(duration.Seconds())
}

func (m *PipelineMetrics) JobQueued(depth int) {
	m.jobsQueued.Set(float64(depth))
}

func (m *PipelineMetrics) JobStarted() {
	m.jobsQueued.Dec()
	m.jobsInFlight.Inc()
}

func (m *PipelineMetrics) JobFinished() {
	m.jobsInFlight.Dec()
}

// ObserveBreaker matches resilience.StateObserver.
func (m *PipelineMetrics) ObserveBreaker(operation, _, to string) {
	value := 1.0
	if to == "closed" {
		value = 0
	}
	m.breakerOpen.WithLabelValues(m.service, operation).Set(value)
}
