package observability

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce          sync.Once
	requestsTotal         *prometheus.CounterVec
	latencySeconds        *prometheus.HistogramVec
	errorsTotal           *prometheus.CounterVec
	transitionsTotal      *prometheus.CounterVec
	transitionConflicts   prometheus.Counter
	gradesRecordedTotal   prometheus.Counter
	gradebookCacheHits    prometheus.Counter
	gradebookCacheMisses  prometheus.Counter
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quranakh_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		latencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "quranakh_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		errorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quranakh_errors_total",
			Help: "Total number of error responses returned.",
		}, []string{"method", "route", "status"})

		transitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quranakh_transitions_total",
			Help: "Accepted assignment lifecycle transitions by edge.",
		}, []string{"from", "to"})

		transitionConflicts = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quranakh_transition_conflicts_total",
			Help: "Transition attempts rejected by the optimistic status guard.",
		})

		gradesRecordedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quranakh_grades_recorded_total",
			Help: "Criterion grades recorded, including upserts.",
		})

		gradebookCacheHits = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quranakh_gradebook_cache_hits_total",
			Help: "Gradebook reads served from cache.",
		})

		gradebookCacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quranakh_gradebook_cache_misses_total",
			Help: "Gradebook reads that recomputed from the database.",
		})

		prometheus.MustRegister(
			requestsTotal,
			latencySeconds,
			errorsTotal,
			transitionsTotal,
			transitionConflicts,
			gradesRecordedTotal,
			gradebookCacheHits,
			gradebookCacheMisses,
		)
	})
}

// Requests exposes the counter for API requests.
func Requests() *prometheus.CounterVec {
	RegisterMetrics()
	return requestsTotal
}

// Latency exposes the latency histogram for API requests.
func Latency() *prometheus.HistogramVec {
	RegisterMetrics()
	return latencySeconds
}

// Errors exposes the counter for error responses.
func Errors() *prometheus.CounterVec {
	RegisterMetrics()
	return errorsTotal
}

// TransitionsTotal exposes the counter for accepted lifecycle transitions.
func TransitionsTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return transitionsTotal
}

// TransitionConflicts exposes the counter for optimistic-guard rejections.
func TransitionConflicts() prometheus.Counter {
	RegisterMetrics()
	return transitionConflicts
}

// GradesRecorded exposes the counter for recorded grades.
func GradesRecorded() prometheus.Counter {
	RegisterMetrics()
	return gradesRecordedTotal
}

// GradebookCacheHits exposes the gradebook cache hit counter.
func GradebookCacheHits() prometheus.Counter {
	RegisterMetrics()
	return gradebookCacheHits
}

// GradebookCacheMisses exposes the gradebook cache miss counter.
func GradebookCacheMisses() prometheus.Counter {
	RegisterMetrics()
	return gradebookCacheMisses
}

// MetricsHandler exposes the Prometheus scrape endpoint via Fiber.
func MetricsHandler() fiber.Handler {
	RegisterMetrics()
	return adaptor.HTTPHandler(promhttp.Handler())
}
