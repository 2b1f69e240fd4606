package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Enlistment outcome label for accepted attempts. Rejections use the error code.
const outcomeEnlisted = "ENLISTED"

// MetricsService encapsulates Prometheus instrumentation.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	dbQueryDuration *prometheus.HistogramVec

	enlistAttempts *prometheus.CounterVec
	cancellations  prometheus.Counter
	sectionFill    *prometheus.GaugeVec
	batchItems     *prometheus.CounterVec
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

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	dbQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of audit journal queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	enlistAttempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "enlistment_attempts_total",
		Help: "Enlistment attempts by outcome (ENLISTED or the rejecting error code)",
	}, []string{"outcome"})

	cancellations := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "enlistment_cancellations_total",
		Help: "Committed enlistment cancellations",
	})

	sectionFill := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "section_fill_ratio",
		Help: "Roster size divided by room capacity",
	}, []string{"section"})

	batchItems := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "batch_enlistment_items_total",
		Help: "Batch enlistment items processed by outcome",
	}, []string{"outcome"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHits, cacheMisses,
		dbQueryDuration, enlistAttempts, cancellations, sectionFill, batchItems, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		dbQueryDuration: dbQueryDuration,
		enlistAttempts:  enlistAttempts,
		cancellations:   cancellations,
		sectionFill:     sectionFill,
		batchItems:      batchItems,
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

// RecordCacheOperation records a cache lookup.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveDBQuery records journal query timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// RecordEnlistment counts an enlistment attempt. An empty code means success.
func (m *MetricsService) RecordEnlistment(code string) {
	if m == nil {
		return
	}
	if code == "" {
		code = outcomeEnlisted
	}
	m.enlistAttempts.WithLabelValues(code).Inc()
}

// RecordCancellation counts a committed cancellation.
func (m *MetricsService) RecordCancellation() {
	if m == nil {
		return
	}
	m.cancellations.Inc()
}

// RecordBatchItem counts one processed batch item.
func (m *MetricsService) RecordBatchItem(code string) {
	if m == nil {
		return
	}
	if code == "" {
		code = outcomeEnlisted
	}
	m.batchItems.WithLabelValues(code).Inc()
}

// SetSectionFill publishes the roster fill ratio of a section.
func (m *MetricsService) SetSectionFill(sectionID string, enrolled, capacity int) {
	if m == nil || capacity <= 0 {
		return
	}
	m.sectionFill.WithLabelValues(sectionID).Set(float64(enrolled) / float64(capacity))
}

// DeleteSectionFill drops the gauge of a removed section.
func (m *MetricsService) DeleteSectionFill(sectionID string) {
	if m == nil {
		return
	}
	m.sectionFill.DeleteLabelValues(sectionID)
}
