package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type APIMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	matchRequestsTotal *prometheus.CounterVec
	matchResultCount   *prometheus.HistogramVec
	matchDuration      *prometheus.HistogramVec
	exportTotal        *prometheus.CounterVec
	uploadBytes        *prometheus.HistogramVec
}

func NewAPIMetrics(service string) *APIMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cvmatch",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cvmatch",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "cvmatch",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	matchRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cvmatch",
			Subsystem: "match",
			Name:      "requests_total",
			Help:      "Total completed match queries by source kind.",
		},
		[]string{"service", "kind"},
	)
	matchResultCount := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cvmatch",
			Subsystem: "match",
			Name:      "result_count",
			Help:      "Distribution of returned matches per query.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service", "kind"},
	)
	matchDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cvmatch",
			Subsystem: "match",
			Name:      "duration_seconds",
			Help:      "Match query duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "kind"},
	)
	exportTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cvmatch",
			Subsystem: "match",
			Name:      "exports_total",
			Help:      "Total generated match report downloads.",
		},
		[]string{"service"},
	)
	uploadBytes := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cvmatch",
			Subsystem: "ingest",
			Name:      "upload_bytes",
			Help:      "Distribution of accepted upload sizes in bytes.",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 8),
		},
		[]string{"service", "kind"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		matchRequestsTotal,
		matchResultCount,
		matchDuration,
		exportTotal,
		uploadBytes,
	)

	return &APIMetrics{
		registry:           registry,
		requestTotal:       requestTotal,
		requestDuration:    requestDuration,
		requestInFlight:    requestInFlight,
		matchRequestsTotal: matchRequestsTotal,
		matchResultCount:   matchResultCount,
		matchDuration:      matchDuration,
		exportTotal:        exportTotal,
		uploadBytes:        uploadBytes,
	}
}

func (m *APIMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *APIMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	if !strings.HasPrefix(path, "/v1/records/") {
		return path
	}
	rest := strings.TrimPrefix(path, "/v1/records/")
	switch {
	case strings.HasSuffix(rest, "/matches/export"):
		return "/v1/records/{id}/matches/export"
	case strings.HasSuffix(rest, "/matches"):
		return "/v1/records/{id}/matches"
	case strings.HasSuffix(rest, "/reindex"):
		return "/v1/records/{id}/reindex"
	default:
		return "/v1/records/{id}"
	}
}

func (m *APIMetrics) RecordMatchQuery(service, kind string, resultCount int, duration time.Duration) {
	if kind == "" {
		kind = "unknown"
	}
	m.matchRequestsTotal.WithLabelValues(service, kind).Inc()
	m.matchResultCount.WithLabelValues(service, kind).Observe(float64(resultCount))
	m.matchDuration.WithLabelValues(service, kind).Observe(duration.Seconds())
}

func (m *APIMetrics) RecordExport(service string) {
	m.exportTotal.WithLabelValues(service).Inc()
}

func (m *APIMetrics) RecordUpload(service, kind string, size int64) {
	if kind == "" {
		kind = "unknown"
	}
	m.uploadBytes.WithLabelValues(service, kind).Observe(float64(size))
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
