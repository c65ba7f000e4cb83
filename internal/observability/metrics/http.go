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

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	rendersTotal           *prometheus.CounterVec
	renderDuration         *prometheus.HistogramVec
	resolverHitsTotal      *prometheus.CounterVec
	reviewSubmissionsTotal *prometheus.CounterVec
	reviewBatchFields      *prometheus.HistogramVec
	catalogPollRoundsTotal *prometheus.CounterVec
	exportRowsTotal        *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "drc",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "drc",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "drc",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	rendersTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "drc",
			Subsystem: "raster",
			Name:      "renders_total",
			Help:      "Total page rasterizations by document kind and outcome.",
		},
		[]string{"service", "kind", "status"},
	)
	renderDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "drc",
			Subsystem: "raster",
			Name:      "render_duration_seconds",
			Help:      "Page rasterization duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "kind"},
	)
	resolverHitsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "drc",
			Subsystem: "overlay",
			Name:      "resolver_hits_total",
			Help:      "Highlight box resolutions by winning tier.",
		},
		[]string{"service", "tier"},
	)
	reviewSubmissionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "drc",
			Subsystem: "review",
			Name:      "submissions_total",
			Help:      "Total correction batch submissions by outcome.",
		},
		[]string{"service", "status"},
	)
	reviewBatchFields := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "drc",
			Subsystem: "review",
			Name:      "batch_fields",
			Help:      "Distribution of changed fields per submitted batch.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service"},
	)
	catalogPollRoundsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "drc",
			Subsystem: "catalog",
			Name:      "poll_rounds_total",
			Help:      "Total catalog refresh rounds by outcome.",
		},
		[]string{"service", "status"},
	)
	exportRowsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "drc",
			Subsystem: "catalog",
			Name:      "export_rows_total",
			Help:      "Total catalog rows written to spreadsheet exports.",
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		rendersTotal,
		renderDuration,
		resolverHitsTotal,
		reviewSubmissionsTotal,
		reviewBatchFields,
		catalogPollRoundsTotal,
		exportRowsTotal,
	)

	return &HTTPServerMetrics{
		registry:               registry,
		requestTotal:           requestTotal,
		requestDuration:        requestDuration,
		requestInFlight:        requestInFlight,
		rendersTotal:           rendersTotal,
		renderDuration:         renderDuration,
		resolverHitsTotal:      resolverHitsTotal,
		reviewSubmissionsTotal: reviewSubmissionsTotal,
		reviewBatchFields:      reviewBatchFields,
		catalogPollRoundsTotal: catalogPollRoundsTotal,
		exportRowsTotal:        exportRowsTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
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

// normalizePath collapses identifier segments so per-document requests
// share one label value.
func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/documents/"):
		rest := strings.TrimPrefix(path, "/v1/documents/")
		parts := strings.Split(rest, "/")
		if len(parts) == 1 {
			return "/v1/documents/{document_id}"
		}
		switch parts[1] {
		case "pages":
			return "/v1/documents/{document_id}/pages/{page}/raster"
		default:
			return "/v1/documents/{document_id}/" + parts[1]
		}
	case strings.HasPrefix(path, "/v1/templates/"):
		return "/v1/templates/{template_id}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordRender(service, kind string, err error, duration time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.rendersTotal.WithLabelValues(service, kind, status).Inc()
	if err == nil {
		m.renderDuration.WithLabelValues(service, kind).Observe(duration.Seconds())
	}
}

func (m *HTTPServerMetrics) RecordResolverHit(service, tier string) {
	if tier == "" {
		tier = "unknown"
	}
	m.resolverHitsTotal.WithLabelValues(service, tier).Inc()
}

func (m *HTTPServerMetrics) RecordReviewSubmission(service, status string, changedFields int) {
	if status == "" {
		status = "unknown"
	}
	m.reviewSubmissionsTotal.WithLabelValues(service, status).Inc()
	if changedFields > 0 {
		m.reviewBatchFields.WithLabelValues(service).Observe(float64(changedFields))
	}
}

func (m *HTTPServerMetrics) RecordPollRound(service string, settled bool) {
	status := "pending"
	if settled {
		status = "settled"
	}
	m.catalogPollRoundsTotal.WithLabelValues(service, status).Inc()
}

func (m *HTTPServerMetrics) RecordExportRows(service string, rows int) {
	if rows <= 0 {
		return
	}
	m.exportRowsTotal.WithLabelValues(service).Add(float64(rows))
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
