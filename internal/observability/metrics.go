package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bagctl",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bagctl",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	recordsParsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bagctl",
			Subsystem: "parser",
			Name:      "records_parsed_total",
			Help:      "Records parsed, by op.",
		},
		[]string{"op"},
	)
	recordErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bagctl",
			Subsystem: "parser",
			Name:      "record_errors_total",
			Help:      "Record parse failures, by error kind.",
		},
		[]string{"kind"},
	)
	chunkPayload = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "bagctl",
			Subsystem: "parser",
			Name:      "chunk_payload_bytes",
			Help:      "Payload size of parsed chunks.",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 10),
		},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, recordsParsed, recordErrors, chunkPayload)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

func RecordParsed(op string) {
	RegisterMetrics()
	recordsParsed.WithLabelValues(op).Inc()
}

func RecordParseError(kind string) {
	RegisterMetrics()
	recordErrors.WithLabelValues(kind).Inc()
}

func ObserveChunkPayload(size int) {
	RegisterMetrics()
	chunkPayload.Observe(float64(size))
}
