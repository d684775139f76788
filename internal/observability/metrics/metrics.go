package metrics

import (
	"database/sql"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

const (
	metricPrefix = "debitnote_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	composeTotal   *prometheus.CounterVec
	composeLatency *prometheus.HistogramVec
	skippedAssets  *prometheus.CounterVec

	noteSubmitTotal   *prometheus.CounterVec
	noteSubmitLatency *prometheus.HistogramVec

	statementExportTotal   *prometheus.CounterVec
	statementExportLatency *prometheus.HistogramVec

	blobUploadTotal *prometheus.CounterVec
	notifyTotal     *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
)

// Init registers service metrics and, when db is set, connection pool
// gauges. Calling it more than once is a no-op.
func Init(db *sql.DB, logger *zap.Logger) {
	registerOnce.Do(func() {
		composeTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "compose_total",
				Help: "Total document compositions by kind and result",
			},
			[]string{"kind", "result"},
		)
		composeLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "compose_latency_seconds",
				Help:    "Document composition latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind", "result"},
		)
		skippedAssets = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "skipped_assets_total",
				Help: "Images left out of documents because they could not be decoded",
			},
			[]string{"kind"},
		)

		noteSubmitTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "note_submit_total",
				Help: "Total debit note submissions by result",
			},
			[]string{"result"},
		)
		noteSubmitLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "note_submit_latency_seconds",
				Help:    "Debit note submission latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		statementExportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "statement_export_total",
				Help: "Total statement export operations by format and result",
			},
			[]string{"format", "result"},
		)
		statementExportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "statement_export_latency_seconds",
				Help:    "Statement export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		blobUploadTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "blob_upload_total",
				Help: "Total blob uploads by result",
			},
			[]string{"result"},
		)
		notifyTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "notify_total",
				Help: "Total webhook notifications by result",
			},
			[]string{"result"},
		)

		httpRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "Total HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		)
		httpLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_request_latency_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		)

		prometheus.MustRegister(
			composeTotal,
			composeLatency,
			skippedAssets,
			noteSubmitTotal,
			noteSubmitLatency,
			statementExportTotal,
			statementExportLatency,
			blobUploadTotal,
			notifyTotal,
			httpRequests,
			httpLatency,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

func registerDBMetrics(db *sql.DB, logger *zap.Logger) {
	if err := prometheus.Register(collectors.NewDBStatsCollector(db, "debitnote")); err != nil && logger != nil {
		logger.Warn("db metrics not registered", zap.Error(err))
	}
}

// ObserveCompose records composition latency and result.
func ObserveCompose(kind, result string, duration time.Duration) {
	if kind == "" {
		kind = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if composeTotal != nil {
		composeTotal.WithLabelValues(kind, result).Inc()
	}
	if composeLatency != nil {
		composeLatency.WithLabelValues(kind, result).Observe(duration.Seconds())
	}
}

// AddSkippedAssets counts images left out of a document.
func AddSkippedAssets(kind string, count int) {
	if count <= 0 {
		return
	}
	if kind == "" {
		kind = "unknown"
	}
	if skippedAssets != nil {
		skippedAssets.WithLabelValues(kind).Add(float64(count))
	}
}

// ObserveNoteSubmit records submission latency and result.
func ObserveNoteSubmit(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if noteSubmitTotal != nil {
		noteSubmitTotal.WithLabelValues(result).Inc()
	}
	if noteSubmitLatency != nil {
		noteSubmitLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObserveStatementExport records export latency and result.
func ObserveStatementExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if statementExportTotal != nil {
		statementExportTotal.WithLabelValues(format, result).Inc()
	}
	if statementExportLatency != nil {
		statementExportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// IncBlobUpload increments the upload counter.
func IncBlobUpload(result string) {
	if result == "" {
		result = resultSuccess
	}
	if blobUploadTotal != nil {
		blobUploadTotal.WithLabelValues(result).Inc()
	}
}

// IncNotify increments the notification counter.
func IncNotify(result string) {
	if result == "" {
		result = resultSuccess
	}
	if notifyTotal != nil {
		notifyTotal.WithLabelValues(result).Inc()
	}
}

// ObserveHTTP records one served request.
func ObserveHTTP(method, route, status string, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	if httpRequests != nil {
		httpRequests.WithLabelValues(method, route, status).Inc()
	}
	if httpLatency != nil {
		httpLatency.WithLabelValues(method, route).Observe(duration.Seconds())
	}
}

// Result maps an error to a result label.
func Result(err error) string {
	if err != nil {
		return resultError
	}
	return resultSuccess
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)
