package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "carbonledger_"

	resultSuccess = "success"
	resultError   = "error"

	rowOutcomeStored     = "stored"
	rowOutcomeUnresolved = "unresolved"
	rowOutcomeRejected   = "rejected"
)

var (
	registerOnce sync.Once

	ingestBatches *prometheus.CounterVec
	ingestRows    *prometheus.CounterVec
	ingestLatency *prometheus.HistogramVec

	dashboardTotal   *prometheus.CounterVec
	dashboardLatency *prometheus.HistogramVec

	reportGenerateTotal   *prometheus.CounterVec
	reportGenerateLatency *prometheus.HistogramVec
	reportExportTotal     *prometheus.CounterVec
	reportExportLatency   *prometheus.HistogramVec

	promotionTotal *prometheus.CounterVec
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		ingestBatches = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_batches_total",
				Help: "Total ingest batches by result",
			},
			[]string{"result"},
		)
		ingestRows = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_rows_total",
				Help: "Total ingested rows by outcome",
			},
			[]string{"outcome"},
		)
		ingestLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "ingest_batch_latency_seconds",
				Help:    "Ingest batch latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		dashboardTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "dashboard_aggregate_total",
				Help: "Total dashboard aggregations by result",
			},
			[]string{"result"},
		)
		dashboardLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "dashboard_aggregate_latency_seconds",
				Help:    "Dashboard aggregation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		reportGenerateTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_generate_total",
				Help: "Total report generate operations by result",
			},
			[]string{"result"},
		)
		reportGenerateLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "report_generate_latency_seconds",
				Help:    "Report generate latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		reportExportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_export_total",
				Help: "Total report export operations by format and result",
			},
			[]string{"format", "result"},
		)
		reportExportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "report_export_latency_seconds",
				Help:    "Report export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		promotionTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "waitlist_promotions_total",
				Help: "Total waitlist promotions by result",
			},
			[]string{"result"},
		)

		prometheus.MustRegister(
			ingestBatches,
			ingestRows,
			ingestLatency,
			dashboardTotal,
			dashboardLatency,
			reportGenerateTotal,
			reportGenerateLatency,
			reportExportTotal,
			reportExportLatency,
			promotionTotal,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveIngestBatch records batch duration and result.
func ObserveIngestBatch(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if ingestBatches != nil {
		ingestBatches.WithLabelValues(result).Inc()
	}
	if ingestLatency != nil {
		ingestLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// AddIngestRows increments the row outcome counter by count.
func AddIngestRows(outcome string, count int) {
	if count <= 0 {
		return
	}
	if outcome == "" {
		outcome = "unknown"
	}
	if ingestRows != nil {
		ingestRows.WithLabelValues(outcome).Add(float64(count))
	}
}

// ObserveDashboard records dashboard aggregation latency and result.
func ObserveDashboard(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if dashboardTotal != nil {
		dashboardTotal.WithLabelValues(result).Inc()
	}
	if dashboardLatency != nil {
		dashboardLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObserveReportGenerate records generate latency and result.
func ObserveReportGenerate(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if reportGenerateTotal != nil {
		reportGenerateTotal.WithLabelValues(result).Inc()
	}
	if reportGenerateLatency != nil {
		reportGenerateLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObserveReportExport records export latency and result.
func ObserveReportExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if reportExportTotal != nil {
		reportExportTotal.WithLabelValues(format, result).Inc()
	}
	if reportExportLatency != nil {
		reportExportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// IncPromotion increments the waitlist promotion counter.
func IncPromotion(result string) {
	if result == "" {
		result = resultSuccess
	}
	if promotionTotal != nil {
		promotionTotal.WithLabelValues(result).Inc()
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError

	RowOutcomeStored     = rowOutcomeStored
	RowOutcomeUnresolved = rowOutcomeUnresolved
	RowOutcomeRejected   = rowOutcomeRejected
)
