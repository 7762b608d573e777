package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediahub_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mediahub_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediahub_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediahub_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mediahub_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBTransactionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mediahub_db_transaction_duration_seconds",
			Help:    "Database batch transaction duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		},
		[]string{"outcome"}, // "commit" or "rollback"
	)
)

// Scanner metrics
var (
	ScanRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mediahub_scan_runs_total",
			Help: "Total number of catalog scan runs",
		},
	)

	ScanRejectedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mediahub_scan_rejected_total",
			Help: "Total number of scan triggers rejected because a scan was already running",
		},
	)

	ScanLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediahub_scan_last_run_timestamp",
			Help: "Timestamp of the last completed scan",
		},
	)

	ScanLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediahub_scan_last_run_duration_seconds",
			Help: "Duration of the last completed scan in seconds",
		},
	)

	ScanFilesProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mediahub_scan_files_processed_total",
			Help: "Total number of files processed by the scanner",
		},
	)

	ScanFoldersProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mediahub_scan_folders_processed_total",
			Help: "Total number of folders processed by the scanner",
		},
	)

	ScanItemsPruned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mediahub_scan_items_pruned_total",
			Help: "Total number of stale catalog entries removed by the scanner",
		},
	)

	ScanErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mediahub_scan_errors_total",
			Help: "Total number of scan errors",
		},
	)

	ScanIsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediahub_scan_running",
			Help: "Whether a scan is currently running (1 = running, 0 = idle)",
		},
	)
)

// Enrichment metrics
var (
	EnrichJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediahub_enrich_jobs_total",
			Help: "Total number of metadata enrichment jobs",
		},
		[]string{"status"}, // "enriched", "no_match", "skipped", "error"
	)

	EnrichJobDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mediahub_enrich_job_duration_seconds",
			Help:    "Metadata enrichment job duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	EnrichQueueDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mediahub_enrich_queue_dropped_total",
			Help: "Total number of enrichment jobs dropped because the queue was full",
		},
	)

	EnrichQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediahub_enrich_queue_depth",
			Help: "Number of enrichment jobs waiting in the queue",
		},
	)
)

// Preview metrics
var (
	PreviewGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediahub_preview_generations_total",
			Help: "Total number of preview generations",
		},
		[]string{"type", "status"},
	)

	PreviewGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mediahub_preview_generation_duration_seconds",
			Help:    "Preview generation duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"type"},
	)

	PreviewCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mediahub_preview_cache_hits_total",
			Help: "Total number of preview cache hits",
		},
	)

	PreviewCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mediahub_preview_cache_misses_total",
			Help: "Total number of preview cache misses",
		},
	)
)

// Streaming metrics
var (
	StreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediahub_stream_requests_total",
			Help: "Total number of media stream requests",
		},
		[]string{"type"}, // "full" or "range"
	)

	StreamBytesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mediahub_stream_bytes_sent_total",
			Help: "Total number of bytes sent to streaming clients",
		},
	)
)

// Catalog metrics
var (
	CatalogItemsTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mediahub_catalog_items_total",
			Help: "Total number of catalog items by type",
		},
		[]string{"type"}, // "video" or "image"
	)

	CatalogFoldersTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediahub_catalog_folders_total",
			Help: "Total number of catalog folders",
		},
	)

	CatalogLibrariesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediahub_catalog_libraries_total",
			Help: "Total number of configured libraries",
		},
	)
)

// Subtitle metrics
var (
	SubtitleFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediahub_subtitle_fetches_total",
			Help: "Total number of subtitle provider fetches",
		},
		[]string{"status"}, // "fetched", "cached", "error"
	)
)
