package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refsearch_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "refsearch_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "refsearch_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Search metrics
var (
	SearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refsearch_searches_total",
			Help: "Total number of search sessions by mode and outcome",
		},
		[]string{"mode", "outcome"}, // mode: reference|image, outcome: completed|cancelled|failed
	)

	SearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "refsearch_search_duration_seconds",
			Help:    "Search session duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"mode"},
	)

	SearchRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "refsearch_search_running",
			Help: "Whether a search session is currently running (1 = running, 0 = idle)",
		},
	)

	DirectoriesProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "refsearch_directories_processed_total",
			Help: "Total number of directories walked by the traversal engine",
		},
	)

	MatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refsearch_matches_total",
			Help: "Total number of file matches emitted, by class",
		},
		[]string{"class"},
	)

	EntryErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "refsearch_entry_errors_total",
			Help: "Total number of directory entries skipped due to I/O errors",
		},
	)

	RootsSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "refsearch_roots_skipped_total",
			Help: "Total number of search roots skipped because they were unreachable at start",
		},
	)
)

// Result cache metrics
var (
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "refsearch_cache_hits_total",
			Help: "Total number of result cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "refsearch_cache_misses_total",
			Help: "Total number of result cache misses",
		},
	)

	CacheEntriesPurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "refsearch_cache_entries_purged_total",
			Help: "Total number of expired result cache entries removed",
		},
	)
)

// Image similarity metrics
var (
	ImageHashDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "refsearch_image_hash_duration_seconds",
			Help:    "Time spent decoding and hashing one candidate image",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	ImageDecodeErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "refsearch_image_decode_errors_total",
			Help: "Total number of candidate images skipped because they could not be decoded",
		},
	)
)

// Filesystem retry metrics
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refsearch_filesystem_retry_attempts_total",
			Help: "Total number of filesystem operation retries",
		},
		[]string{"operation", "root"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refsearch_filesystem_retry_success_total",
			Help: "Total number of filesystem operations that succeeded after retrying",
		},
		[]string{"operation", "root"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refsearch_filesystem_retry_failures_total",
			Help: "Total number of filesystem operations that failed after all retries",
		},
		[]string{"operation", "root"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refsearch_filesystem_stale_errors_total",
			Help: "Total number of stale NFS file handle errors observed",
		},
		[]string{"operation", "root"},
	)
)
