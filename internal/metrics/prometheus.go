package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// JobsSubmitted counts accepted translation job submissions.
	JobsSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lingopipe_jobs_submitted_total",
			Help: "Total number of translation jobs accepted for processing",
		},
	)

	// JobsProcessed counts worker-side job completions by terminal status.
	JobsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lingopipe_jobs_processed_total",
			Help: "Total number of translation jobs processed",
		},
		[]string{"status"},
	)

	// JobDuration tracks end-to-end worker processing time per job.
	JobDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lingopipe_job_duration_seconds",
			Help:    "Duration of translation job processing in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12), // 50ms to ~100s
		},
	)

	// BackendCalls counts individual backend calls by outcome.
	BackendCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lingopipe_backend_calls_total",
			Help: "Total number of translation backend calls",
		},
		[]string{"result"},
	)

	// BackendRetries counts per-call retries after throttling.
	BackendRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lingopipe_backend_retries_total",
			Help: "Total number of retried translation backend calls",
		},
	)

	// WorkersActive tracks the number of busy worker goroutines.
	WorkersActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lingopipe_workers_active",
			Help: "Number of currently active worker goroutines",
		},
	)

	// StaleJobsRequeued counts PENDING jobs re-published by the reconciler.
	StaleJobsRequeued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lingopipe_stale_jobs_requeued_total",
			Help: "Total number of stale PENDING jobs re-published to the queue",
		},
	)

	// StaleJobsFailed counts PENDING jobs the reconciler gave up on.
	StaleJobsFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lingopipe_stale_jobs_failed_total",
			Help: "Total number of stale PENDING jobs marked FAILED as orphaned",
		},
	)
)
