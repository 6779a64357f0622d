package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	CatalogRowsLoaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_rows_loaded_total",
			Help: "Provider rows that passed validation",
		},
		[]string{"source"},
	)

	CatalogRowsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_rows_dropped_total",
			Help: "Provider rows dropped during cleaning, by reason",
		},
		[]string{"source", "reason"},
	)

	CatalogLoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "catalog_load_duration_seconds",
			Help: "Time to read and clean the provider catalog",
		},
		[]string{"source"},
	)

	CatalogCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_cache_hits_total",
			Help: "Catalog reads served from cache, by layer",
		},
		[]string{"layer"},
	)

	MatchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_requests_total",
			Help: "Match requests by entry point",
		},
		[]string{"entrypoint"},
	)

	MatchResultSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "match_result_size",
			Help:    "Number of providers returned per match",
			Buckets: []float64{0, 1, 2, 3},
		},
	)
)
