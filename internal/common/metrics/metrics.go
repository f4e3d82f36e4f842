// internal/common/metrics/metrics.go
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
			Name:    "worker_job_duration_seconds",
			Help:    "Duration of job processing in seconds",
			Buckets: []float64{0.05, 0.25, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	// GenerationCalls counts calls to the text-generation service by kind
	// (generate or repair).
	GenerationCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vibe_generation_calls_total",
			Help: "Total number of generation service calls",
		},
		[]string{"kind"},
	)

	Transmutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vibe_transmutations_total",
			Help: "Total number of transmutations by outcome",
		},
		[]string{"outcome"},
	)

	CompletenessScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vibe_completeness_score",
			Help:    "Completeness score of normalized specs",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)
)
