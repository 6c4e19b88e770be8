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
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
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

	AccountLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "isp_account_lookups_total",
			Help: "Account searches by outcome (found, not_found, invalid_data, error)",
		},
		[]string{"outcome"},
	)

	Questions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "isp_questions_total",
			Help: "Follow-up questions by route",
		},
		[]string{"route"},
	)

	LLMRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "isp_llm_request_duration_seconds",
			Help:    "Latency of text generation requests",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 60},
		},
		[]string{"provider", "status"},
	)

	SQLAgentQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "isp_sql_agent_queries_total",
			Help: "SQL agent answers by status (ok, rejected, failed)",
		},
		[]string{"status"},
	)
)
