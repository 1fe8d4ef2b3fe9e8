package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LogEntriesTotal counts log entries by level
	LogEntriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eigencmc_log_entries_total",
			Help: "Total number of log entries by level",
		},
		[]string{"level"},
	)

	// ProjectionsTotal counts samples projected into a truncated subspace
	ProjectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eigencmc_projections_total",
			Help: "Total number of samples projected into a subspace",
		},
		[]string{"set"},
	)

	// SimilarityDurationSeconds measures the latency of full similarity matrix computations
	SimilarityDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eigencmc_similarity_duration_seconds",
			Help:    "Duration of gallery x probe similarity matrix computations",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30, 60, 300},
		},
		[]string{"metric"},
	)

	// SimilarityErrorsTotal counts failed similarity computations by error kind
	SimilarityErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eigencmc_similarity_errors_total",
			Help: "Total number of failed similarity matrix computations",
		},
		[]string{"kind"},
	)

	// SweepTasksTotal counts finished sweep tasks by status
	SweepTasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eigencmc_sweep_tasks_total",
			Help: "Total number of sweep dimension tasks by status",
		},
		[]string{"status"},
	)

	// CMCRank1Rate records the rank-1 recognition rate of the latest run per job and dimension
	CMCRank1Rate = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "eigencmc_cmc_rank1_rate",
			Help: "Rank-1 recognition rate in percent",
		},
		[]string{"job", "dimension"},
	)

	// ReportRowsWritten counts CMC rows handed to report sinks
	ReportRowsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eigencmc_report_rows_written_total",
			Help: "Total number of CMC rows written by report sinks",
		},
		[]string{"sink"},
	)

	// BufferPoolOperations counts report buffer gets, puts and drops per sink
	BufferPoolOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eigencmc_buffer_pool_operations_total",
			Help: "Total number of report buffer pool operations",
		},
		[]string{"sink", "op"},
	)
)
