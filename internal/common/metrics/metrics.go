package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MVPRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mvp_runs_total",
			Help: "Total number of scenario runs by outcome",
		},
		[]string{"scenario", "status"},
	)

	MVPRunFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mvp_run_failures_total",
			Help: "Total number of failed scenario runs by error code",
		},
		[]string{"scenario", "error_code"},
	)

	MVPRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mvp_run_duration_seconds",
			Help:    "Duration of scenario runs in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
		},
		[]string{"scenario"},
	)

	MVPRunsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mvp_runs_active",
			Help: "Number of scenario runs in flight",
		},
		[]string{"scenario"},
	)

	StrictJSONAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_strict_json_attempts_total",
			Help: "Constrained model invocation attempts by schema and outcome",
		},
		[]string{"schema", "outcome"},
	)

	KMRetrievalRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "km_retrieval_requests_total",
			Help: "Knowledge retrieval requests by backend and status",
		},
		[]string{"backend", "status"},
	)

	ApprovalNotifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricing_approval_notifications_total",
			Help: "Pricing approval notices by channel and status",
		},
		[]string{"channel", "status"},
	)
)
