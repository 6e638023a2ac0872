package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PushSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notify_push_sent_total",
			Help: "Push submissions by provider and outcome code",
		},
		[]string{"provider", "code"},
	)

	TokensRemoved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notify_tokens_removed_total",
			Help: "Push tokens deleted after a provider reported them unusable",
		},
		[]string{"reason"},
	)

	SchedulerRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notify_scheduler_runs_total",
			Help: "Scheduler job runs by job and status",
		},
		[]string{"job", "status"},
	)

	SchedulerRunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notify_scheduler_run_duration_seconds",
			Help:    "Duration of scheduler job runs in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"job"},
	)

	ReceiptsChecked = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notify_receipts_checked_total",
			Help: "Delivery receipts fetched by status",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(PushSent)
	prometheus.MustRegister(TokensRemoved)
	prometheus.MustRegister(SchedulerRuns)
	prometheus.MustRegister(SchedulerRunDuration)
	prometheus.MustRegister(ReceiptsChecked)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveSchedulerRun records the outcome and duration of one job run
func ObserveSchedulerRun(job, status string, started time.Time) {
	SchedulerRuns.WithLabelValues(job, status).Inc()
	SchedulerRunDuration.WithLabelValues(job).Observe(time.Since(started).Seconds())
}
