// internal/infra/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PushAttempts counts one increment per endpoint send.
	PushAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "silah_push_attempts_total",
			Help: "Push send attempts per endpoint, by notification type and result",
		},
		[]string{"type", "result"},
	)

	RecipientsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "silah_recipients_skipped_total",
			Help: "Recipients skipped during dispatch, by reason",
		},
		[]string{"reason"},
	)

	JobRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "silah_job_runs_total",
			Help: "Dispatch job runs by job and result",
		},
		[]string{"job", "result"},
	)

	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "silah_job_duration_seconds",
			Help:    "Dispatch job duration",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		},
		[]string{"job"},
	)
)

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultLocked  = "locked"
)
