package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RetentionMetrics records the runs of the scheduled cleanup jobs.
type RetentionMetrics struct {
	duration *prometheus.HistogramVec
	runs     *prometheus.CounterVec
	removed  *prometheus.CounterVec
}

// NewRetentionMetrics registers the cleanup job metrics on reg.
func NewRetentionMetrics(reg prometheus.Registerer) *RetentionMetrics {
	if reg == nil {
		return &RetentionMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "retention_job_duration_seconds",
		Help:    "Duration of cleanup jobs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "retention_job_runs_total",
		Help: "Cleanup job executions by outcome.",
	}, []string{"job", "outcome"})
	removed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "retention_rows_removed_total",
		Help: "Rows removed by cleanup jobs.",
	}, []string{"job"})
	reg.MustRegister(duration, runs, removed)
	return &RetentionMetrics{
		duration: duration,
		runs:     runs,
		removed:  removed,
	}
}

// ObserveRun records one execution of job.
func (m *RetentionMetrics) ObserveRun(job string, duration time.Duration, err error) {
	if m == nil || m.duration == nil {
		return
	}
	job = normalizeLabel(job)
	m.duration.WithLabelValues(job).Observe(duration.Seconds())
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.runs.WithLabelValues(job, outcome).Inc()
}

// AddRemoved counts rows a job deleted.
func (m *RetentionMetrics) AddRemoved(job string, rows int64) {
	if m == nil || m.removed == nil || rows <= 0 {
		return
	}
	m.removed.WithLabelValues(normalizeLabel(job)).Add(float64(rows))
}
