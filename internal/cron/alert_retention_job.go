package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/devtail-backend/pkg/logger"
	"github.com/angelmondragon/devtail-backend/pkg/metrics"
)

const alertRetentionJobName = "alert-retention"

type readAlertPurger interface {
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type AlertRetentionJobParams struct {
	Logger  *logger.Logger
	Alerts  readAlertPurger
	MaxAge  time.Duration
	Metrics *metrics.RetentionMetrics
}

// NewAlertRetentionJob purges read alerts older than MaxAge. Unread alerts
// are kept regardless of age. A non-positive MaxAge disables the job and
// yields a nil Job.
func NewAlertRetentionJob(params AlertRetentionJobParams) (Job, error) {
	if params.MaxAge <= 0 {
		return nil, nil
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Alerts == nil {
		return nil, fmt.Errorf("alerts repository required")
	}
	return &alertRetentionJob{
		logg:    params.Logger,
		alerts:  params.Alerts,
		maxAge:  params.MaxAge,
		metrics: params.Metrics,
		now:     time.Now,
	}, nil
}

type alertRetentionJob struct {
	logg    *logger.Logger
	alerts  readAlertPurger
	maxAge  time.Duration
	metrics *metrics.RetentionMetrics
	now     func() time.Time
}

func (j *alertRetentionJob) Name() string { return alertRetentionJobName }

func (j *alertRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.maxAge)
	removed, err := j.alerts.DeleteReadBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("purge read alerts: %w", err)
	}
	j.metrics.AddRemoved(alertRetentionJobName, removed)
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"rows_deleted": removed,
	}), "read alerts purged")
	return nil
}
