package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/devtail-backend/internal/alerts"
	"github.com/angelmondragon/devtail-backend/internal/users"
	"github.com/angelmondragon/devtail-backend/pkg/logger"
	"github.com/angelmondragon/devtail-backend/pkg/metrics"
)

const (
	pendingAccountJobName   = "pending-account-cleanup"
	defaultPendingBatchSize = 200
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type imageRemover interface {
	Delete(ctx context.Context, key string) error
}

type PendingAccountJobParams struct {
	Logger *logger.Logger
	DB     txRunner
	Users  *users.Repository
	Alerts alerts.Repository
	// Images may be nil when no bucket is configured.
	Images    imageRemover
	MaxAge    time.Duration
	BatchSize int
	Metrics   *metrics.RetentionMetrics
}

// NewPendingAccountJob removes accounts whose latest confirmation code went
// unused for MaxAge, freeing their email and nickname. Inactive accounts
// without a code are never touched. A non-positive MaxAge
// disables the job and yields a nil Job.
func NewPendingAccountJob(params PendingAccountJobParams) (Job, error) {
	if params.MaxAge <= 0 {
		return nil, nil
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Users == nil || params.Alerts == nil {
		return nil, fmt.Errorf("users and alerts repositories required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultPendingBatchSize
	}
	return &pendingAccountJob{
		logg:    params.Logger,
		db:      params.DB,
		users:   params.Users,
		alerts:  params.Alerts,
		images:  params.Images,
		maxAge:  params.MaxAge,
		batch:   batch,
		metrics: params.Metrics,
		now:     time.Now,
	}, nil
}

type pendingAccountJob struct {
	logg    *logger.Logger
	db      txRunner
	users   *users.Repository
	alerts  alerts.Repository
	images  imageRemover
	maxAge  time.Duration
	batch   int
	metrics *metrics.RetentionMetrics
	now     func() time.Time
}

func (j *pendingAccountJob) Name() string { return pendingAccountJobName }

// Run handles one batch per cycle. Each account is removed in its own
// transaction so a confirmation racing the cleanup keeps its row.
func (j *pendingAccountJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.maxAge)
	pending, err := j.users.ListPendingBefore(ctx, cutoff, j.batch)
	if err != nil {
		return fmt.Errorf("list pending accounts: %w", err)
	}

	var (
		removed int64
		errs    error
	)
	for _, user := range pending {
		deleted, err := j.removeAccount(ctx, user.ID, cutoff)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("remove user %d: %w", user.ID, err))
			continue
		}
		if !deleted {
			continue
		}
		removed++
		if user.ProfileImage != nil && j.images != nil {
			if err := j.images.Delete(ctx, *user.ProfileImage); err != nil {
				j.logg.Warn(j.logg.WithFields(ctx, map[string]any{
					"key":   *user.ProfileImage,
					"error": err.Error(),
				}), "failed to delete profile image of pending account")
			}
		}
	}

	j.metrics.AddRemoved(pendingAccountJobName, removed)
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":     cutoff,
		"candidates": len(pending),
		"removed":    removed,
	}), "pending accounts cleaned up")
	return errs
}

func (j *pendingAccountJob) removeAccount(ctx context.Context, userID uint64, cutoff time.Time) (bool, error) {
	var deleted bool
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		ok, err := j.users.WithTx(tx).DeletePending(ctx, userID, cutoff)
		if err != nil || !ok {
			return err
		}
		if _, err := j.alerts.WithTx(tx).DeleteByUser(ctx, userID); err != nil {
			return err
		}
		deleted = true
		return nil
	})
	return deleted, err
}
