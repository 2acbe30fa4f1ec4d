package alerts

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/devtail-backend/internal/repo"
	"github.com/angelmondragon/devtail-backend/pkg/db/models"
	"github.com/angelmondragon/devtail-backend/pkg/pagination"
)

// Repository exposes persistence helpers for alerts. Every query is scoped to
// the owning user.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, alert *models.Alert) error
	List(ctx context.Context, params listAlertsParams) ([]models.Alert, *pagination.Cursor, error)
	MarkRead(ctx context.Context, userID, alertID uint64) (alertMarkResult, error)
	MarkAllRead(ctx context.Context, userID uint64) (int64, error)
	Delete(ctx context.Context, userID, alertID uint64) (bool, error)
	DeleteByUser(ctx context.Context, userID uint64) (int64, error)
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type repositoryImpl struct {
	repo.Base
}

// NewRepository returns an alerts repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{Base: repo.NewBase(db)}
}

type listAlertsParams struct {
	UserID     uint64
	Limit      int
	Cursor     *pagination.Cursor
	UnreadOnly bool
}

type alertMarkResult struct {
	Updated bool
	Found   bool
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{Base: r.Rebind(tx)}
}

func (r *repositoryImpl) Create(ctx context.Context, alert *models.Alert) error {
	return r.DB(ctx).Create(alert).Error
}

// List returns one page of alerts, newest first. The returned cursor points at
// the last row of the page and is nil on the final page.
func (r *repositoryImpl) List(ctx context.Context, params listAlertsParams) ([]models.Alert, *pagination.Cursor, error) {
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.DB(ctx).Model(&models.Alert{}).Where("user_id = ?", params.UserID)
	if params.UnreadOnly {
		query = query.Where("is_read = ?", false)
	}
	if params.Cursor != nil {
		query = query.Where("id < ?", params.Cursor.ID)
	}

	var alerts []models.Alert
	if err := query.Order("id DESC").Limit(pagination.LimitWithBuffer(normalized)).Find(&alerts).Error; err != nil {
		return nil, nil, err
	}

	if len(alerts) > normalized {
		alerts = alerts[:normalized]
		return alerts, &pagination.Cursor{ID: alerts[normalized-1].ID}, nil
	}
	return alerts, nil, nil
}

func (r *repositoryImpl) MarkRead(ctx context.Context, userID, alertID uint64) (alertMarkResult, error) {
	result := r.DB(ctx).
		Model(&models.Alert{}).
		Where("id = ? AND user_id = ? AND is_read = ?", alertID, userID, false).
		UpdateColumn("is_read", true)
	if result.Error != nil {
		return alertMarkResult{}, result.Error
	}

	mark := alertMarkResult{Updated: result.RowsAffected > 0}
	if mark.Updated {
		mark.Found = true
		return mark, nil
	}

	var count int64
	if err := r.DB(ctx).
		Model(&models.Alert{}).
		Where("id = ? AND user_id = ?", alertID, userID).
		Count(&count).Error; err != nil {
		return alertMarkResult{}, err
	}
	mark.Found = count > 0
	return mark, nil
}

func (r *repositoryImpl) MarkAllRead(ctx context.Context, userID uint64) (int64, error) {
	result := r.DB(ctx).
		Model(&models.Alert{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		UpdateColumn("is_read", true)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repositoryImpl) Delete(ctx context.Context, userID, alertID uint64) (bool, error) {
	result := r.DB(ctx).Where("id = ? AND user_id = ?", alertID, userID).Delete(&models.Alert{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DeleteByUser removes every alert of the user. Postgres cascades this on
// user delete; the explicit call keeps sqlite deployments consistent.
func (r *repositoryImpl) DeleteByUser(ctx context.Context, userID uint64) (int64, error) {
	result := r.DB(ctx).Where("user_id = ?", userID).Delete(&models.Alert{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// DeleteReadBefore purges read alerts created before cutoff across all users.
func (r *repositoryImpl) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.DB(ctx).Where("is_read = ? AND created_at < ?", true, cutoff).Delete(&models.Alert{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
