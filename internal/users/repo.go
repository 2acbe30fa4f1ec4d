package users

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/devtail-backend/internal/repo"
	"github.com/angelmondragon/devtail-backend/pkg/db"
	"github.com/angelmondragon/devtail-backend/pkg/db/models"
)

var (
	// ErrDuplicateEmail is returned when the email is already registered.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrDuplicateNickname is returned when the nickname is taken.
	ErrDuplicateNickname = errors.New("nickname already taken")
)

// Repository exposes user-related persistence operations. Lookups return
// gorm.ErrRecordNotFound when no row matches.
type Repository struct {
	repo.Base
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository running on tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Rebind(tx)}
}

// Create inserts a new pending user and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if err := r.DB(ctx).Create(user).Error; err != nil {
		return nil, mapUniqueViolation(err)
	}
	return user, nil
}

// FindByEmail retrieves the user matching the provided email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID loads a user by id.
func (r *Repository) FindByID(ctx context.Context, id uint64) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByAuthCode loads the pending user holding the confirmation code.
func (r *Repository) FindByAuthCode(ctx context.Context, code uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).Where("auth_code = ?", code).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *Repository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.Exists(ctx, &models.User{}, func(q *gorm.DB) *gorm.DB {
		return q.Where("email = ?", email)
	})
}

// ExistsByNickname reports whether another user holds the nickname. excludeID
// skips the caller's own row; zero checks every row.
func (r *Repository) ExistsByNickname(ctx context.Context, nickname string, excludeID uint64) (bool, error) {
	return r.Exists(ctx, &models.User{}, func(q *gorm.DB) *gorm.DB {
		q = q.Where("nickname = ?", nickname)
		if excludeID != 0 {
			q = q.Where("id <> ?", excludeID)
		}
		return q
	})
}

// Activate clears the confirmation code and activates the user in one
// statement. It reports false when the code no longer matches a pending row.
func (r *Repository) Activate(ctx context.Context, id uint64, code uuid.UUID) (bool, error) {
	result := r.DB(ctx).
		Model(&models.User{}).
		Where("id = ? AND auth_code = ? AND is_active = ?", id, code, false).
		Updates(map[string]any{
			"is_active":           true,
			"auth_code":           nil,
			"auth_code_issued_at": nil,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// UpdateAuthCode replaces the confirmation code of a pending user and restarts
// its age. Inactive rows without a code were not registered through
// confirmation and are left alone.
func (r *Repository) UpdateAuthCode(ctx context.Context, id uint64, code uuid.UUID, issuedAt time.Time) error {
	result := r.DB(ctx).
		Model(&models.User{}).
		Where("id = ? AND is_active = ? AND auth_code IS NOT NULL", id, false).
		Updates(map[string]any{
			"auth_code":           code,
			"auth_code_issued_at": issuedAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) UpdateProfile(ctx context.Context, id uint64, update ProfileUpdate) error {
	fields := map[string]any{
		"nickname":          update.Nickname,
		"development_field": update.DevelopmentField,
		"content":           update.Content,
	}
	if update.ProfileImage != nil {
		fields["profile_image"] = *update.ProfileImage
	}

	result := r.DB(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return mapUniqueViolation(result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) UpdatePassword(ctx context.Context, id uint64, passwordHash string) error {
	result := r.DB(ctx).Model(&models.User{}).Where("id = ?", id).Update("password_hash", passwordHash)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateLastLogin updates the last login timestamp.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uint64, at time.Time) error {
	return r.DB(ctx).Model(&models.User{}).Where("id = ?", id).UpdateColumn("last_login_at", at).Error
}

func (r *Repository) Delete(ctx context.Context, id uint64) error {
	result := r.DB(ctx).Where("id = ?", id).Delete(&models.User{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListPendingBefore returns up to limit users still waiting on a confirmation
// code issued before cutoff, oldest code first.
func (r *Repository) ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.User, error) {
	var pending []models.User
	err := r.pending(ctx, cutoff).
		Order("auth_code_issued_at ASC, id ASC").
		Limit(limit).
		Find(&pending).Error
	if err != nil {
		return nil, err
	}
	return pending, nil
}

// DeletePending removes the user only while its confirmation code is still
// older than cutoff. A code resent in the meantime keeps the row.
func (r *Repository) DeletePending(ctx context.Context, id uint64, cutoff time.Time) (bool, error) {
	result := r.pending(ctx, cutoff).Where("id = ?", id).Delete(&models.User{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *Repository) pending(ctx context.Context, cutoff time.Time) *gorm.DB {
	return r.DB(ctx).
		Model(&models.User{}).
		Where("is_active = ? AND auth_code IS NOT NULL AND auth_code_issued_at < ?", false, cutoff.UTC())
}

func mapUniqueViolation(err error) error {
	switch {
	case db.IsUniqueViolation(err, "email"):
		return ErrDuplicateEmail
	case db.IsUniqueViolation(err, "nickname"):
		return ErrDuplicateNickname
	default:
		return err
	}
}
