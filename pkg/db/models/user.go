package models

import (
	"time"

	"github.com/angelmondragon/devtail-backend/pkg/enums"
	"github.com/google/uuid"
)

// User is the account entity. AuthCode is set while the account waits for
// email confirmation and cleared on activation. AuthCodeIssuedAt follows the
// latest code and ages pending accounts.
type User struct {
	ID               uint64                 `gorm:"primaryKey;autoIncrement"`
	Email            string                 `gorm:"type:varchar(254);not null;uniqueIndex:idx_users_email"`
	PasswordHash     string                 `gorm:"column:password_hash;not null"`
	Nickname         string                 `gorm:"type:varchar(15);not null;uniqueIndex:idx_users_nickname"`
	DevelopmentField enums.DevelopmentField `gorm:"column:development_field;type:varchar(20);not null"`
	Content          *string                `gorm:"column:content;type:text"`
	ProfileImage     *string                `gorm:"column:profile_image;type:varchar(255)"`
	IsActive         bool                   `gorm:"column:is_active;not null;default:false"`
	AuthCode         *uuid.UUID             `gorm:"column:auth_code;type:uuid;uniqueIndex:idx_users_auth_code"`
	AuthCodeIssuedAt *time.Time             `gorm:"column:auth_code_issued_at"`
	LastLoginAt      *time.Time             `gorm:"column:last_login_at"`
	CreatedAt        time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
