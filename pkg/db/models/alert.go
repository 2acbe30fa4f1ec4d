package models

import (
	"time"

	"github.com/angelmondragon/devtail-backend/pkg/enums"
)

// Alert is an in-app notification owned by a user. CreatedAt is written once.
type Alert struct {
	ID        uint64              `gorm:"primaryKey;autoIncrement"`
	UserID    uint64              `gorm:"column:user_id;not null;index:idx_alerts_user_created,priority:1"`
	Category  enums.AlertCategory `gorm:"column:category;type:varchar(20);not null"`
	Content   string              `gorm:"column:content;type:varchar(100);not null"`
	IsRead    bool                `gorm:"column:is_read;not null;default:false"`
	URL       *string             `gorm:"column:url;type:varchar(100)"`
	CreatedAt time.Time           `gorm:"column:created_at;<-:create;autoCreateTime;index:idx_alerts_user_created,priority:2"`
}
