package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/devtail-backend/pkg/db/models"
	"github.com/angelmondragon/devtail-backend/pkg/enums"
)

// UserDTO is the transport shape that omits credentials. Email is only filled
// in when the viewer owns the account.
type UserDTO struct {
	ID               uint64                 `json:"id"`
	Email            string                 `json:"email,omitempty"`
	Nickname         string                 `json:"nickname"`
	DevelopmentField enums.DevelopmentField `json:"development_field"`
	Content          *string                `json:"content,omitempty"`
	ProfileImageURL  *string                `json:"profile_image_url,omitempty"`
	IsActive         bool                   `json:"is_active"`
	LastLoginAt      *time.Time             `json:"last_login_at,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
// A zero AuthCodeIssuedAt means now.
type CreateUserDTO struct {
	Email            string
	PasswordHash     string
	Nickname         string
	DevelopmentField enums.DevelopmentField
	Content          *string
	ProfileImage     *string
	AuthCode         uuid.UUID
	AuthCodeIssuedAt time.Time
}

// ProfileUpdate is the full editable state of a profile. A nil ProfileImage
// keeps the stored image.
type ProfileUpdate struct {
	Nickname         string
	DevelopmentField enums.DevelopmentField
	Content          *string
	ProfileImage     *string
}

// FromModel maps a user to its DTO. imageURL resolves a stored object key to a
// public URL; nil leaves the key as is.
func FromModel(u *models.User, imageURL func(key string) string) *UserDTO {
	if u == nil {
		return nil
	}

	dto := &UserDTO{
		ID:               u.ID,
		Email:            u.Email,
		Nickname:         u.Nickname,
		DevelopmentField: u.DevelopmentField,
		Content:          u.Content,
		IsActive:         u.IsActive,
		LastLoginAt:      u.LastLoginAt,
		CreatedAt:        u.CreatedAt,
	}
	if u.ProfileImage != nil && *u.ProfileImage != "" {
		url := *u.ProfileImage
		if imageURL != nil {
			url = imageURL(url)
		}
		dto.ProfileImageURL = &url
	}
	return dto
}

// Public returns a copy without owner-only fields.
func (d *UserDTO) Public() *UserDTO {
	if d == nil {
		return nil
	}
	out := *d
	out.Email = ""
	out.LastLoginAt = nil
	return &out
}

func (c CreateUserDTO) ToModel() *models.User {
	code := c.AuthCode
	issued := c.AuthCodeIssuedAt
	if issued.IsZero() {
		issued = time.Now()
	}
	issued = issued.UTC()
	return &models.User{
		Email:            c.Email,
		PasswordHash:     c.PasswordHash,
		Nickname:         c.Nickname,
		DevelopmentField: c.DevelopmentField,
		Content:          c.Content,
		ProfileImage:     c.ProfileImage,
		IsActive:         false,
		AuthCode:         &code,
		AuthCodeIssuedAt: &issued,
	}
}
