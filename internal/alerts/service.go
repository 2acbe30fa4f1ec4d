package alerts

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/devtail-backend/pkg/db/models"
	"github.com/angelmondragon/devtail-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/devtail-backend/pkg/errors"
	"github.com/angelmondragon/devtail-backend/pkg/pagination"
)

const (
	maxContentLength = 100
	maxURLLength     = 100

	MsgNotFound        = "alerts.not_found"
	msgContentRequired = "alerts.content.required"
	msgContentTooLong  = "alerts.content.too_long"
	msgURLTooLong      = "alerts.url.too_long"
	msgCategoryInvalid = "alerts.category.invalid"
)

// Service defines alert create/list/read operations. Create is the entry point
// other subsystems use to notify a user.
type Service interface {
	WithTx(tx *gorm.DB) Service
	Create(ctx context.Context, params CreateParams) (*AlertDTO, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	MarkRead(ctx context.Context, userID, alertID uint64) error
	MarkAllRead(ctx context.Context, userID uint64) (int64, error)
	Delete(ctx context.Context, userID, alertID uint64) error
	DeleteForUser(ctx context.Context, userID uint64) (int64, error)
}

type service struct {
	repo Repository
}

// CreateParams describes a new alert.
type CreateParams struct {
	UserID   uint64
	Category enums.AlertCategory
	Content  string
	URL      *string
}

// ListParams configures pagination for alerts.
type ListParams struct {
	UserID     uint64
	Limit      int
	Cursor     string
	UnreadOnly bool
}

// AlertDTO is the API representation of an alert.
type AlertDTO struct {
	ID        uint64              `json:"id"`
	Category  enums.AlertCategory `json:"category"`
	Content   string              `json:"content"`
	IsRead    bool                `json:"is_read"`
	URL       *string             `json:"url,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

// ListResult wraps returned alerts and the cursor for the next page.
type ListResult struct {
	Items  []AlertDTO `json:"items"`
	Cursor string     `json:"cursor"`
}

// NewService wires alert dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "alerts repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) WithTx(tx *gorm.DB) Service {
	return &service{repo: s.repo.WithTx(tx)}
}

func (s *service) Create(ctx context.Context, params CreateParams) (*AlertDTO, error) {
	if params.UserID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	content := strings.TrimSpace(params.Content)
	if err := validateCreate(params.Category, content, params.URL); err != nil {
		return nil, err
	}

	alert := &models.Alert{
		UserID:   params.UserID,
		Category: params.Category,
		Content:  content,
		URL:      params.URL,
	}
	if err := s.repo.Create(ctx, alert); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create alert")
	}
	dto := toDTO(*alert)
	return &dto, nil
}

func validateCreate(category enums.AlertCategory, content string, url *string) error {
	var errs error
	if !category.IsValid() {
		errs = multierr.Append(errs, pkgerrors.Field("category", msgCategoryInvalid))
	}
	switch {
	case content == "":
		errs = multierr.Append(errs, pkgerrors.Field("content", msgContentRequired))
	case utf8.RuneCountInString(content) > maxContentLength:
		errs = multierr.Append(errs, pkgerrors.Field("content", msgContentTooLong))
	}
	if url != nil && utf8.RuneCountInString(*url) > maxURLLength {
		errs = multierr.Append(errs, pkgerrors.Field("url", msgURLTooLong))
	}
	return pkgerrors.FromFieldErrors(errs)
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.UserID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	query := listAlertsParams{
		UserID:     params.UserID,
		Limit:      params.Limit,
		UnreadOnly: params.UnreadOnly,
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	query.Cursor = cursor

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list alerts")
	}

	items := make([]AlertDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, toDTO(row))
	}
	result := &ListResult{Items: items}
	if next != nil {
		result.Cursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

func (s *service) MarkRead(ctx context.Context, userID, alertID uint64) error {
	if userID == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if alertID == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, MsgNotFound)
	}

	result, err := s.repo.MarkRead(ctx, userID, alertID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark alert read")
	}
	if !result.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, MsgNotFound)
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, userID uint64) (int64, error) {
	if userID == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	count, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark alerts read")
	}
	return count, nil
}

func (s *service) Delete(ctx context.Context, userID, alertID uint64) error {
	if userID == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	deleted, err := s.repo.Delete(ctx, userID, alertID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete alert")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, MsgNotFound)
	}
	return nil
}

func (s *service) DeleteForUser(ctx context.Context, userID uint64) (int64, error) {
	count, err := s.repo.DeleteByUser(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete user alerts")
	}
	return count, nil
}

func toDTO(a models.Alert) AlertDTO {
	return AlertDTO{
		ID:        a.ID,
		Category:  a.Category,
		Content:   a.Content,
		IsRead:    a.IsRead,
		URL:       a.URL,
		CreatedAt: a.CreatedAt,
	}
}
