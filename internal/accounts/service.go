package accounts

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/devtail-backend/internal/alerts"
	"github.com/angelmondragon/devtail-backend/internal/users"
	pkgAuth "github.com/angelmondragon/devtail-backend/pkg/auth"
	"github.com/angelmondragon/devtail-backend/pkg/auth/session"
	"github.com/angelmondragon/devtail-backend/pkg/config"
	"github.com/angelmondragon/devtail-backend/pkg/db"
	"github.com/angelmondragon/devtail-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/devtail-backend/pkg/errors"
	"github.com/angelmondragon/devtail-backend/pkg/logger"
	"github.com/angelmondragon/devtail-backend/pkg/mail"
	"github.com/angelmondragon/devtail-backend/pkg/metrics"
	"github.com/angelmondragon/devtail-backend/pkg/security"
)

// Service runs the account workflows: registration and confirmation, login,
// profile management, password change and reset, and deletion.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) error
	ConfirmEmail(ctx context.Context, token string) error
	ResendConfirmation(ctx context.Context, email string) error
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	GetProfile(ctx context.Context, caller pkgAuth.Caller, userID uint64) (*users.UserDTO, error)
	UpdateProfile(ctx context.Context, caller pkgAuth.Caller, req UpdateProfileRequest) (*users.UserDTO, error)
	ChangePassword(ctx context.Context, caller pkgAuth.Caller, req ChangePasswordRequest) (*TokenPair, error)
	DeleteAccount(ctx context.Context, caller pkgAuth.Caller, password string) error
	RequestPasswordReset(ctx context.Context, email string) error
	CheckResetLink(ctx context.Context, uidb64, token string) error
	ResetPassword(ctx context.Context, req ResetPasswordRequest) error
}

type sessionManager interface {
	Generate(ctx context.Context, userID uint64, accessID string) (string, error)
	RevokeAll(ctx context.Context, userID uint64) error
}

// LoginPolicy decides whether a user whose password checked out may log in.
type LoginPolicy func(user *models.User) error

// RequireActive blocks accounts that have not confirmed their email.
func RequireActive(user *models.User) error {
	if !user.IsActive {
		return pkgerrors.New(pkgerrors.CodeForbidden, MsgLoginInactive)
	}
	return nil
}

// ServiceParams bundles the dependencies required to build the accounts service.
type ServiceParams struct {
	DB             *db.Client
	Alerts         alerts.Service
	SessionManager sessionManager
	Mailer         mail.Sender
	// Images may be nil when no bucket is configured; uploads then fail.
	Images      objectStore
	Metrics     *metrics.AccountMetrics
	LoginPolicy LoginPolicy
	Config      config.Config
	Logger      *logger.Logger
}

type service struct {
	db       *db.Client
	users    *users.Repository
	alerts   alerts.Service
	sessions sessionManager
	notifier *notifier
	images   objectStore
	metrics  *metrics.AccountMetrics
	policy   LoginPolicy
	cfg      config.Config
	logg     *logger.Logger
	now      func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewService constructs the accounts service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("database client is required")
	}
	if params.Alerts == nil {
		return nil, fmt.Errorf("alerts service is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.Mailer == nil {
		return nil, fmt.Errorf("mailer is required")
	}
	policy := params.LoginPolicy
	if policy == nil {
		policy = RequireActive
	}
	return &service{
		db:       params.DB,
		users:    users.NewRepository(params.DB.DB()),
		alerts:   params.Alerts,
		sessions: params.SessionManager,
		notifier: &notifier{
			sender:    params.Mailer,
			publicURL: params.Config.App.PublicURL,
			metrics:   params.Metrics,
		},
		images:  params.Images,
		metrics: params.Metrics,
		policy:  policy,
		cfg:     params.Config,
		logg:    params.Logger,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

func requireCaller(caller pkgAuth.Caller) error {
	if !caller.Authenticated() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, MsgUnauthenticated)
	}
	return nil
}

// loadCaller fetches the authenticated user. A session that outlived its
// account is treated as unauthenticated.
func (s *service) loadCaller(ctx context.Context, caller pkgAuth.Caller) (*models.User, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, caller.UserID)
	if err != nil {
		if isNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, MsgUnauthenticated)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	return user, nil
}

// issueSession mints an access token and stores the matching refresh session.
func (s *service) issueSession(ctx context.Context, userID uint64, now time.Time) (*TokenPair, error) {
	accessID := session.NewAccessID()
	accessToken, err := pkgAuth.MintAccessToken(s.cfg.JWT, now, pkgAuth.AccessTokenPayload{
		UserID: userID,
		JTI:    accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	refreshToken, err := s.sessions.Generate(ctx, userID, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store refresh token")
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// revokeSessions drops every session of the user. The credential change has
// already been committed, so a failure is logged rather than returned.
func (s *service) revokeSessions(ctx context.Context, userID uint64) {
	if err := s.sessions.RevokeAll(ctx, userID); err != nil && s.logg != nil {
		s.logg.Error(s.logg.WithUserID(ctx, userID), "revoke sessions failed", err)
	}
}

func (s *service) hashPassword(password string) (string, error) {
	hash, err := security.HashPassword(password, s.cfg.Password)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	return hash, nil
}

func (s *service) verifyPassword(user *models.User, password string) (bool, error) {
	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	return ok, nil
}

// upgradeHash re-hashes a verified password whose stored hash was made with
// older argon2 costs. Failures only cost the upgrade.
func (s *service) upgradeHash(ctx context.Context, user *models.User, password string) {
	if !security.NeedsRehash(user.PasswordHash, s.cfg.Password) {
		return
	}
	hash, err := s.hashPassword(password)
	if err == nil {
		err = s.users.UpdatePassword(ctx, user.ID, hash)
	}
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithUserID(ctx, user.ID), "password hash upgrade failed")
		}
		return
	}
	user.PasswordHash = hash
}

// burnPasswordCheck spends the same work as a real verification so unknown
// emails cannot be told apart by latency.
func (s *service) burnPasswordCheck(password string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = security.HashPassword("devtail-unknown-user", s.cfg.Password)
	})
	if s.dummyHash != "" && password != "" {
		_, _ = security.VerifyPassword(password, s.dummyHash)
	}
}

// redirectTarget returns next when it is a same-site path and the configured
// landing page otherwise.
func (s *service) redirectTarget(next string) string {
	next = strings.TrimSpace(next)
	if next != "" && strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") && !strings.Contains(next, `\`) {
		if u, err := url.Parse(next); err == nil && u.Scheme == "" && u.Host == "" {
			return next
		}
	}
	return s.cfg.App.LoginRedirect
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
