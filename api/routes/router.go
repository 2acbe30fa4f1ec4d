package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/devtail-backend/api/controllers"
	"github.com/angelmondragon/devtail-backend/api/middleware"
	"github.com/angelmondragon/devtail-backend/api/validators"
	"github.com/angelmondragon/devtail-backend/internal/accounts"
	"github.com/angelmondragon/devtail-backend/internal/alerts"
	"github.com/angelmondragon/devtail-backend/pkg/auth/session"
	"github.com/angelmondragon/devtail-backend/pkg/config"
	"github.com/angelmondragon/devtail-backend/pkg/logger"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(ctx context.Context, userID uint64, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, userID uint64, accessID string) error
}

type rateLimitStore interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	readiness map[string]controllers.Pinger,
	rateStore rateLimitStore,
	sessionManager sessionManager,
	accountsService accounts.Service,
	alertsService alerts.Service,
	metricsHandler http.Handler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Locale(),
		middleware.CORS(cfg.App.CORSAllowedOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	maxUpload := cfg.Storage.MaxImageBytes()
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	).WithMaxBody(validators.MaxFormBody(maxUpload))
	mailPolicy := middleware.NewAuthRateLimitPolicy(
		"mail",
		cfg.AuthRateLimit.MailWindow,
		cfg.AuthRateLimit.MailIPLimit,
		cfg.AuthRateLimit.MailEmailLimit,
	)
	requireAuth := middleware.Auth(cfg.JWT, sessionManager, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})

	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api/v1/accounts", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, rateStore, logg)).Post("/register", controllers.AccountsRegister(accountsService, maxUpload, logg))
		r.Get("/confirm/{token}", controllers.AccountsConfirm(accountsService, cfg.App.LoginURL, logg))
		r.With(middleware.AuthRateLimit(mailPolicy, rateStore, logg)).Post("/confirm/resend", controllers.AccountsResendConfirmation(accountsService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, rateStore, logg)).Post("/login", controllers.AccountsLogin(accountsService, logg))
		r.Post("/logout", controllers.AuthLogout(sessionManager, cfg.JWT, logg))
		r.Post("/refresh", controllers.AuthRefresh(sessionManager, cfg.JWT, logg))

		r.Route("/password/reset", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(mailPolicy, rateStore, logg)).Post("/", controllers.AccountsRequestPasswordReset(accountsService, logg))
			r.Get("/{uidb64}/{token}", controllers.AccountsCheckResetLink(accountsService, logg))
			r.Post("/{uidb64}/{token}", controllers.AccountsResetPassword(accountsService, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/profile/{userID}", controllers.AccountsProfile(accountsService, logg))
			r.Put("/profile", controllers.AccountsUpdateProfile(accountsService, maxUpload, logg))
			r.Post("/password/change", controllers.AccountsChangePassword(accountsService, logg))
			r.Post("/delete", controllers.AccountsDelete(accountsService, logg))
		})
	})

	r.Route("/api/v1/alerts", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", controllers.ListAlerts(alertsService, logg))
		r.Post("/read-all", controllers.MarkAllAlertsRead(alertsService, logg))
		r.Post("/{alertID}/read", controllers.MarkAlertRead(alertsService, logg))
		r.Delete("/{alertID}", controllers.DeleteAlert(alertsService, logg))
	})

	return r
}
