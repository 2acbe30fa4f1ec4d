package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Mail          MailConfig
	Storage       StorageConfig
	Retention     RetentionConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.App.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env                string   `envconfig:"DEVTAIL_APP_ENV" required:"true"`
	Port               string   `envconfig:"DEVTAIL_APP_PORT" required:"true"`
	PublicURL          string   `envconfig:"DEVTAIL_APP_PUBLIC_URL" default:"http://localhost:8080"`
	LoginURL           string   `envconfig:"DEVTAIL_APP_LOGIN_URL" default:"/accounts/login"`
	LoginRedirect      string   `envconfig:"DEVTAIL_APP_LOGIN_REDIRECT" default:"/"`
	CORSAllowedOrigins []string `envconfig:"DEVTAIL_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
	LogLevel           string   `envconfig:"DEVTAIL_LOG_LEVEL" default:"info"`
	LogFormat          string   `envconfig:"DEVTAIL_LOG_FORMAT" default:"json"`
	LogWarnStack       bool     `envconfig:"DEVTAIL_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

func (a AppConfig) validate() error {
	u, err := url.Parse(a.PublicURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute url, got %q", EnvPublicURL, a.PublicURL)
	}
	return nil
}

type DBConfig struct {
	DSN    string `envconfig:"DEVTAIL_DB_DSN"`
	Driver string `envconfig:"DEVTAIL_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"DEVTAIL_DB_HOST"`
	LegacyPort     int    `envconfig:"DEVTAIL_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"DEVTAIL_DB_USER"`
	LegacyPassword string `envconfig:"DEVTAIL_DB_PASSWORD"`
	LegacyName     string `envconfig:"DEVTAIL_DB_NAME"`
	LegacySSLMode  string `envconfig:"DEVTAIL_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DEVTAIL_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DEVTAIL_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DEVTAIL_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DEVTAIL_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the configured driver is the embedded sqlite one.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, "sqlite")
}

type RedisConfig struct {
	URL          string        `envconfig:"DEVTAIL_REDIS_URL" required:"true"`
	Address      string        `envconfig:"DEVTAIL_REDIS_ADDR"`
	Password     string        `envconfig:"DEVTAIL_REDIS_PASSWORD"`
	DB           int           `envconfig:"DEVTAIL_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DEVTAIL_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DEVTAIL_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DEVTAIL_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DEVTAIL_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DEVTAIL_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string        `envconfig:"DEVTAIL_JWT_SECRET" required:"true"`
	Issuer                 string        `envconfig:"DEVTAIL_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int           `envconfig:"DEVTAIL_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int           `envconfig:"DEVTAIL_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
	PasswordResetTTL       time.Duration `envconfig:"DEVTAIL_PASSWORD_RESET_TTL" default:"72h"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"DEVTAIL_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"DEVTAIL_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"DEVTAIL_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"DEVTAIL_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"DEVTAIL_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"DEVTAIL_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"DEVTAIL_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"DEVTAIL_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"DEVTAIL_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"DEVTAIL_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"DEVTAIL_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
	MailWindow         time.Duration `envconfig:"DEVTAIL_AUTH_RATE_LIMIT_MAIL_WINDOW" default:"15m"`
	MailEmailLimit     int           `envconfig:"DEVTAIL_AUTH_RATE_LIMIT_MAIL_EMAIL_LIMIT" default:"3"`
	MailIPLimit        int           `envconfig:"DEVTAIL_AUTH_RATE_LIMIT_MAIL_IP_LIMIT" default:"10"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"DEVTAIL_AUTO_MIGRATE" default:"false"`
}

// MailConfig configures the outbound SMTP relay. An empty host routes mail to
// the log instead of the network.
type MailConfig struct {
	Host      string `envconfig:"DEVTAIL_MAIL_HOST"`
	Port      int    `envconfig:"DEVTAIL_MAIL_PORT" default:"587"`
	Username  string `envconfig:"DEVTAIL_MAIL_USERNAME"`
	Password  string `envconfig:"DEVTAIL_MAIL_PASSWORD"`
	From      string `envconfig:"DEVTAIL_MAIL_FROM" default:"deVtail <no-reply@devtail.local>"`
	TLSPolicy string `envconfig:"DEVTAIL_MAIL_TLS_POLICY" default:"opportunistic"`
}

// Enabled reports whether an SMTP relay is configured.
func (m MailConfig) Enabled() bool {
	return strings.TrimSpace(m.Host) != ""
}

// StorageConfig points at the S3 compatible bucket holding profile images.
type StorageConfig struct {
	Bucket     string `envconfig:"DEVTAIL_STORAGE_BUCKET"`
	Region     string `envconfig:"DEVTAIL_STORAGE_REGION" default:"ap-northeast-2"`
	Endpoint   string `envconfig:"DEVTAIL_STORAGE_ENDPOINT"`
	AccessKey  string `envconfig:"DEVTAIL_STORAGE_ACCESS_KEY"`
	SecretKey  string `envconfig:"DEVTAIL_STORAGE_SECRET_KEY"`
	PublicURL  string `envconfig:"DEVTAIL_STORAGE_PUBLIC_URL"`
	PathStyle  bool   `envconfig:"DEVTAIL_STORAGE_PATH_STYLE" default:"false"`
	MaxImageMB int    `envconfig:"DEVTAIL_STORAGE_MAX_IMAGE_MB" default:"5"`
}

// Enabled reports whether a bucket is configured.
func (s StorageConfig) Enabled() bool {
	return strings.TrimSpace(s.Bucket) != ""
}

// MaxImageBytes returns the upload ceiling for a single profile image.
func (s StorageConfig) MaxImageBytes() int64 {
	if s.MaxImageMB <= 0 {
		return 5 << 20
	}
	return int64(s.MaxImageMB) << 20
}

// RetentionConfig drives the cleanup worker. A zero age disables its job.
type RetentionConfig struct {
	Interval          time.Duration `envconfig:"DEVTAIL_RETENTION_INTERVAL" default:"1h"`
	LockTTL           time.Duration `envconfig:"DEVTAIL_RETENTION_LOCK_TTL" default:"50m"`
	ReadAlertMaxAge   time.Duration `envconfig:"DEVTAIL_RETENTION_READ_ALERT_MAX_AGE" default:"720h"`
	PendingAccountTTL time.Duration `envconfig:"DEVTAIL_RETENTION_PENDING_ACCOUNT_TTL" default:"168h"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = "file:devtail.db?_foreign_keys=on"
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
