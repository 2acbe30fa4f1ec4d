package config

const (
	EnvPrefix = "DEVTAIL"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv        = "DEVTAIL_APP_ENV"
	EnvPort          = "DEVTAIL_APP_PORT"
	EnvPublicURL     = "DEVTAIL_APP_PUBLIC_URL"
	EnvLoginURL      = "DEVTAIL_APP_LOGIN_URL"
	EnvLoginRedirect = "DEVTAIL_APP_LOGIN_REDIRECT"
	EnvCORSOrigins   = "DEVTAIL_CORS_ALLOWED_ORIGINS"
	EnvLogLevel      = "DEVTAIL_LOG_LEVEL"
	EnvLogWarnStack  = "DEVTAIL_LOG_WARN_STACK"
	EnvLogFormat     = "DEVTAIL_LOG_FORMAT"

	EnvDBDSN      = "DEVTAIL_DB_DSN"
	EnvDBDriver   = "DEVTAIL_DB_DRIVER"
	EnvDBHost     = "DEVTAIL_DB_HOST"
	EnvDBPort     = "DEVTAIL_DB_PORT"
	EnvDBUser     = "DEVTAIL_DB_USER"
	EnvDBPassword = "DEVTAIL_DB_PASSWORD"
	EnvDBName     = "DEVTAIL_DB_NAME"
	EnvDBSSLMode  = "DEVTAIL_DB_SSLMODE"

	EnvRedisURL = "DEVTAIL_REDIS_URL"

	EnvJWTSecret              = "DEVTAIL_JWT_SECRET"
	EnvJWTIssuer              = "DEVTAIL_JWT_ISSUER"
	EnvJWTExpMins             = "DEVTAIL_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "DEVTAIL_REFRESH_TOKEN_TTL_MINUTES"
	EnvPasswordResetTTL       = "DEVTAIL_PASSWORD_RESET_TTL"

	EnvMailHost      = "DEVTAIL_MAIL_HOST"
	EnvMailPort      = "DEVTAIL_MAIL_PORT"
	EnvMailUsername  = "DEVTAIL_MAIL_USERNAME"
	EnvMailPassword  = "DEVTAIL_MAIL_PASSWORD"
	EnvMailFrom      = "DEVTAIL_MAIL_FROM"
	EnvMailTLSPolicy = "DEVTAIL_MAIL_TLS_POLICY"

	EnvStorageBucket     = "DEVTAIL_STORAGE_BUCKET"
	EnvStorageRegion     = "DEVTAIL_STORAGE_REGION"
	EnvStorageEndpoint   = "DEVTAIL_STORAGE_ENDPOINT"
	EnvStorageAccessKey  = "DEVTAIL_STORAGE_ACCESS_KEY"
	EnvStorageSecretKey  = "DEVTAIL_STORAGE_SECRET_KEY"
	EnvStoragePublicURL  = "DEVTAIL_STORAGE_PUBLIC_URL"
	EnvStorageMaxImageMB = "DEVTAIL_STORAGE_MAX_IMAGE_MB"

	EnvAutoMigrate = "DEVTAIL_AUTO_MIGRATE"

	EnvRetentionInterval       = "DEVTAIL_RETENTION_INTERVAL"
	EnvRetentionReadAlertAge   = "DEVTAIL_RETENTION_READ_ALERT_MAX_AGE"
	EnvRetentionPendingAccount = "DEVTAIL_RETENTION_PENDING_ACCOUNT_TTL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
