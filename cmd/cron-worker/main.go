package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/devtail-backend/internal/alerts"
	"github.com/angelmondragon/devtail-backend/internal/cron"
	"github.com/angelmondragon/devtail-backend/internal/users"
	"github.com/angelmondragon/devtail-backend/pkg/config"
	"github.com/angelmondragon/devtail-backend/pkg/db"
	"github.com/angelmondragon/devtail-backend/pkg/logger"
	"github.com/angelmondragon/devtail-backend/pkg/metrics"
	"github.com/angelmondragon/devtail-backend/pkg/migrate"
	"github.com/angelmondragon/devtail-backend/pkg/redis"
	"github.com/angelmondragon/devtail-backend/pkg/storage/s3"
)

const serviceName = "cron-worker"

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	retentionMetrics := metrics.NewRetentionMetrics(prometheus.DefaultRegisterer)
	alertsRepo := alerts.NewRepository(dbClient.DB())

	alertJob, err := cron.NewAlertRetentionJob(cron.AlertRetentionJobParams{
		Logger:  logg,
		Alerts:  alertsRepo,
		MaxAge:  cfg.Retention.ReadAlertMaxAge,
		Metrics: retentionMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create alert retention job", err)
		os.Exit(1)
	}

	pendingParams := cron.PendingAccountJobParams{
		Logger:  logg,
		DB:      dbClient,
		Users:   users.NewRepository(dbClient.DB()),
		Alerts:  alertsRepo,
		MaxAge:  cfg.Retention.PendingAccountTTL,
		Metrics: retentionMetrics,
	}
	if cfg.Storage.Enabled() {
		storageClient, err := s3.NewClient(context.Background(), cfg.Storage, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap object storage", err)
			os.Exit(1)
		}
		pendingParams.Images = storageClient
	}
	pendingJob, err := cron.NewPendingAccountJob(pendingParams)
	if err != nil {
		logg.Error(context.Background(), "failed to create pending account job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(serviceName+":"+cfg.App.Env), cfg.Retention.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(alertJob, pendingJob),
		Lock:     lock,
		Metrics:  retentionMetrics,
		Interval: cfg.Retention.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"interval": cfg.Retention.Interval.String(),
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}
