package migrate

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/angelmondragon/devtail-backend/pkg/config"
	"github.com/angelmondragon/devtail-backend/pkg/db"
	"github.com/angelmondragon/devtail-backend/pkg/db/models"
	"github.com/angelmondragon/devtail-backend/pkg/logger"
	"github.com/google/uuid"
)

func newSQLiteConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: config.AppEnvDev},
		DB: config.DBConfig{
			Driver: "sqlite",
			DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		},
		FeatureFlags: config.FeatureFlagsConfig{AutoMigrate: true},
	}
}

func TestMaybeRunDevAutoMigratesSQLite(t *testing.T) {
	cfg := newSQLiteConfig()
	logg := logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}})
	client, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer client.Close()

	if err := MaybeRunDev(context.Background(), cfg, logg, client); err != nil {
		t.Fatalf("auto-run: %v", err)
	}
	if !client.DB().Migrator().HasTable(&models.User{}) {
		t.Fatal("expected users table")
	}
	if !client.DB().Migrator().HasTable(&models.Alert{}) {
		t.Fatal("expected alerts table")
	}
}

func TestMaybeRunDevSkipsOutsideDev(t *testing.T) {
	cfg := newSQLiteConfig()
	cfg.App.Env = config.AppEnvProd
	logg := logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}})
	client, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer client.Close()

	if err := MaybeRunDev(context.Background(), cfg, logg, client); err != nil {
		t.Fatalf("auto-run: %v", err)
	}
	if client.DB().Migrator().HasTable(&models.User{}) {
		t.Fatal("expected no tables outside dev")
	}
}
