package testutil

import (
	"errors"
	"os"
	"testing"

	"github.com/ethaccount/recovery/src/utils"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var migrationPath = "file://" + utils.ProjectPath("migrations")

// SetupTestDB connects to TEST_DB_URL and applies the migrations. The test is
// skipped when no database is configured.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	LoadEnv()

	dsn := os.Getenv("TEST_DB_URL")
	if dsn == "" {
		t.Skip("TEST_DB_URL is not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	migration, err := migrate.New(migrationPath, dsn)
	if err != nil {
		t.Fatalf("failed to create migrate: %v", err)
	}
	if err := migration.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func CleanupTestDB(t *testing.T, db *gorm.DB) {
	t.Helper()

	dsn := os.Getenv("TEST_DB_URL")
	migration, err := migrate.New(migrationPath, dsn)
	if err != nil {
		t.Fatalf("failed to create migrate: %v", err)
	}
	if err := migration.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		t.Logf("Warning: failed to roll back migrations: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
