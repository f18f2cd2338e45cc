// Package testutil provides shared helpers for repository integration
// tests. All database-backed tests are gated on TEST_POSTGRES_DSN so the
// suite stays runnable without infrastructure.
package testutil

import (
	"os"
	"testing"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/barisgudul/therapy-backend/internal/data/db"
	"github.com/barisgudul/therapy-backend/internal/pkg/logger"
)

// Logger returns a quiet logger suitable for tests.
func Logger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(func() {
		log.Sync()
	})
	return log
}

// DB opens a connection to the test database, migrating all models.
// Skips the test when TEST_POSTGRES_DSN is unset.
func DB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("set TEST_POSTGRES_DSN to run database integration tests")
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("gorm.Open: %v", err)
	}
	if err := db.AutoMigrateAll(gdb); err != nil {
		t.Fatalf("AutoMigrateAll: %v", err)
	}
	t.Cleanup(func() {
		sqlDB, err := gdb.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}

// Tx begins a transaction that is rolled back when the test finishes,
// keeping the shared test database clean between runs.
func Tx(t *testing.T) *gorm.DB {
	t.Helper()
	gdb := DB(t)
	tx := gdb.Begin()
	if tx.Error != nil {
		t.Fatalf("begin tx: %v", tx.Error)
	}
	t.Cleanup(func() {
		_ = tx.Rollback()
	})
	return tx
}
