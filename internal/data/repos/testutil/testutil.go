package testutil

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	dbpkg "github.com/yungbote/instrument-catalog/internal/data/db"
	"github.com/yungbote/instrument-catalog/internal/pkg/logger"
)

var (
	pgOnce sync.Once
	pgDB   *gorm.DB
	pgErr  error

	logOnce sync.Once
	logg    *logger.Logger
	logErr  error

	memSeq atomic.Int64
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	logOnce.Do(func() {
		logg, logErr = logger.New("test")
	})
	if logErr != nil {
		tb.Fatalf("failed to init logger: %v", logErr)
	}
	return logg
}

// DB returns a migrated database. With TEST_POSTGRES_DSN set every caller
// shares one Postgres database; otherwise each call gets a private in-memory
// sqlite database that is closed when the test ends.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()
	if dsn := os.Getenv("TEST_POSTGRES_DSN"); dsn != "" {
		pgOnce.Do(func() {
			pgDB, pgErr = gorm.Open(postgres.Open(dsn), &gorm.Config{
				Logger: gormLogger.Default.LogMode(gormLogger.Silent),
			})
			if pgErr == nil {
				pgErr = dbpkg.AutoMigrateAll(pgDB)
			}
		})
		if pgErr != nil {
			tb.Fatalf("failed to init test db: %v", pgErr)
		}
		return pgDB
	}

	dsn := fmt.Sprintf("file:catalogtest%d?mode=memory&cache=shared&_foreign_keys=1", memSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })

	if err := dbpkg.AutoMigrateAll(db); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	return db
}

func Tx(tb testing.TB, db *gorm.DB) *gorm.DB {
	tb.Helper()
	tx := db.Begin()
	if tx.Error != nil {
		tb.Fatalf("begin tx: %v", tx.Error)
	}
	tb.Cleanup(func() {
		_ = tx.Rollback().Error
	})
	return tx
}
