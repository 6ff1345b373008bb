package db

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/instrument-catalog/internal/pkg/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Driver string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresName     string
	PostgresSSLMode  string

	SQLitePath string
}

func (c Config) PostgresDSN() string {
	sslMode := c.PostgresSSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.PostgresUser,
		c.PostgresPassword,
		c.PostgresHost,
		c.PostgresPort,
		c.PostgresName,
		sslMode,
	)
}

// SQLiteDSN turns foreign key enforcement on, which sqlite leaves off by default.
func (c Config) SQLiteDSN() string {
	path := c.SQLitePath
	if path == "" {
		path = "catalog.db"
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=1"
}

type DatabaseService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDatabaseService(cfg Config, logg *logger.Logger) (*DatabaseService, error) {
	serviceLog := logg.With("service", "DatabaseService", "driver", cfg.Driver)

	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	gcfg := &gorm.Config{Logger: gormLog}

	var (
		db  *gorm.DB
		err error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case DriverPostgres, "postgresql", "pg":
		db, err = gorm.Open(postgres.Open(cfg.PostgresDSN()), gcfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
		}
	case DriverSQLite, "", "sqlite3":
		db, err = gorm.Open(sqlite.Open(cfg.SQLiteDSN()), gcfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		// sqlite allows a single writer; serialize through one connection.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("sqlite handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}

	serviceLog.Info("Database connected")
	return &DatabaseService{db: db, log: serviceLog}, nil
}

func (s *DatabaseService) DB() *gorm.DB { return s.db }

func (s *DatabaseService) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *DatabaseService) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
