package app

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	dbpkg "github.com/yungbote/instrument-catalog/internal/data/db"
	httpx "github.com/yungbote/instrument-catalog/internal/http"
	"github.com/yungbote/instrument-catalog/internal/observability"
	"github.com/yungbote/instrument-catalog/internal/pkg/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Server   *httpx.Server
	Cfg      Config
	Repos    Repos
	Services Services
	Clients  Clients

	dbService    *dbpkg.DatabaseService
	otelShutdown func(context.Context) error
}

// NewLogger builds the process logger from LOG_MODE.
func NewLogger() (*logger.Logger, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	return logger.New(logMode)
}

// OpenDatabase connects and migrates using cfg.DB.
func OpenDatabase(log *logger.Logger, cfg Config) (*dbpkg.DatabaseService, error) {
	dbs, err := dbpkg.NewDatabaseService(cfg.DB, log)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := dbpkg.AutoMigrateAll(dbs.DB()); err != nil {
		_ = dbs.Close()
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	return dbs, nil
}

func New(ctx context.Context, log *logger.Logger) (*App, error) {
	log.Info("Loading environment variables...")
	LoadDotEnv(log)
	cfg := LoadConfig(log)
	if !cfg.Development() {
		gin.SetMode(gin.ReleaseMode)
	}

	otelShutdown := observability.InitOTel(ctx, log, cfg.OTel)

	dbs, err := OpenDatabase(log, cfg)
	if err != nil {
		_ = otelShutdown(ctx)
		return nil, err
	}
	theDB := dbs.DB()

	clients, err := wireClients(log, cfg)
	if err != nil {
		_ = dbs.Close()
		_ = otelShutdown(ctx)
		return nil, err
	}

	metrics := observability.NewMetrics()
	reposet := wireRepos(theDB, log)
	serviceset, err := wireServices(theDB, log, cfg, reposet, clients, metrics)
	if err != nil {
		clients.Close()
		_ = dbs.Close()
		_ = otelShutdown(ctx)
		return nil, err
	}

	handlerset := wireHandlers(log, cfg, serviceset, dbs)
	middleware := wireMiddleware(log, cfg, serviceset)
	server, err := wireServer(log, cfg, serviceset, handlerset, middleware, metrics)
	if err != nil {
		clients.Close()
		_ = dbs.Close()
		_ = otelShutdown(ctx)
		return nil, fmt.Errorf("init http server: %w", err)
	}

	return &App{
		Log:          log,
		DB:           theDB,
		Server:       server,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		Clients:      clients,
		dbService:    dbs,
		otelShutdown: otelShutdown,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Server.Run(ctx, ":"+a.Cfg.Port)
}

func (a *App) Close(ctx context.Context) {
	if a == nil {
		return
	}
	a.Clients.Close()
	if a.dbService != nil {
		if err := a.dbService.Close(); err != nil {
			a.Log.Warn("Closing database failed", "error", err)
		}
	}
	if a.otelShutdown != nil {
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("Tracer shutdown failed", "error", err)
		}
	}
	a.Log.Sync()
}
