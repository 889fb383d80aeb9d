package app

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/proposalpilot-backend/internal/data/db"
	"github.com/yungbote/proposalpilot-backend/internal/data/repos"
	apphttp "github.com/yungbote/proposalpilot-backend/internal/http"
	"github.com/yungbote/proposalpilot-backend/internal/observability"
	"github.com/yungbote/proposalpilot-backend/internal/platform/logger"
)

const serviceName = "proposalpilot"

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Server   *apphttp.Server
	Cfg      Config
	Repos    repos.Repos
	Clients  Clients
	Services Services

	shutdownOTel func(context.Context) error
}

// New wires the full server. A nil log builds one from LOG_MODE.
func New(ctx context.Context, log *logger.Logger) (*App, error) {
	cfg := LoadConfig()
	if log == nil {
		l, err := logger.New(cfg.LogMode)
		if err != nil {
			return nil, fmt.Errorf("init logger: %w", err)
		}
		log = l
	}

	shutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: serviceName,
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})

	theDB, err := db.Open(log, db.ConfigFromEnv())
	if err != nil {
		_ = shutdown(ctx)
		return nil, fmt.Errorf("init database: %w", err)
	}
	cleanup := func() {
		if sqlDB, err := theDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
		_ = shutdown(ctx)
	}
	if err := db.AutoMigrateAll(theDB); err != nil {
		cleanup()
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	if err := db.EnsureIndexes(theDB); err != nil {
		log.Warn("ensure indexes failed", "error", err)
	}

	reposet := repos.New(theDB, log)

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		cleanup()
		return nil, err
	}

	serviceset, err := wireServices(log, cfg, reposet, clients)
	if err != nil {
		clients.Close()
		cleanup()
		return nil, err
	}

	handlerset := wireHandlers(log, theDB, serviceset)
	middleware := wireMiddleware(log, serviceset)

	return &App{
		Log:          log,
		DB:           theDB,
		Server:       wireServer(log, cfg, handlerset, middleware),
		Cfg:          cfg,
		Repos:        reposet,
		Clients:      clients,
		Services:     serviceset,
		shutdownOTel: shutdown,
	}, nil
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	addr := ":" + a.Cfg.Port
	a.Log.Info("Server listening", "addr", addr)
	return a.Server.Run(ctx, addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	a.Clients.Close()
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if a.shutdownOTel != nil {
		ctx, cancel := context.WithTimeout(context.Background(), a.Cfg.ShutdownTimeout)
		defer cancel()
		if err := a.shutdownOTel(ctx); err != nil && a.Log != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
