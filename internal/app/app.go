// Package app wires configuration into stores, services and the HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/incident-admin/internal/handler"
	"github.com/noah-isme/incident-admin/internal/middleware"
	"github.com/noah-isme/incident-admin/internal/repository"
	"github.com/noah-isme/incident-admin/internal/server"
	"github.com/noah-isme/incident-admin/internal/service"
	"github.com/noah-isme/incident-admin/internal/usertable"
	"github.com/noah-isme/incident-admin/pkg/cache"
	"github.com/noah-isme/incident-admin/pkg/config"
	"github.com/noah-isme/incident-admin/pkg/database"
	"github.com/noah-isme/incident-admin/pkg/export"
)

// App holds the long-lived resources of one process.
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	DB      *sqlx.DB
	Redis   *redis.Client
	Metrics *service.MetricsService

	Users   *service.UserService
	Auth    *service.AuthService
	Exports *service.ExportService
	Server  *server.Server

	userRepo *repository.UserRepository
}

// Open connects to PostgreSQL and, when the configuration asks for it, Redis.
func Open(cfg *config.Config, logger *zap.Logger) (*App, error) {
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	a := &App{Config: cfg, Logger: logger, DB: db, Metrics: service.NewMetricsService()}

	if cfg.Session.Store == config.SessionStoreRedis || cfg.Cache.Enabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			if cfg.Session.Store == config.SessionStoreRedis {
				_ = db.Close()
				return nil, fmt.Errorf("connect redis: %w", err)
			}
			logger.Warn("redis unavailable, list cache disabled", zap.Error(err))
		} else {
			a.Redis = client
		}
	}

	a.userRepo = repository.NewUserRepository(db)
	return a, nil
}

// Migrate applies pending schema migrations.
func (a *App) Migrate() error {
	return database.Migrate(a.DB, a.Logger)
}

// Build creates the services, handlers and router.
func (a *App) Build() error {
	cfg := a.Config
	validate := validator.New()

	var store service.SessionStore
	if a.Redis != nil && cfg.Session.Store == config.SessionStoreRedis {
		store = repository.NewSessionRedisStore(a.Redis)
	} else {
		store = repository.NewSessionMemoryStore(cfg.Session.MemorySize, cfg.Session.TTL)
	}
	sessions := service.NewSessionService(store, service.SessionConfig{
		Secret: cfg.Session.Secret,
		TTL:    cfg.Session.TTL,
		Issuer: cfg.AppName,
	}, a.Metrics, a.Logger)

	cacheRepo := repository.NewCacheRepository(a.Redis, a.Logger)
	listCache := service.NewCacheService(cacheRepo, a.Metrics, cfg.Cache.UsersTTL, a.Logger, cfg.Cache.Enabled && a.Redis != nil)

	a.Users = service.NewUserService(a.userRepo, listCache, a.Metrics, validate, a.Logger, service.UserServiceConfig{
		MaxPageSize: cfg.Table.MaxPageSize,
		CacheTTL:    cfg.Cache.UsersTTL,
	})
	a.Auth = service.NewAuthService(a.userRepo, sessions, validate, a.Metrics, a.Logger)
	a.Exports = service.NewExportService(a.userRepo, service.ExportConfig{
		MaxRows: cfg.Export.MaxRows,
		Title:   cfg.AppName + " users",
	}, a.Logger, export.NewCSVExporter(), export.NewPDFExporter())

	cookie := middleware.CookieConfig{Name: cfg.Session.CookieName, TTL: cfg.Session.TTL, Secure: cfg.Session.Secure}
	defaults := usertable.Defaults(cfg.Table)

	checks := map[string]handler.Pinger{
		"postgres": func(ctx context.Context) error { return database.Ping(ctx, a.DB) },
	}
	if a.Redis != nil {
		checks["redis"] = cacheRepo.Ping
	}

	srv, err := server.New(server.Dependencies{
		Config:        cfg,
		Logger:        a.Logger,
		Metrics:       a.Metrics,
		Authenticator: a.Auth,
		Audit:         a.userRepo,
		Cookie:        cookie,
	}, server.Handlers{
		Auth:  handler.NewAuthHandler(a.Auth, cookie),
		Users: handler.NewUserHandler(a.Users, a.Exports, defaults),
		Pages: handler.NewPageHandler(a.Auth, a.Users, handler.PageConfig{
			AppName:   cfg.AppName,
			APIPrefix: cfg.APIPrefix,
			Debounce:  cfg.Table.SearchDebounce,
			Defaults:  defaults,
			Cookie:    cookie,
		}, a.Logger),
		Metrics: handler.NewMetricsHandler(a.Metrics, checks),
	})
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}
	a.Server = srv
	return nil
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.Config.Port),
		Handler:           a.Server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Sugar().Infow("server starting", "addr", httpServer.Addr, "env", a.Config.Env)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	a.Logger.Info("server shutting down")
	return httpServer.Shutdown(shutdownCtx)
}

// Close releases the connections opened by Open.
func (a *App) Close() {
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.DB != nil {
		_ = a.DB.Close()
	}
}
