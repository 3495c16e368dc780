package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	_ "github.com/noah-isme/incident-admin/api/swagger"
	"github.com/noah-isme/incident-admin/internal/app"
	"github.com/noah-isme/incident-admin/pkg/config"
	"github.com/noah-isme/incident-admin/pkg/logger"
)

// @title Incident Report Admin API
// @version 1.0.0
// @description User administration: cookie sessions, a paginated users list and admin mutations.
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	a, err := app.Open(cfg, logr)
	if err != nil {
		logr.Sugar().Fatalw("startup failed", "error", err)
	}
	defer a.Close()

	if cfg.Database.AutoMigrate {
		if err := a.Migrate(); err != nil {
			logr.Sugar().Fatalw("migrations failed", "error", err)
		}
	}

	if err := a.Build(); err != nil {
		logr.Sugar().Fatalw("startup failed", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
