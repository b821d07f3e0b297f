package main

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"questkit/adapters/excel"
	"questkit/adapters/memory"
	"questkit/adapters/postgres"
	"questkit/app"
	"questkit/internal"
	"questkit/internal/config"
	"questkit/ports"
	"questkit/ui"
)

func main() {
	logger := internal.DefaultLogger

	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration: %v", err)
		return
	}

	var (
		sessions ports.SessionRepository
		trials   ports.TrialRepository
	)
	if cfg.Database.URL != "" {
		db, err := sqlx.Connect("postgres", cfg.Database.URL)
		if err != nil {
			logger.Error("failed to connect to database: %v", err)
			return
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			logger.Error("failed to ensure database schema: %v", err)
			return
		}
		sessions = postgres.NewSessionRepository(db)
		trials = postgres.NewTrialRepository(db)
		logger.Info("using postgres session store")
	} else {
		store := memory.NewSessionStore()
		sessions = store
		trials = store
		logger.Info("DATABASE_URL not set, sessions are in-memory only")
	}

	exporter := excel.NewSessionExporter(cfg.Export.Dir)
	sessionService := app.NewSessionService(sessions, trials, exporter, logger)
	sweepService := app.NewSweepService(logger)

	application := ui.NewApp(sessionService, sweepService, logger)
	if err := application.Start(ui.Config{Port: cfg.Server.Port}); err != nil {
		logger.Error("server stopped: %v", err)
	}
}
