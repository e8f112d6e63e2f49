package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/hugh/go-recipes/internal/database"
	"github.com/hugh/go-recipes/internal/tasks"
	"github.com/hugh/go-recipes/pkg/config"
	"github.com/hugh/go-recipes/pkg/queue"
	"github.com/hugh/go-recipes/pkg/util"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := util.NewLogger(cfg.Server.Env)
	slog.SetDefault(logger)

	logger.Info("starting recipe worker")

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := database.Migrate(db, &cfg.Database, logger); err != nil {
		logger.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	srv := queue.NewServer(&cfg.Redis, 10)

	handler := tasks.NewHandler(db, logger)
	mux := asynq.NewServeMux()
	handler.RegisterHandlers(mux)

	scheduler, err := newPruneScheduler(cfg, logger)
	if err != nil {
		logger.Error("failed to configure activity pruning", "error", err)
		os.Exit(1)
	}

	if err := srv.Start(mux); err != nil {
		logger.Error("failed to start worker", "error", err)
		os.Exit(1)
	}
	if scheduler != nil {
		if err := scheduler.Start(); err != nil {
			logger.Error("failed to start scheduler", "error", err)
			srv.Shutdown()
			os.Exit(1)
		}
	}

	logger.Info("worker started, waiting for tasks...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down worker...")
	if scheduler != nil {
		scheduler.Shutdown()
	}
	srv.Shutdown()

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	logger.Info("worker stopped")
}

// newPruneScheduler returns nil when activity logs are kept forever.
func newPruneScheduler(cfg *config.Config, logger *slog.Logger) (*asynq.Scheduler, error) {
	if !cfg.Activity.Enabled || cfg.Activity.RetentionDays <= 0 {
		return nil, nil
	}
	if err := util.ValidateCronExpr(cfg.Activity.PruneCron); err != nil {
		return nil, err
	}

	task, err := tasks.NewActivityPruneTask(cfg.Activity.RetentionDays)
	if err != nil {
		return nil, err
	}

	scheduler := queue.NewScheduler(&cfg.Redis)
	if _, err := scheduler.Register(cfg.Activity.PruneCron, task); err != nil {
		return nil, err
	}

	next, _ := util.NextCronTime(cfg.Activity.PruneCron, time.Now())
	logger.Info("activity pruning scheduled",
		"cron", cfg.Activity.PruneCron,
		"retention_days", cfg.Activity.RetentionDays,
		"next_run", next,
	)
	return scheduler, nil
}
