package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/hugh/go-recipes/internal/activity"
	"github.com/hugh/go-recipes/internal/api"
	"github.com/hugh/go-recipes/internal/api/middleware"
	"github.com/hugh/go-recipes/internal/auth"
	"github.com/hugh/go-recipes/internal/database"
	"github.com/hugh/go-recipes/pkg/config"
	"github.com/hugh/go-recipes/pkg/queue"
	"github.com/hugh/go-recipes/pkg/util"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
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

	logger.Info("starting recipe API server",
		"env", cfg.Server.Env,
		"addr", cfg.Server.Addr(),
		"database", cfg.Database.Driver,
	)

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := database.Migrate(db, &cfg.Database, logger); err != nil {
		logger.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	// Redis backs the token cache and the activity queue. Both are optional.
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Warn("failed to connect to Redis, continuing without cache and activity log", "error", err)
			_ = redisClient.Close()
			redisClient = nil
		}
	}

	users := auth.NewService(db)
	var tokenOpts []auth.TokenOption
	if redisClient != nil {
		tokenOpts = append(tokenOpts, auth.WithCache(auth.NewRedisTokenCache(redisClient), cfg.Token.CacheTTL()))
	}
	tokens := auth.NewTokenService(db, users, cfg.Token.TTL(), logger, tokenOpts...)

	var (
		asynqClient *asynq.Client
		recorder    activity.Recorder = activity.Discard{}
	)
	if redisClient != nil && cfg.Activity.Enabled {
		asynqClient = queue.NewClient(&cfg.Redis)
		recorder = activity.NewQueueRecorder(asynqClient, logger)
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window())
	stopSweep := make(chan struct{})
	go limiter.Run(cfg.RateLimit.Window(), stopSweep)

	router := api.NewRouter(api.RouterConfig{
		DB:             db,
		Redis:          redisClient,
		Logger:         logger,
		Users:          users,
		Tokens:         tokens,
		Recorder:       recorder,
		AuthSchemes:    cfg.Token.AuthHeaderSchemes,
		RateLimiter:    limiter,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		TrustProxy:     cfg.Server.TrustProxy,
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", cfg.Server.Addr())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	close(stopSweep)

	if asynqClient != nil {
		_ = asynqClient.Close()
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	logger.Info("server stopped")
}
