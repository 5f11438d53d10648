package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"codelive/internal/config"
	handler "codelive/internal/delivery/http"
	"codelive/internal/executor"
	"codelive/internal/usecase"
	"codelive/internal/ws"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	logger.Info("Starting CodeLive server")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Optional Redis bus for multi-instance room fan-out
	var bus *ws.Bus
	if cfg.Redis.URL != "" {
		redisOpts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			logger.Fatal("Failed to parse Redis URL", zap.Error(err))
		}
		rdb := redis.NewClient(redisOpts)
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatal("Failed to ping Redis", zap.Error(err))
		}
		bus = ws.NewBus(rdb, logger)
		logger.Info("Connected to Redis, cross-instance bus enabled")
	}

	// Room hub
	hub := ws.NewHub(logger, bus)
	go hub.Run(ctx)

	// Execution pipeline
	exec, err := executor.New(cfg.Exec.WorkDir, cfg.Exec.Timeout, logger)
	if err != nil {
		logger.Fatal("Failed to initialize executor", zap.Error(err))
	}
	logger.Info("Executor ready",
		zap.String("work_dir", cfg.Exec.WorkDir),
		zap.Duration("timeout", cfg.Exec.Timeout),
	)

	runUC := usecase.NewRunCodeUsecase(exec, cfg.Server.MaxCodeBytes, logger)

	// Initialize router
	router := handler.NewRouter(&handler.RouterDeps{
		RunUC:           runUC,
		Hub:             hub,
		Logger:          logger,
		RateLimitPerMin: cfg.Server.RateLimit,
		MaxBodyBytes:    int64(cfg.Server.MaxCodeBytes) + 64*1024, // code + stdin + envelope
		AllowedOrigin:   cfg.Server.AllowedOrigin,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server listening", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server stopped")
}
