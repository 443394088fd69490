package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/MrJamesThe3rd/unitrack/internal/application"
	appStore "github.com/MrJamesThe3rd/unitrack/internal/application/store"
	"github.com/MrJamesThe3rd/unitrack/internal/config"
	"github.com/MrJamesThe3rd/unitrack/internal/database"
	"github.com/MrJamesThe3rd/unitrack/internal/export"
	"github.com/MrJamesThe3rd/unitrack/internal/followup"
	followupStore "github.com/MrJamesThe3rd/unitrack/internal/followup/store"
	unitrackHttp "github.com/MrJamesThe3rd/unitrack/internal/http"
	appHandler "github.com/MrJamesThe3rd/unitrack/internal/http/application"
	followupHandler "github.com/MrJamesThe3rd/unitrack/internal/http/followup"
	invoiceHandler "github.com/MrJamesThe3rd/unitrack/internal/http/invoice"
	"github.com/MrJamesThe3rd/unitrack/internal/http/middleware"
	referenceHandler "github.com/MrJamesThe3rd/unitrack/internal/http/reference"
	"github.com/MrJamesThe3rd/unitrack/internal/invoice"
	invoiceStore "github.com/MrJamesThe3rd/unitrack/internal/invoice/store"
	"github.com/MrJamesThe3rd/unitrack/internal/reference"
	referenceStore "github.com/MrJamesThe3rd/unitrack/internal/reference/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.App.LogLevel)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}

	if cfg.DB.Migrate {
		applied, err := database.Migrate(cfg.ConnectionString())
		if err != nil {
			logger.Error("failed to apply migrations", "error", err)
			os.Exit(1)
		}

		logger.Info("migrations checked", "applied", applied)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var cache reference.Cache

	if rdb := connectRedis(cfg, logger); rdb != nil {
		defer rdb.Close()

		cache = reference.NewRedisCache(rdb, cfg.App.Name+":reference", cfg.Redis.TTL)
	}

	var (
		applicationService = application.NewService(appStore.New(db))
		invoiceService     = invoice.NewService(invoiceStore.New(db))
		followupService    = followup.NewService(followupStore.New(db))
		referenceService   = reference.NewService(referenceStore.New(db), cache)
		exportService      = export.NewService(invoiceService, cfg.Documents.Token)
	)

	var (
		applicationH = appHandler.NewHandler(applicationService, followupService, exportService)
		invoiceH     = invoiceHandler.NewHandler(invoiceService, exportService)
		referenceH   = referenceHandler.NewHandler(referenceService)
		followupH    = followupHandler.NewHandler(followupService)
	)

	rateLimit, err := middleware.RateLimit(cfg.RateLimit.Rate)
	if err != nil {
		logger.Error("invalid rate limit", "error", err)
		os.Exit(1)
	}

	router := unitrackHttp.New(unitrackHttp.Options{
		Logger:         logger,
		Auth:           middleware.NewAuth(cfg.Auth.JWTSecret, cfg.Auth.Issuer),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimit:      rateLimit,
		TrustProxy:     cfg.Server.TrustProxy,
	}, applicationH, invoiceH, referenceH, followupH)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting server", "port", srv.Addr)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}

	logger.Info("server stopped")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

// connectRedis returns nil when Redis is not configured or unreachable, which
// disables reference caching.
func connectRedis(cfg *config.Config, logger *slog.Logger) *redis.Client {
	if cfg.Redis.Addr == "" {
		logger.Warn("REDIS_ADDR not set, reference caching disabled")
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Error("failed to connect to redis, reference caching disabled", "error", err)
		_ = rdb.Close()

		return nil
	}

	return rdb
}
