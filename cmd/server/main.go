package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/JonMunkholm/TagConvert/internal/config"
	"github.com/JonMunkholm/TagConvert/internal/core"
	"github.com/JonMunkholm/TagConvert/internal/logging"
	"github.com/JonMunkholm/TagConvert/internal/metrics"
	"github.com/JonMunkholm/TagConvert/internal/web"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	ctx := context.Background()

	var history *core.HistoryStore
	if cfg.Database.Enabled() {
		pool, err := connectDatabase(ctx, cfg.Database)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		history = core.NewHistoryStore(pool)
		if err := history.EnsureSchema(ctx); err != nil {
			slog.Error("failed to prepare history table", "error", err)
			os.Exit(1)
		}
	} else {
		slog.Info("no database configured, conversion history disabled")
	}

	m := metrics.New()

	cacheSize := 0
	if cfg.Cache.Enabled {
		cacheSize = cfg.Cache.Size
	}
	service, err := core.NewService(core.ServiceConfig{
		MaxInputSize:  cfg.Convert.MaxInputSize,
		MaxConcurrent: cfg.Convert.MaxConcurrent,
		MaxWaitTime:   cfg.Convert.MaxWaitTime,
		CacheSize:     cacheSize,
	}, history, m)
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	slog.Info("formats registered",
		"count", core.FormatCount(),
		"extensions", strings.Join(core.Extensions(), ","),
	)

	server := web.NewServer(service, cfg, m)

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go service.StartRetentionScheduler(jobCtx, core.RetentionConfig{
		RetentionDays: cfg.History.RetentionDays,
		BatchSize:     cfg.History.PurgeBatchSize,
		CheckInterval: cfg.History.PurgeInterval,
	})

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := service.LimiterStatus(); status.Active > 0 {
			slog.Info("waiting for conversions to complete", "active", status.Active)
			if err := service.WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("conversions did not complete in time", "error", err)
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// connectDatabase opens and verifies the history connection pool.
func connectDatabase(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}
	return pool, nil
}
