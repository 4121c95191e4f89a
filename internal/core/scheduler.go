package core

// scheduler.go runs the conversion history retention job.
//
// The job deletes history rows older than the retention window in batches,
// runs once at startup and then on every tick until its context is
// cancelled. A failed run is logged and retried on the next tick.

import (
	"context"
	"log/slog"
	"time"
)

// RetentionConfig controls the history retention job. Zero values fall back
// to the defaults noted on each field.
type RetentionConfig struct {
	RetentionDays int           // Days of history to keep (default: 30)
	BatchSize     int           // Rows deleted per statement (default: 5000)
	CheckInterval time.Duration // How often to run (default: 24h)
}

func (c RetentionConfig) withDefaults() RetentionConfig {
	if c.RetentionDays <= 0 {
		c.RetentionDays = 30
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 5000
	}
	if c.CheckInterval <= 0 {
		c.CheckInterval = 24 * time.Hour
	}
	return c
}

// StartRetentionScheduler deletes old history until ctx is cancelled.
// It returns immediately when history is disabled.
func (s *Service) StartRetentionScheduler(ctx context.Context, cfg RetentionConfig) {
	if s.history == nil {
		return
	}
	cfg = cfg.withDefaults()

	slog.Info("retention scheduler started",
		"retention_days", cfg.RetentionDays,
		"batch_size", cfg.BatchSize,
		"interval", cfg.CheckInterval,
	)

	s.runRetentionJob(ctx, cfg)

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("retention scheduler stopped")
			return
		case <-ticker.C:
			s.runRetentionJob(ctx, cfg)
		}
	}
}

// runRetentionJob performs one purge cycle.
func (s *Service) runRetentionJob(ctx context.Context, cfg RetentionConfig) {
	start := time.Now()

	purged, err := s.history.PurgeOlderThan(ctx, cfg.RetentionDays, cfg.BatchSize)
	if err != nil {
		slog.Error("history purge failed", "error", err, "purged_before_error", purged)
		return
	}

	slog.Info("history purge completed",
		"rows_purged", purged,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
