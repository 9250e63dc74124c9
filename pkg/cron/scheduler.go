// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/FACorreiaa/curva-abc-exporter/pkg/storage"
)

// Scheduler runs the export janitor on a fixed schedule.
type Scheduler struct {
	cron      *cron.Cron
	store     storage.Store
	exportTTL time.Duration
	logger    *slog.Logger
}

// NewScheduler creates a new job scheduler.
func NewScheduler(store storage.Store, exportTTL time.Duration, logger *slog.Logger) *Scheduler {
	// Standard 5-field cron format, no seconds.
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:      c,
		store:     store,
		exportTTL: exportTTL,
		logger:    logger,
	}
}

// Start begins scheduled jobs.
func (s *Scheduler) Start() error {
	// Export cleanup: runs hourly at minute 15.
	_, err := s.cron.AddFunc("15 * * * *", s.cleanExpiredExports)
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.Int("jobs", len(s.cron.Entries())),
	)
	return nil
}

// Stop gracefully stops all scheduled jobs.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// RunNow manually triggers the export cleanup (for testing/admin).
func (s *Scheduler) RunNow() {
	go s.cleanExpiredExports()
}

// cleanExpiredExports deletes generated spreadsheets older than the TTL.
func (s *Scheduler) cleanExpiredExports() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cutoff := time.Now().Add(-s.exportTTL)
	deleted, err := s.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.Error("failed to clean expired exports", slog.Any("error", err))
		return
	}

	if deleted > 0 {
		s.logger.Info("cleaned expired exports",
			slog.Int("deleted", deleted),
			slog.Time("cutoff", cutoff),
		)
	}
}
