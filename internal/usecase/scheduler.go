package usecase

import (
	"context"
	"log/slog"
	"time"

	"PowerOfWords/internal/ports"
)

// Scheduler wires the cron-like driver with the ingestion use case.
type Scheduler struct {
	driver   ports.Scheduler
	ingestor *Ingestor
	logger   *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring ingestion runs.
func NewScheduler(driver ports.Scheduler, ingestor *Ingestor, logger *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, ingestor: ingestor, logger: logger}
}

// Start registers the ingestion pass with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.ingestor == nil {
		return nil
	}

	job := func(trigger time.Time) {
		if _, err := s.ingestor.Run(ctx); err != nil && s.logger != nil {
			s.logger.Error("scheduled ingestion failed", "trigger", trigger, "error", err)
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
