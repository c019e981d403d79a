package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// CronService manages scheduled background jobs
type CronService struct {
	cron       *cron.Cron
	expiration *BookingExpirationService
	schedule   string
	timeout    time.Duration
	logger     *logrus.Logger
}

// NewCronService creates a new CronService. schedule uses the six-field
// format with seconds: second minute hour day month weekday.
func NewCronService(expiration *BookingExpirationService, schedule string, logger *logrus.Logger) *CronService {
	return &CronService{
		cron:       cron.New(cron.WithSeconds()),
		expiration: expiration,
		schedule:   schedule,
		timeout:    time.Minute,
		logger:     logger,
	}
}

// Start starts all cron jobs
func (s *CronService) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.releaseExpiredHoldsJob); err != nil {
		return fmt.Errorf("failed to schedule expired holds job: %w", err)
	}
	s.logger.WithField("schedule", s.schedule).Info("Scheduled: release expired holds")

	s.cron.Start()
	s.logger.Info("Cron service started")
	return nil
}

// Stop stops all cron jobs and waits for running ones to finish
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Cron service stopped")
}

func (s *CronService) releaseExpiredHoldsJob() {
	if _, err := s.releaseExpiredHolds(context.Background()); err != nil {
		s.logger.WithError(err).Warn("[CRON] Expired holds job failed")
	}
}

func (s *CronService) releaseExpiredHolds(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	released, err := s.expiration.RunOnce(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to release expired holds: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"released": released,
		"duration": time.Since(start).String(),
	}).Debug("[CRON] Expired holds job finished")
	return released, nil
}

// RunReleaseExpiredHoldsNow runs the expiry job immediately and returns the
// number of holds it released
func (s *CronService) RunReleaseExpiredHoldsNow(ctx context.Context) (int64, error) {
	return s.releaseExpiredHolds(ctx)
}

// GetJobStatus returns the status of scheduled jobs
func (s *CronService) GetJobStatus() map[string]interface{} {
	entries := s.cron.Entries()

	jobs := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		jobs = append(jobs, map[string]interface{}{
			"id":       entry.ID,
			"next_run": entry.Next,
			"prev_run": entry.Prev,
		})
	}

	return map[string]interface{}{
		"running":   len(entries) > 0,
		"job_count": len(entries),
		"jobs":      jobs,
	}
}
