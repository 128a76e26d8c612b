package jobs

import (
	"context"
	"time"

	"fundlift-moderation-backend/internal/config"
	"fundlift-moderation-backend/internal/logger"
	"fundlift-moderation-backend/internal/notify"
	"fundlift-moderation-backend/internal/repository"
)

// JobRunner coordinates the scheduled scans. All jobs are read-only over the
// store: frozen and SLA-breached are derived classifications, never written
// back as state.
type JobRunner struct {
	store    repository.Store
	notifier notify.Notifier
	config   *config.Config
}

func NewJobRunner(store repository.Store, notifier notify.Notifier, cfg *config.Config) *JobRunner {
	return &JobRunner{
		store:    store,
		notifier: notifier,
		config:   cfg,
	}
}

// Config exposes the configuration for scheduler registration
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func(ctx context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	logger.Info("Starting job", "job", jobName)
	jobFunc(ctx)
	logger.Info("Job completed", "job", jobName)
}

// RunAllScans runs every scan once (for manual execution via cmd/cronjob).
func (jr *JobRunner) RunAllScans() {
	jr.ScanSLABreaches()
	jr.ScanFrozenCampaigns()
}
