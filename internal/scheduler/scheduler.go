package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"

	"fundlift-moderation-backend/internal/jobs"
	"fundlift-moderation-backend/internal/logger"
)

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron *cron.Cron
	jobs *jobs.JobRunner
}

// NewScheduler creates a new scheduler with the provided job runner
func NewScheduler(jobRunner *jobs.JobRunner) *Scheduler {
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
	)

	s := &Scheduler{
		cron: c,
		jobs: jobRunner,
	}

	s.registerJobs()
	return s
}

// registerJobs registers all scheduled jobs with the cron scheduler
func (s *Scheduler) registerJobs() {
	cfg := s.jobs.Config().Scheduler

	_, err := s.cron.AddFunc(cfg.ScanSLABreaches, s.jobs.ScanSLABreaches)
	if err != nil {
		logger.Error("Failed to register ScanSLABreaches job", "error", err)
	}

	_, err = s.cron.AddFunc(cfg.ScanFrozenCampaigns, s.jobs.ScanFrozenCampaigns)
	if err != nil {
		logger.Error("Failed to register ScanFrozenCampaigns job", "error", err)
	}
}

// Start begins the scheduler in its own goroutine
func (s *Scheduler) Start() {
	s.cron.Start()
	logger.Info("Scheduler started")
}

// Stop halts the scheduler, waiting for running jobs to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Scheduler stopped")
}
