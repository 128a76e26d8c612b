// Command cronjob runs the moderation scans once and exits, for use from an
// external scheduler or for manual execution.
package main

import (
	"database/sql"
	"flag"
	"log"

	"fundlift-moderation-backend/internal/config"
	"fundlift-moderation-backend/internal/jobs"
	"fundlift-moderation-backend/internal/logger"
	"fundlift-moderation-backend/internal/notify"
	"fundlift-moderation-backend/internal/repository/postgres"

	_ "github.com/lib/pq"
)

func main() {
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	job := flag.String("job", "all", "Job to run: all, sla, freeze")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)

	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	store := postgres.NewStore(db)

	var notifier notify.Notifier = notify.NopNotifier{}
	if cfg.SendGrid.APIKey != "" {
		notifier = notify.NewSendGridNotifier(
			cfg.SendGrid.APIKey,
			cfg.SendGrid.FromEmail,
			cfg.SendGrid.FromName,
			cfg.SendGrid.ModerationInbox,
		)
	}

	runner := jobs.NewJobRunner(store, notifier, cfg)

	switch *job {
	case "all":
		runner.RunAllScans()
	case "sla":
		runner.ScanSLABreaches()
	case "freeze":
		runner.ScanFrozenCampaigns()
	default:
		log.Fatalf("Unknown job: %s", *job)
	}
}
