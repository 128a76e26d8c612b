package main

import (
	"database/sql"
	"flag"
	"log"
	"net/http"
	"time"

	api "fundlift-moderation-backend/internal/api/http"
	"fundlift-moderation-backend/internal/config"
	"fundlift-moderation-backend/internal/jobs"
	"fundlift-moderation-backend/internal/logger"
	"fundlift-moderation-backend/internal/notify"
	"fundlift-moderation-backend/internal/repository/postgres"
	"fundlift-moderation-backend/internal/scheduler"
	"fundlift-moderation-backend/internal/security"
	"fundlift-moderation-backend/internal/service"
	"fundlift-moderation-backend/internal/workflow"

	_ "github.com/lib/pq"
)

func main() {
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Fundlift moderation backend...", "address", cfg.GetServerAddress())

	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	store := postgres.NewStore(db)
	engine := workflow.NewEngine(store)

	var notifier notify.Notifier = notify.NopNotifier{}
	if cfg.SendGrid.APIKey != "" {
		notifier = notify.NewSendGridNotifier(
			cfg.SendGrid.APIKey,
			cfg.SendGrid.FromEmail,
			cfg.SendGrid.FromName,
			cfg.SendGrid.ModerationInbox,
		)
	} else {
		logger.Warn("SendGrid API key not configured, notifications disabled")
	}

	moderationSvc := service.NewModerationService(engine, store, notifier, cfg.SLAWindow(), cfg.FreezeWindow())
	paymentSvc := service.NewPaymentCallbackService(engine)
	auditSvc := service.NewAuditService(store)
	notesSvc := service.NewNotesService(store)

	tokenManager := security.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer)

	server := api.NewServer(moderationSvc, paymentSvc, auditSvc, notesSvc, tokenManager, cfg.Moderation.PaymentWebhookKey)

	jobRunner := jobs.NewJobRunner(store, notifier, cfg)
	sched := scheduler.NewScheduler(jobRunner)
	sched.Start()
	defer sched.Stop()

	httpServer := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      server,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	logger.Info("HTTP server listening", "address", cfg.GetServerAddress())
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("HTTP server failed: %v", err)
	}
}
