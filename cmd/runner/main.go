package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/nextcampus/crm-backend/internal/config"
	"github.com/nextcampus/crm-backend/internal/db"
	"github.com/nextcampus/crm-backend/internal/mail"
	"github.com/nextcampus/crm-backend/internal/model"
	"github.com/nextcampus/crm-backend/internal/queue"
	"github.com/nextcampus/crm-backend/internal/repository"
	"github.com/nextcampus/crm-backend/internal/service"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	automationID := flag.Int("automation", 0, "run one automation by ID and exit")
	listen := flag.Bool("listen", false, "consume the run queue")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, relying on OS environment variables")
	}
	cfg := config.Load()

	if *automationID <= 0 && !*listen {
		logger.Fatal("either -automation N or -listen is required")
	}

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to database")
	}
	defer database.Close()

	transport, err := mail.NewTransport(cfg)
	if err != nil {
		logger.WithError(err).Fatal("failed to configure mail transport")
	}

	segmentRepo := &repository.SegmentRepository{DB: database}

	executor := &service.Executor{
		Automations: &repository.AutomationRepository{DB: database},
		Segments:    segmentRepo,
		Templates:   &repository.TemplateRepository{DB: database},
		Customers:   &repository.CustomerRepository{DB: database},
		Tracker:     &repository.TrackerRepository{DB: database},
		Resolver:    service.NewSegmentResolver(segmentRepo, service.BuiltinHandlers(database)),
		Mail:        transport,
		Logger:      logger,
		SendDelay:   cfg.SendDelay,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if *automationID > 0 {
		runOnce(ctx, logger, executor, *automationID)
		return
	}

	runs, err := queue.Connect(cfg.AmqpURL)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to rabbitmq")
	}
	defer runs.Close()
	runs.Logger = logger

	err = runs.Consume(ctx, func(ctx context.Context, job queue.RunJob) error {
		entry := logger.WithFields(logrus.Fields{
			"automation_id": job.AutomationID,
			"run_id":        job.RunID,
		})
		result, err := executor.Run(ctx, job.AutomationID)
		if err != nil {
			return err
		}
		entry.WithFields(logrus.Fields{
			"status":    result.Status,
			"processed": result.Processed,
			"failed":    result.Failed,
		}).Info("run complete")
		return nil
	})
	if err != nil && err != context.Canceled {
		logger.WithError(err).Fatal("consumer stopped")
	}
}

// runOnce is the entry point the CRON infrastructure invokes.
func runOnce(ctx context.Context, logger *logrus.Logger, executor *service.Executor, automationID int) {
	entry := logger.WithFields(logrus.Fields{
		"automation_id": automationID,
		"run_id":        uuid.NewString(),
	})

	result, err := executor.Run(ctx, automationID)
	if err != nil {
		entry.WithError(err).Error("run failed")
		os.Exit(1)
	}

	entry.WithFields(logrus.Fields{
		"status":    result.Status,
		"processed": result.Processed,
		"failed":    result.Failed,
		"skipped":   result.Skipped,
	}).Info("run complete")

	if result.Status != model.LogCompleted {
		os.Exit(1)
	}
}
