package main

import (
	"net/http"

	"github.com/nextcampus/crm-backend/internal/config"
	"github.com/nextcampus/crm-backend/internal/db"
	"github.com/nextcampus/crm-backend/internal/handler"
	"github.com/nextcampus/crm-backend/internal/queue"
	"github.com/nextcampus/crm-backend/internal/repository"
	"github.com/nextcampus/crm-backend/internal/service"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, relying on OS environment variables")
	}
	cfg := config.Load()

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to database")
	}
	defer database.Close()

	runs, err := queue.Connect(cfg.AmqpURL)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to rabbitmq")
	}
	defer runs.Close()

	customerRepo := &repository.CustomerRepository{DB: database}
	segmentRepo := &repository.SegmentRepository{DB: database}
	templateRepo := &repository.TemplateRepository{DB: database}
	automationRepo := &repository.AutomationRepository{DB: database}
	trackerRepo := &repository.TrackerRepository{DB: database}
	leadRepo := &repository.LeadRepository{DB: database}
	eventRepo := &repository.FunnelEventRepository{DB: database}

	resolver := service.NewSegmentResolver(segmentRepo, service.BuiltinHandlers(database))
	importer := &service.CSVImporter{Customers: customerRepo, Logger: logger}

	router := handler.NewRouter(handler.Deps{
		Customers:   &handler.CustomerHandler{Repo: customerRepo, Importer: importer},
		Segments:    &handler.SegmentHandler{Repo: segmentRepo, Customers: customerRepo, Resolver: resolver},
		Templates:   &handler.TemplateHandler{Repo: templateRepo, Customers: customerRepo},
		Automations: &handler.AutomationHandler{Repo: automationRepo, Segments: segmentRepo, Templates: templateRepo, Tracker: trackerRepo, Runs: runs},
		Logs:        &handler.LogHandler{Repo: automationRepo},
		Leads:       &handler.LeadHandler{Repo: leadRepo},
		Events:      &handler.EventHandler{Repo: eventRepo, Customers: customerRepo},
		External:    &handler.ExternalHandler{Customers: customerRepo, Events: eventRepo},

		ExternalAPIKey: cfg.ExternalAPIKey,
		Logger:         logger,
	})

	logger.WithField("addr", cfg.HTTPAddr).Info("server listening")
	if err := http.ListenAndServe(cfg.HTTPAddr, router); err != nil {
		logger.WithError(err).Fatal("server stopped")
	}
}
