package main

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/nextcampus/crm-backend/internal/config"
	"github.com/nextcampus/crm-backend/internal/db"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Applies migrations/schema.sql, then every seed/*.sql in name order.
func main() {
	logger := logrus.New()

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, relying on OS environment variables")
	}
	cfg := config.Load()

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to database")
	}
	defer database.Close()

	schema, err := os.ReadFile("migrations/schema.sql")
	if err != nil {
		logger.WithError(err).Fatal("failed to read schema")
	}
	if _, err := database.Exec(string(schema)); err != nil {
		logger.WithError(err).Fatal("failed to apply schema")
	}
	logger.Info("schema applied")

	seeds, err := filepath.Glob("seed/*.sql")
	if err != nil {
		logger.WithError(err).Fatal("failed to list seed files")
	}
	sort.Strings(seeds)

	for _, path := range seeds {
		content, err := os.ReadFile(path)
		if err != nil {
			logger.WithError(err).WithField("file", path).Fatal("failed to read seed file")
		}
		if _, err := database.Exec(string(content)); err != nil {
			logger.WithError(err).WithField("file", path).Fatal("failed to apply seed file")
		}
		logger.WithField("file", path).Info("seed applied")
	}

	logger.Info("done")
}
