package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/kapu/ufc-athlete-scraper-go/internal/domain"
	"github.com/kapu/ufc-athlete-scraper-go/internal/service/database"
	"github.com/kapu/ufc-athlete-scraper-go/internal/storage"
	"github.com/kapu/ufc-athlete-scraper-go/internal/util"
	"go.uber.org/zap"
)

// CLI flags
var (
	input    = flag.String("input", "ufc_fighters_stats_and_records.json", "Dataset file written by the scraper")
	dryRun   = flag.Bool("dry-run", false, "Load and validate without touching the database")
	dbHost   = flag.String("db-host", "localhost", "PostgreSQL host")
	dbPort   = flag.Int("db-port", 5432, "PostgreSQL port")
	dbUser   = flag.String("db-user", "ufc", "PostgreSQL user")
	dbPass   = flag.String("db-pass", "", "PostgreSQL password")
	dbName   = flag.String("db-name", "ufc", "PostgreSQL database")
	logLevel = flag.String("log-level", "info", "Log level")
)

func main() {
	flag.Parse()

	logger, err := util.NewLogger(*logLevel, "")
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	store := storage.NewJSONStore(*input, logger)
	records, err := store.Load()
	if err != nil {
		logger.Fatal("Failed to load dataset", zap.String("input", *input), zap.Error(err))
	}

	importable := make([]*domain.AthleteRecord, 0, len(records))
	withID := 0
	for _, record := range records {
		if len(record.Raw) > 0 {
			continue
		}
		importable = append(importable, record)
		if record.ID() != "" {
			withID++
		}
	}
	logger.Info("Dataset loaded",
		zap.String("input", *input),
		zap.Int("athletes", len(importable)),
		zap.Int("without_id", len(importable)-withID),
		zap.Int("undecodable", len(records)-len(importable)),
	)

	if *dryRun {
		logger.Info("[DRY RUN MODE] No database changes will be made")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	postgresSvc, err := database.NewPostgresService(ctx, database.PostgresConfig{
		Host:     *dbHost,
		Port:     *dbPort,
		User:     *dbUser,
		Password: *dbPass,
		Database: *dbName,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer postgresSvc.Close()

	repo := database.NewAthleteRepository(postgresSvc.GetDB(), logger)
	if err := repo.EnsureSchema(ctx); err != nil {
		logger.Fatal("Failed to prepare schema", zap.Error(err))
	}

	inserted, err := repo.InsertNew(ctx, importable)
	if err != nil {
		logger.Fatal("Failed to import athletes", zap.Error(err))
	}

	logger.Info("Import complete",
		zap.Int("inserted", inserted),
		zap.Int("already_present", withID-inserted),
	)
}
