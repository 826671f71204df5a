// Command import_recipes loads the recipe catalog from a CSV export.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/recipick/backend/config"
	"github.com/recipick/backend/internal/database"
	"github.com/recipick/backend/internal/importer"
	"github.com/recipick/backend/internal/logger"
	"github.com/recipick/backend/internal/service"
)

func main() {
	file := flag.String("file", "", "Path to the recipe CSV file")
	encoding := flag.String("encoding", importer.EncodingCP949, "CSV encoding (cp949 or utf-8)")
	batch := flag.Int("batch", importer.DefaultBatchSize, "Rows per insert batch")
	flag.Parse()

	if *file == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to connect to database", zap.Error(err))
	}
	if cfg.AutoMigrate {
		if err := database.RunMigrations(db, cfg.MigrationsDir, zapLogger); err != nil {
			zapLogger.Fatal("migration failed", zap.Error(err))
		}
	}

	f, err := os.Open(*file)
	if err != nil {
		zapLogger.Fatal("failed to open csv file", zap.String("file", *file), zap.Error(err))
	}
	defer f.Close()

	result, err := importer.Import(ctx, f, *encoding, *batch, service.NewRecipeService(db), zapLogger)
	if err != nil {
		zapLogger.Fatal("import failed",
			zap.Int("imported", result.Imported),
			zap.Error(err))
	}

	zapLogger.Info("import complete",
		zap.String("file", *file),
		zap.Int("rows", result.Rows),
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped))
}
