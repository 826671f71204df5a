package main

import (
	"context"
	"flag"
	"log"

	"go.uber.org/zap"

	"github.com/recipick/backend/config"
	"github.com/recipick/backend/internal/database"
	"github.com/recipick/backend/internal/logger"
)

func main() {
	dir := flag.String("dir", "", "Migrations directory (defaults to MIGRATIONS_DIR)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *dir != "" {
		cfg.MigrationsDir = *dir
	}

	zapLogger, err := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	db, err := database.New(context.Background(), cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to connect to database", zap.Error(err))
	}

	if err := database.RunMigrations(db, cfg.MigrationsDir, zapLogger); err != nil {
		zapLogger.Fatal("migration failed", zap.Error(err))
	}
	zapLogger.Info("all migrations applied", zap.String("dir", cfg.MigrationsDir))
}
