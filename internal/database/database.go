package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/recipick/backend/config"
)

// New opens the configured database. PostgreSQL goes through lib/pq with
// pooling; SQLite is for local runs and tests.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*gorm.DB, error) {
	gormCfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)}

	switch cfg.DBDriver {
	case "sqlite":
		logger.Info("opening sqlite database", zap.String("path", cfg.SQLitePath))
		db, err := gorm.Open(sqlite.Open(cfg.SQLitePath), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("error opening sqlite database: %w", err)
		}
		return db, nil

	case "postgres":
		sqlDB, err := OpenPostgres(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), gormCfg)
		if err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("error initializing gorm: %w", err)
		}
		return db, nil
	}

	return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
}

// OpenPostgres opens and pings a pooled lib/pq connection.
func OpenPostgres(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*sql.DB, error) {
	sslMode := cfg.DBSSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, sslMode,
	)

	logger.Info("connecting to database",
		zap.String("host", cfg.DBHost),
		zap.String("port", cfg.DBPort),
		zap.String("user", cfg.DBUser))

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	logger.Info("successfully connected to database")
	return db, nil
}

// HealthCheck checks if the database is accessible
func HealthCheck(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
