package database

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/recipick/backend/internal/model"
)

// Models are the tables owned by this service, used for SQLite auto-migration.
var Models = []interface{}{
	&model.Recipe{},
	&model.ConversationTurn{},
}

// RunMigrations executes all SQL migration files in the migrations directory.
// SQLite databases are migrated from the gorm models instead.
func RunMigrations(db *gorm.DB, migrationsDir string, logger *zap.Logger) error {
	if db.Dialector.Name() == "sqlite" {
		logger.Debug("using gorm auto-migration for sqlite")
		return db.AutoMigrate(Models...)
	}

	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS migrations (
			id SERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL UNIQUE,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	for _, name := range files {
		var count int64
		if err := db.Table("migrations").Where("name = ?", name).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check migration status: %w", err)
		}
		if count > 0 {
			logger.Debug("skipping migration", zap.String("name", name))
			continue
		}

		content, err := os.ReadFile(filepath.Join(migrationsDir, name))
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", name, err)
		}

		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(string(content)).Error; err != nil {
				return fmt.Errorf("failed to execute migration %s: %w", name, err)
			}
			if err := tx.Exec("INSERT INTO migrations (name) VALUES (?)", name).Error; err != nil {
				return fmt.Errorf("failed to record migration %s: %w", name, err)
			}
			return nil
		})
		if err != nil {
			return err
		}

		logger.Info("applied migration", zap.String("name", name))
	}

	return nil
}
