package database

import (
	"fmt"
	"os"
	"path/filepath"

	"fitts-go/internal/config"
	logging "fitts-go/internal/logging"
	"fitts-go/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Dialector picks the gorm driver for the configured database.
func Dialector(conf config.DatabaseConfig) (gorm.Dialector, error) {
	switch conf.Driver {
	case "postgres":
		dsn, err := postgresDSN(conf)
		if err != nil {
			return nil, err
		}
		return postgres.Open(dsn), nil
	case "sqlite":
		if conf.Path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(conf.Path), 0755); err != nil {
				return nil, fmt.Errorf("could not create database directory: %w", err)
			}
		}
		return sqlite.Open(conf.Path), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", conf.Driver)
	}
}

// postgresDSN prefers a connection URL and falls back to discrete fields.
func postgresDSN(conf config.DatabaseConfig) (string, error) {
	if conf.URL != "" {
		dsn, err := pq.ParseURL(conf.URL)
		if err != nil {
			return "", fmt.Errorf("invalid database url: %w", err)
		}
		return dsn, nil
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		conf.Host, conf.User, conf.Password, conf.DBName, conf.Port), nil
}

// Open connects with the given dialector and runs migrations.
func Open(dialector gorm.Dialector, log *zap.Logger) (*gorm.DB, error) {
	gormLogger := logging.NewGormZapLogger(log)
	gormLogger.LogLevel = logger.Warn

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if dialector.Name() == "sqlite" {
		// SQLite allows one writer; a single connection also keeps :memory: databases intact.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	log.Info("Database connection established successfully.")

	if err := Migrate(db); err != nil {
		return nil, err
	}
	log.Info("Database migrations completed successfully.")
	return db, nil
}

// Migrate creates tables and the indexes AutoMigrate does not manage.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.StudySession{},
		&models.TrialResult{},
	); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	trialIndex := `CREATE UNIQUE INDEX IF NOT EXISTS idx_trial_results_session_trial ON trial_results (session_id, trial_index);`
	if err := db.Exec(trialIndex).Error; err != nil {
		return fmt.Errorf("failed to create index on trial_results: %w", err)
	}
	return nil
}
