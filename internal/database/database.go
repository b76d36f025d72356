// Package database owns the connection lifecycle, schema migration and the
// session-per-unit-of-work discipline used by every pipeline stage.
package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/sunnyshin8/BridgeGuard-AI/internal/config"
	apperrors "github.com/sunnyshin8/BridgeGuard-AI/internal/errors"
	"github.com/sunnyshin8/BridgeGuard-AI/internal/model"
)

// Open connects to the configured database. SQLite is the development
// default, PostgreSQL the production driver; pool settings apply to both.
func Open(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "postgres":
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database)
		dialector = postgres.Open(dsn)
	case "sqlite", "":
		dialector = sqlite.Open(cfg.Path)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.MaxConnections)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	if cfg.Driver == "sqlite" || cfg.Driver == "" {
		// sqlite ships with foreign keys off
		if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return nil, err
		}
	}

	return db, nil
}

// Migrate creates or updates the schema for all entities.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Bridge{},
		&model.Transaction{},
		&model.AnomalyDetection{},
		&model.Validator{},
		&model.Alert{},
		&model.ValidationRecord{},
	)
}

// Health describes database connectivity and schema presence.
type Health struct {
	ConnectionOK bool   `json:"connection_ok"`
	Tables       int    `json:"tables"`
	Error        string `json:"error,omitempty"`
}

// HealthCheck reports connectivity and table count without mutating state.
func HealthCheck(ctx context.Context, db *gorm.DB) Health {
	var health Health

	sqlDB, err := db.DB()
	if err != nil {
		health.Error = err.Error()
		return health
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		health.Error = err.Error()
		return health
	}
	health.ConnectionOK = true

	tables, err := db.WithContext(ctx).Migrator().GetTables()
	if err != nil {
		health.Error = err.Error()
		return health
	}
	health.Tables = len(tables)

	return health
}

// WithTx runs fn inside a transaction: commit on success, rollback and a
// PERSISTENCE_ERROR on failure. Units of work stay short; no transaction
// spans multiple pipeline stages.
func WithTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	err := db.WithContext(ctx).Transaction(fn)
	if err == nil {
		return nil
	}
	if apperrors.CodeOf(err) != apperrors.ErrInternal.Code {
		// already classified (duplicate, not found, ...)
		return err
	}
	return apperrors.ErrPersistence.WithCause(err)
}
