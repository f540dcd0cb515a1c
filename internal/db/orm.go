package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"comedyuo/showsync/internal/config"
	"comedyuo/showsync/internal/logging"
	gormModels "comedyuo/showsync/internal/models/gorm"
)

// InitORM connects GORM to the configured driver and migrates the show tables
func InitORM(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		dialector = postgres.Open(cfg.DSN())
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Driver, err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	logging.Info("Connected via GORM", "driver", cfg.Driver)
	return db, nil
}

// Migrate creates or updates the show tables
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&gormModels.Show{}, &gormModels.ShowSyncHistory{}); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}
