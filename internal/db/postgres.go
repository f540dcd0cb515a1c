package db

import (
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"gorm.io/gorm"

	"comedyuo/showsync/internal/config"
)

var DB *sqlx.DB

// InitPostgres opens the sqlx pool used by the health check, retrying while
// the database container starts.
func InitPostgres(cfg config.DatabaseConfig) error {
	var err error

	for i := 0; i < 10; i++ {
		DB, err = sqlx.Connect("postgres", cfg.DSN())
		if err == nil {
			return nil
		}
		time.Sleep(500 * time.Millisecond)
	}
	return err
}

// UseORMConnection points DB at the pool GORM already opened. The sqlite
// driver has no separate sqlx connection.
func UseORMConnection(gormDB *gorm.DB, driverName string) error {
	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	DB = sqlx.NewDb(sqlDB, driverName)
	return nil
}
