// Package db opens the gorm connection for the configured engine and migrates the schema.
package db

import (
	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	gormmysql "gorm.io/driver/mysql"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/PrepDesk/PrepDesk/internal/config"
	"github.com/PrepDesk/PrepDesk/internal/db/dsn"
	"github.com/PrepDesk/PrepDesk/internal/db/models"
	"github.com/PrepDesk/PrepDesk/internal/logger/adapter/gormlog"
)

// ErrUnsupportedEngine is returned for an unknown DB.GormEngine.
var ErrUnsupportedEngine = errors.New("unsupported gorm engine")

// Dialector returns the gorm dialector for cfg.DB.GormEngine.
func Dialector(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.DB.GormEngine {
	case config.EngineMySQL, "":
		return gormmysql.Open(dsn.Create(cfg)), nil
	case config.EnginePostgres:
		return gormpostgres.Open(dsn.Postgres(cfg)), nil
	case config.EngineSQLite:
		return sqlite.Open(cfg.DB.Name), nil
	default:
		return nil, errors.Wrap(ErrUnsupportedEngine, cfg.DB.GormEngine)
	}
}

// Open connects to the configured database with the zerolog gorm logger.
func Open(cfg *config.Config) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := gorm.Open(dialector, &gorm.Config{Logger: gormlog.New(cfg.Log.SQLLevel)})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect database")
	}

	return conn, nil
}

// Migrate creates or updates every table.
func Migrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(models.All()...); err != nil {
		return errors.Wrap(err, "failed to migrate database")
	}

	return nil
}
