package config

import (
	"fmt"

	"leadtrack/internal/entity"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	EnginePostgres = "postgres"
	EngineMySQL    = "mysql"
	EngineSQLite   = "sqlite"
)

func ConnectionDb(cfg Config, log logrus.FieldLogger) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg.DatabaseEngine, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		PrepareStmt:    false,
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to %s database: %w", cfg.DatabaseEngine, err)
	}

	if cfg.DatabaseEngine == EngineSQLite {
		// sqlite serialises writers; a single connection avoids SQLITE_BUSY.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	log.WithField("engine", cfg.DatabaseEngine).Info("connected to database")
	return db, nil
}

func dialectorFor(engine, dsn string) (gorm.Dialector, error) {
	switch engine {
	case EnginePostgres:
		return postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), nil
	case EngineMySQL:
		return mysql.Open(dsn), nil
	case EngineSQLite:
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database engine %q", engine)
	}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.User{},
		&entity.TokenRecord{},
		&entity.Session{},
		&entity.SecurityLog{},
	)
}
