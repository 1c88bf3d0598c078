package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"go-pos-billing/internal/config"
	"go-pos-billing/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const connectAttempts = 5

func dialector(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("DB_DSN not set, please configure your database")
	}
	switch cfg.Driver {
	case "mysql":
		return mysql.Open(cfg.DSN), nil
	case "postgres":
		return postgres.Open(cfg.DSN), nil
	case "sqlite":
		return sqlite.Open(cfg.DSN), nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}

func gormLogLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	}
	return logger.Warn
}

// Connect opens the database (waiting for it to be ready), tunes the pool and syncs the schema.
func Connect(cfg config.DatabaseConfig, logg *logrus.Logger) (*gorm.DB, error) {
	dial, err := dialector(cfg)
	if err != nil {
		return nil, err
	}

	gormCfg := &gorm.Config{
		Logger: logger.New(log.New(os.Stdout, "\r\n", log.LstdFlags), logger.Config{
			LogLevel:      gormLogLevel(cfg.LogLevel),
			SlowThreshold: time.Second,
		}),
	}

	var db *gorm.DB
	for i := 0; i < connectAttempts; i++ {
		db, err = gorm.Open(dial, gormCfg)
		if err == nil {
			break
		}
		logg.WithField("attempt", i+1).Warnf("failed to connect to database, retrying in 2 seconds: %v", err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("connect to database after %d attempts: %w", connectAttempts, err)
	}

	if sqlDB, derr := db.DB(); derr == nil {
		if cfg.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns >= 0 {
			sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	if perr := db.Use(otelgorm.NewPlugin()); perr != nil {
		logg.Warnf("db connected but failed to install otelgorm plugin: %v", perr)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	logg.WithField("driver", cfg.Driver).Info("database connected and schema synced")
	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.StockItem{},
		&models.Bill{},
		&models.BillItem{},
		&models.CommitIntent{},
	)
}
