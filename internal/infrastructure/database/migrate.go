package database

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// RunMigrations applies every pending migration in migrations/ to db.
func RunMigrations(db *gorm.DB, log *logrus.Logger) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open migrations: %w", err)
	}

	driver, err := migratepgx.WithInstance(sqlDB, &migratepgx.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "pgx5", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	return reportMigration(log, m.Up(), m.Version)
}

// reportMigration logs the outcome of an Up run. ErrNoChange is success.
func reportMigration(log *logrus.Logger, upErr error, version func() (uint, bool, error)) error {
	if upErr != nil {
		if errors.Is(upErr, migrate.ErrNoChange) {
			log.Info("Database schema is up to date")
			return nil
		}
		return fmt.Errorf("failed to run migrations: %w", upErr)
	}

	v, dirty, err := version()
	if err != nil {
		log.Warnf("Failed to read schema version: %+v", err)
		return nil
	}
	log.Infof("Database migrated to version %d (dirty=%t)", v, dirty)
	return nil
}
