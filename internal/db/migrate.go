package db

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/logger"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// DefaultMigrationsPath is used when MIGRATIONS_PATH is unset.
const DefaultMigrationsPath = "migrations"

// SourceURL turns a directory into a file source URL.
func SourceURL(path string) (string, error) {
	if path == "" {
		path = DefaultMigrationsPath
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve migrations path: %w", err)
	}
	return "file://" + filepath.ToSlash(abs), nil
}

// Migrate applies every pending up migration found in path.
func Migrate(databaseURL, path string) error {
	if databaseURL == "" {
		return errors.New("database url is empty")
	}
	source, err := SourceURL(path)
	if err != nil {
		return err
	}

	m, err := migrate.New(source, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil || dbErr != nil {
			logger.Warn("[DB] Failed to close migrator", "source_err", srcErr, "db_err", dbErr)
		}
	}()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Debug("[DB] Schema up to date")
			return nil
		}
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	logger.Info("[DB] Migrations applied", "version", version, "dirty", dirty)
	return nil
}
