// Package migrate applies the schema for this system's own operational
// tables. The legislative corpus schema belongs to the ingestion
// pipeline and is never touched here.
package migrate

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/civicsignal/legisnet/pkg/logger"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Up applies all pending migrations. Callers must blank-import the
// database/postgres driver and lib/pq.
func Up(databaseURL string) error {
	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Debug("[Migrate] Schema already up to date")
			return nil
		}
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("read migration version: %w", err)
	}
	logger.Info("[Migrate] Schema migrated", "version", version, "dirty", dirty)
	return nil
}
