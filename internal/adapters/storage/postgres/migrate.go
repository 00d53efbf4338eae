package postgres

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"petmatch/internal/platform/logger"

	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type migrateLogger struct {
	log logger.Logger
}

func (l migrateLogger) Printf(format string, v ...any) {
	l.log.Debug(fmt.Sprintf(format, v...), nil)
}

func (l migrateLogger) Verbose() bool { return false }

// Migrate aplica las migraciones embebidas hasta la última versión.
func Migrate(db *sql.DB, log logger.Logger) error {
	if log == nil {
		log = logger.Nop()
	}

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("migrations source: %w", err)
	}

	driver, err := pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
	if err != nil {
		return fmt.Errorf("migrations driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		return fmt.Errorf("migrate instance: %w", err)
	}
	m.Log = migrateLogger{log: log}

	before, _, _ := m.Version()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("no new migrations to apply", map[string]any{"version": before})
			return nil
		}
		version, dirty, _ := m.Version()
		log.Error("migration failed", map[string]any{"version": version, "dirty": dirty, "err": err})
		return err
	}

	after, _, _ := m.Version()
	log.Info("migrations applied", map[string]any{"from": before, "to": after})
	return nil
}
