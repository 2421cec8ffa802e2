// Package migrations применяет SQL-миграции к базе данных.
package migrations

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	pgxv5 "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/magabrotheeeer/daily-diet/internal/config"
)

// Run применяет все миграции из каталога path. Отсутствие новых миграций ошибкой не считается.
func Run(db *sql.DB, driver, path string) error {
	const op = "migrations.Run"

	var (
		instance     database.Driver
		databaseName string
		err          error
	)
	switch driver {
	case config.DriverPostgres:
		instance, err = pgxv5.WithInstance(db, &pgxv5.Config{})
		databaseName = "pgx_v5"
	case config.DriverSQLite:
		instance, err = sqlite.WithInstance(db, &sqlite.Config{})
		databaseName = "sqlite"
	default:
		return fmt.Errorf("%s: unsupported driver %q", op, driver)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+path, databaseName, instance)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err = m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
