package database

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate applies all pending up migrations. It opens its own connection
// because closing the migrator closes the database handle it was given.
// It reports whether anything was applied.
func Migrate(connStr string) (bool, error) {
	db, err := New(connStr)
	if err != nil {
		return false, fmt.Errorf("opening migration connection: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		_ = db.Close()
		return false, fmt.Errorf("creating migration driver: %w", err)
	}

	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		_ = driver.Close()
		return false, fmt.Errorf("reading embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		_ = driver.Close()
		return false, fmt.Errorf("creating migrator: %w", err)
	}

	upErr := m.Up()

	srcErr, dbErr := m.Close()

	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return false, fmt.Errorf("applying migrations: %w", upErr)
	}

	if err := errors.Join(srcErr, dbErr); err != nil {
		return false, fmt.Errorf("closing migrator: %w", err)
	}

	return upErr == nil, nil
}
