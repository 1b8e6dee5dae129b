// Package migrate runs database migrations from embedded SQL files using golang-migrate.
package migrate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"codebrick-site/backend/internal/db"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// ErrNoChange is returned when Up/Down has nothing to do (already at target version).
var ErrNoChange = migrate.ErrNoChange

// Run applies migrations in the given direction to the SQLite file at path.
// direction must be "up" or "down". Returns nil on success, including when already at the
// target version; other errors for DB or I/O failures.
func Run(path string, direction string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("DATABASE_PATH is not set; create a .env from .env.example or set DATABASE_PATH")
	}
	if path == ":memory:" {
		return errors.New("migrate: in-memory databases are not supported; use a file path")
	}
	if direction != "up" && direction != "down" {
		return fmt.Errorf("direction must be up or down, got %q", direction)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	sourceDriver, err := iofs.New(db.MigrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("migrate source: %w", err)
	}

	// The migration gets its own handle on the raw path. A sqlite:// URL would be
	// re-escaped by the driver and miss paths containing spaces.
	conn, err := db.Open(path)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	dbDriver, err := sqlite.WithInstance(conn, &sqlite.Config{})
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("migrate: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", dbDriver)
	if err != nil {
		_ = dbDriver.Close()
		return fmt.Errorf("migrate: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	switch direction {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
	}
	return nil
}
