// Package schema brings a site database up to the current schema at process start.
//
// The base tables come from the versioned migrations in internal/db/migrations. On top of
// that, Steps widens tables that predate newer form fields. Each step checks the live column
// set before acting, so Ensure is safe to run on every start against any prior revision.
package schema

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"codebrick-site/backend/internal/db/migrate"

	"github.com/sirupsen/logrus"
)

var identRE = regexp.MustCompile(`^[a-z_]+$`)

// columnExists is the probe used by AddColumn. Tests replace it to reproduce a lost race.
var columnExists = ColumnExists

// Step is one idempotent schema change.
type Step interface {
	// Name identifies the step in logs and errors.
	Name() string
	// Apply makes the change if it is not already present. applied reports whether the
	// database was modified.
	Apply(ctx context.Context, conn *sql.DB) (applied bool, err error)
}

// AddColumn adds a nullable column to Table when it is missing.
type AddColumn struct {
	Table  string
	Column string
	Type   string
}

// Name implements Step.
func (a AddColumn) Name() string { return a.Table + "." + a.Column }

// Apply implements Step. Existing columns and rows are left untouched.
func (a AddColumn) Apply(ctx context.Context, conn *sql.DB) (bool, error) {
	if !identRE.MatchString(a.Table) || !identRE.MatchString(a.Column) || !identRE.MatchString(strings.ToLower(a.Type)) {
		return false, fmt.Errorf("schema: invalid identifier in step %q", a.Name())
	}
	exists, err := columnExists(ctx, conn, a.Table, a.Column)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	// Identifiers are validated above; SQLite cannot bind them as parameters.
	stmt := fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s`, a.Table, a.Column, a.Type)
	if _, err := conn.ExecContext(ctx, stmt); err != nil {
		// A concurrent or earlier partial run may have added it already.
		if ok, checkErr := columnExists(ctx, conn, a.Table, a.Column); checkErr == nil && ok {
			return false, nil
		}
		return false, fmt.Errorf("schema: add column %s: %w", a.Name(), err)
	}
	return true, nil
}

// Steps lists the widening steps in the order they shipped.
var Steps = []Step{
	AddColumn{Table: "quotes", Column: "site_status", Type: "TEXT"},
	AddColumn{Table: "quotes", Column: "project_size", Type: "TEXT"},
	AddColumn{Table: "quotes", Column: "urgency", Type: "TEXT"},
	AddColumn{Table: "quotes", Column: "hire_status", Type: "TEXT"},
	AddColumn{Table: "quotes", Column: "timeline", Type: "TEXT"},
	AddColumn{Table: "quotes", Column: "description", Type: "TEXT"},
}

// ColumnExists reports whether table has a column named column.
func ColumnExists(ctx context.Context, conn *sql.DB, table, column string) (bool, error) {
	var n int
	err := conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`, table, column,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("schema: inspect %s: %w", table, err)
	}
	return n > 0, nil
}

// Widen applies steps in order and returns how many modified the database.
func Widen(ctx context.Context, conn *sql.DB, steps []Step, log logrus.FieldLogger) (int, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	applied := 0
	for _, s := range steps {
		ok, err := s.Apply(ctx, conn)
		if err != nil {
			return applied, err
		}
		if ok {
			applied++
			log.WithField("step", s.Name()).Info("schema step applied")
		}
	}
	return applied, nil
}

// Ensure runs the base migrations against the file at path and then widens the schema
// through conn. Any error means the schema is not usable and startup should stop.
func Ensure(ctx context.Context, conn *sql.DB, path string, log logrus.FieldLogger) error {
	if err := migrate.Run(path, "up"); err != nil {
		return fmt.Errorf("schema: base migrations: %w", err)
	}
	if _, err := Widen(ctx, conn, Steps, log); err != nil {
		return err
	}
	return nil
}
