package schema

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"codebrick-site/backend/internal/db"
)

const legacyQuotes = `CREATE TABLE quotes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	email TEXT NOT NULL,
	phone TEXT NOT NULL,
	project_type TEXT NOT NULL,
	location TEXT NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
)`

func openTemp(t *testing.T) (*sql.DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "site.db")
	conn, err := db.Open(path)
	if err != nil {
		t.Fatalf("db.Open: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn, path
}

func columns(t *testing.T, conn *sql.DB, table string) []string {
	t.Helper()
	rows, err := conn.Query(`SELECT name FROM pragma_table_info(?) ORDER BY cid`, table)
	if err != nil {
		t.Fatalf("table_info: %v", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("scan: %v", err)
		}
		out = append(out, name)
	}
	return out
}

func TestEnsure_WidensLegacyQuotesOnce(t *testing.T) {
	ctx := context.Background()
	conn, path := openTemp(t)

	if _, err := conn.Exec(legacyQuotes); err != nil {
		t.Fatalf("create legacy table: %v", err)
	}
	if _, err := conn.Exec(`INSERT INTO quotes (name, email, phone, project_type, location)
		VALUES ('Sam', 'sam@x.com', '555', 'Residential', 'Cape Town')`); err != nil {
		t.Fatalf("insert legacy row: %v", err)
	}
	before := columns(t, conn, "quotes")

	for i := 0; i < 2; i++ {
		if err := Ensure(ctx, conn, path, nil); err != nil {
			t.Fatalf("Ensure run %d: %v", i+1, err)
		}
	}

	after := columns(t, conn, "quotes")
	if len(after) != len(before)+6 {
		t.Fatalf("columns after = %v, want %d", after, len(before)+6)
	}
	for i, name := range before {
		if after[i] != name {
			t.Errorf("column %d = %q, want %q (existing columns must keep their order)", i, after[i], name)
		}
	}
	want := []string{"site_status", "project_size", "urgency", "hire_status", "timeline", "description"}
	for i, name := range want {
		if after[len(before)+i] != name {
			t.Errorf("added column %d = %q, want %q", i, after[len(before)+i], name)
		}
	}

	var name, location string
	var siteStatus sql.NullString
	if err := conn.QueryRow(`SELECT name, location, site_status FROM quotes WHERE id = 1`).Scan(&name, &location, &siteStatus); err != nil {
		t.Fatalf("read legacy row: %v", err)
	}
	if name != "Sam" || location != "Cape Town" {
		t.Errorf("legacy row = %q/%q, want Sam/Cape Town", name, location)
	}
	if siteStatus.Valid {
		t.Errorf("site_status = %q, want NULL", siteStatus.String)
	}
}

func TestEnsure_FreshDatabase(t *testing.T) {
	ctx := context.Background()
	conn, path := openTemp(t)

	if err := Ensure(ctx, conn, path, nil); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if got := len(columns(t, conn, "contacts")); got != 5 {
		t.Errorf("contacts columns = %d, want 5", got)
	}
	if got := len(columns(t, conn, "quotes")); got != 13 {
		t.Errorf("quotes columns = %d, want 13", got)
	}
	n, err := Widen(ctx, conn, Steps, nil)
	if err != nil {
		t.Fatalf("Widen: %v", err)
	}
	if n != 0 {
		t.Errorf("Widen on current schema applied %d steps, want 0", n)
	}
}

func TestEnsure_UnwritablePathFails(t *testing.T) {
	conn, _ := openTemp(t)
	err := Ensure(context.Background(), conn, "", nil)
	if err == nil {
		t.Fatal("Ensure with empty path should fail")
	}
}

func TestAddColumn_RejectsBadIdentifiers(t *testing.T) {
	conn, _ := openTemp(t)
	for _, step := range []AddColumn{
		{Table: "quotes; DROP TABLE quotes", Column: "x", Type: "TEXT"},
		{Table: "quotes", Column: "x y", Type: "TEXT"},
		{Table: "quotes", Column: "x", Type: "TEXT DEFAULT 1"},
	} {
		if _, err := step.Apply(context.Background(), conn); err == nil {
			t.Errorf("Apply(%+v) should fail", step)
		}
	}
}

func TestAddColumn_MissingTableErrors(t *testing.T) {
	conn, _ := openTemp(t)
	_, err := AddColumn{Table: "nope", Column: "x", Type: "TEXT"}.Apply(context.Background(), conn)
	if err == nil {
		t.Fatal("Apply on a missing table should fail")
	}
}

type failingStep struct{ err error }

func (f failingStep) Name() string { return "failing" }
func (f failingStep) Apply(context.Context, *sql.DB) (bool, error) {
	return false, f.err
}

func TestWiden_StopsAtFirstError(t *testing.T) {
	conn, _ := openTemp(t)
	if _, err := conn.Exec(legacyQuotes); err != nil {
		t.Fatalf("create legacy table: %v", err)
	}
	boom := errors.New("boom")
	steps := []Step{
		AddColumn{Table: "quotes", Column: "site_status", Type: "TEXT"},
		failingStep{err: boom},
		AddColumn{Table: "quotes", Column: "urgency", Type: "TEXT"},
	}
	n, err := Widen(context.Background(), conn, steps, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if n != 1 {
		t.Errorf("applied = %d, want 1", n)
	}
	ok, err := ColumnExists(context.Background(), conn, "quotes", "urgency")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("steps after a failure must not run")
	}
}

func TestEnsure_PathWithSpaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "my data", "site.db")
	conn, err := db.Open(path)
	if err != nil {
		t.Fatalf("db.Open: %v", err)
	}
	defer conn.Close()

	if err := Ensure(context.Background(), conn, path, nil); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if got := len(columns(t, conn, "quotes")); got != 13 {
		t.Errorf("quotes columns = %d, want 13", got)
	}
}

func TestAddColumn_LostRaceCountsAsSatisfied(t *testing.T) {
	ctx := context.Background()
	conn, _ := openTemp(t)
	if _, err := conn.Exec(legacyQuotes); err != nil {
		t.Fatalf("create legacy table: %v", err)
	}
	// Another process added the column between our check and our ALTER.
	if _, err := conn.Exec(`ALTER TABLE quotes ADD COLUMN urgency TEXT`); err != nil {
		t.Fatalf("add column: %v", err)
	}
	probes := 0
	columnExists = func(ctx context.Context, conn *sql.DB, table, column string) (bool, error) {
		probes++
		if probes == 1 {
			return false, nil
		}
		return ColumnExists(ctx, conn, table, column)
	}
	t.Cleanup(func() { columnExists = ColumnExists })

	applied, err := AddColumn{Table: "quotes", Column: "urgency", Type: "TEXT"}.Apply(ctx, conn)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if applied {
		t.Error("applied = true, want false when the column already exists")
	}
	if probes != 2 {
		t.Errorf("probes = %d, want 2 (check, then recheck after the failed ALTER)", probes)
	}
}

func TestWiden_ConcurrentConnections(t *testing.T) {
	ctx := context.Background()
	conn, path := openTemp(t)
	if _, err := conn.Exec(legacyQuotes); err != nil {
		t.Fatalf("create legacy table: %v", err)
	}
	other, err := db.Open(path)
	if err != nil {
		t.Fatalf("db.Open: %v", err)
	}
	defer other.Close()

	errs := make(chan error, 2)
	for _, c := range []*sql.DB{conn, other} {
		go func(c *sql.DB) {
			_, err := Widen(ctx, c, Steps, nil)
			errs <- err
		}(c)
	}
	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil {
			t.Errorf("Widen: %v", err)
		}
	}
	if got := len(columns(t, conn, "quotes")); got != 13 {
		t.Errorf("quotes columns = %d, want 13", got)
	}
}
