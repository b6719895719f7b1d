package db

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/jmoiron/sqlx"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	conn, err := Open(context.Background(), Options{
		Driver: DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "test.db"),
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestLoadMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"001_core.sql":         {Data: []byte("CREATE TABLE a (id TEXT PRIMARY KEY);")},
		"002_uploads.sql":      {Data: []byte("CREATE TABLE b (id TEXT PRIMARY KEY);")},
		"003_sessions.sql":     {Data: []byte("CREATE TABLE c (id TEXT PRIMARY KEY);")},
		"README.md":            {Data: []byte("not a migration")},
		"notes_no_version.sql": {Data: []byte("SELECT 1;")},
	}

	migrations, err := NewMigratorFS(nil, fsys).LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations() error: %v", err)
	}

	if len(migrations) != 3 {
		t.Fatalf("expected 3 migrations, got %d", len(migrations))
	}
	if migrations[0].Version != 1 || migrations[0].Name != "001_core.sql" {
		t.Errorf("unexpected first migration %+v", migrations[0])
	}
	if migrations[2].Version != 3 {
		t.Errorf("expected version 3 last, got %d", migrations[2].Version)
	}
}

func TestLoadMigrations_Embedded(t *testing.T) {
	migrations, err := NewMigrator(nil).LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations() error: %v", err)
	}
	if len(migrations) == 0 {
		t.Fatal("expected embedded migrations")
	}
	for i := 1; i < len(migrations); i++ {
		if migrations[i].Version <= migrations[i-1].Version {
			t.Errorf("migrations not sorted: %d after %d", migrations[i].Version, migrations[i-1].Version)
		}
	}
}

func TestInitSchema_Idempotent(t *testing.T) {
	conn := openTestDB(t)
	ctx := context.Background()

	first, err := InitSchema(ctx, conn)
	if err != nil {
		t.Fatalf("first InitSchema: %v", err)
	}
	if first == 0 {
		t.Fatal("expected migrations to be applied on an empty database")
	}

	second, err := InitSchema(ctx, conn)
	if err != nil {
		t.Fatalf("second InitSchema: %v", err)
	}
	if second != 0 {
		t.Errorf("expected 0 migrations on second run, got %d", second)
	}

	for _, table := range []string{"users", "patient_details", "doctor_details", "appointments", "prescriptions", "uploads", "upload_readings", "notifications", "sessions"} {
		var n int
		if err := conn.GetContext(ctx, &n, `SELECT COUNT(*) FROM `+table); err != nil {
			t.Errorf("table %s not usable: %v", table, err)
		}
	}
}

func TestMigrationStatus(t *testing.T) {
	conn := openTestDB(t)
	ctx := context.Background()

	fsys := fstest.MapFS{
		"001_a.sql": {Data: []byte("-- first table\nCREATE TABLE a (id TEXT PRIMARY KEY);")},
		"002_b.sql": {Data: []byte("CREATE TABLE b (id TEXT PRIMARY KEY);\nCREATE INDEX idx_b ON b(id);")},
	}
	m := NewMigratorFS(conn, fsys)

	statuses, err := m.Status(ctx)
	if err != nil {
		t.Fatalf("Status() error: %v", err)
	}
	for _, s := range statuses {
		if s.Applied {
			t.Errorf("migration %d should be pending", s.Version)
		}
	}

	n, err := m.Up(ctx)
	if err != nil {
		t.Fatalf("Up() error: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 applied, got %d", n)
	}

	statuses, err = m.Status(ctx)
	if err != nil {
		t.Fatalf("Status() error: %v", err)
	}
	for _, s := range statuses {
		if !s.Applied || s.AppliedAt == nil {
			t.Errorf("migration %d should be applied with a timestamp", s.Version)
		}
	}
}

func TestUp_FailedMigrationNotRecorded(t *testing.T) {
	conn := openTestDB(t)
	ctx := context.Background()

	fsys := fstest.MapFS{
		"001_bad.sql": {Data: []byte("CREATE TABLE ok (id TEXT);\nCREATE TABLE broken (;")},
	}
	m := NewMigratorFS(conn, fsys)

	if _, err := m.Up(ctx); err == nil {
		t.Fatal("expected error from broken migration")
	}

	applied, err := m.AppliedVersions(ctx)
	if err != nil {
		t.Fatalf("AppliedVersions() error: %v", err)
	}
	if len(applied) != 0 {
		t.Errorf("expected no recorded versions, got %v", applied)
	}
}

func TestSplitStatements(t *testing.T) {
	script := "-- header comment\nCREATE TABLE a (id TEXT);\n\n  -- another\nCREATE INDEX i ON a(id);\n"
	stmts := splitStatements(script)
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d: %q", len(stmts), stmts)
	}
	if stmts[0] != "CREATE TABLE a (id TEXT)" {
		t.Errorf("unexpected first statement %q", stmts[0])
	}
}
