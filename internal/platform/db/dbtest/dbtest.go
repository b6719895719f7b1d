// Package dbtest opens throwaway SQLite databases with the full schema for
// repository tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/23f2004399/hms-tool/internal/platform/db"
)

// Open returns a migrated SQLite database stored under t.TempDir. It is
// closed when the test finishes.
func Open(t testing.TB) *sqlx.DB {
	t.Helper()

	ctx := context.Background()
	conn, err := db.Open(ctx, db.Options{
		Driver: db.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "test.db"),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if _, err := db.InitSchema(ctx, conn); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	return conn
}

// SeedUser inserts a bare user row with the given id and role ("PATIENT" or
// "DOCTOR") and returns the id. The email is derived from the id.
func SeedUser(t testing.TB, conn *sqlx.DB, id, role string) string {
	t.Helper()
	now := time.Now().UTC()
	_, err := conn.Exec(conn.Rebind(`
		INSERT INTO users (id, full_name, email, password_hash, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		id, "Test "+id, id+"@example.com", "x", role, now, now,
	)
	if err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}
	return id
}
