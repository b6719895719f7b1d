// Package db opens the relational store, applies the embedded schema and
// provides the transaction and error helpers shared by every repository.
package db

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Options configures Open.
type Options struct {
	Driver       string
	DSN          string // file path for sqlite, connection URL for postgres
	MaxOpenConns int
	MaxIdleConns int
}

// Open connects to the configured database, sizes the pool and pings it.
// SQLite connections always run with foreign keys enforced.
func Open(ctx context.Context, opts Options) (*sqlx.DB, error) {
	var (
		db  *sqlx.DB
		err error
	)

	switch opts.Driver {
	case DriverSQLite, "":
		db, err = sqlx.Open("sqlite", sqliteDSN(opts.DSN))
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
	case DriverPostgres:
		cfg, perr := pgx.ParseConfig(opts.DSN)
		if perr != nil {
			return nil, fmt.Errorf("parse database url: %w", perr)
		}
		db = sqlx.NewDb(stdlib.OpenDB(*cfg), "pgx")
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}

	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

// sqliteDSN turns a plain file path into a modernc DSN carrying the pragmas
// every connection needs. Paths that already carry a query are used as-is.
func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "journal_mode(WAL)")
	q.Set("_time_format", "sqlite")
	return "file:" + path + "?" + q.Encode()
}
