package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type contextKey string

const txKey contextKey = "db_tx"

// ErrNotFound is returned by repositories when a row does not exist.
var ErrNotFound = errors.New("record not found")

// Querier is the subset of sqlx shared by *sqlx.DB and *sqlx.Tx.
type Querier interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// TxFromContext retrieves the transaction stored by WithTx, if any.
func TxFromContext(ctx context.Context) *sqlx.Tx {
	tx, _ := ctx.Value(txKey).(*sqlx.Tx)
	return tx
}

// Conn returns the transaction in ctx when present, otherwise the pool.
func Conn(ctx context.Context, db *sqlx.DB) Querier {
	if tx := TxFromContext(ctx); tx != nil {
		return tx
	}
	return db
}

// WithTx runs fn inside a transaction. Repositories called with the context
// passed to fn join that transaction through Conn. Nested calls reuse the
// outer transaction. The transaction is rolled back when fn returns an error
// or panics.
func WithTx(ctx context.Context, db *sqlx.DB, fn func(ctx context.Context) error) (err error) {
	if TxFromContext(ctx) != nil {
		return fn(ctx)
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
		if err != nil {
			tx.Rollback()
		}
	}()

	if err = fn(context.WithValue(ctx, txKey, tx)); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// NotFound maps sql.ErrNoRows to ErrNotFound and leaves other errors intact.
func NotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
