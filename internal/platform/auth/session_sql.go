package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/23f2004399/hms-tool/internal/platform/db"
)

// SQLStore persists sessions in the sessions table so they survive restarts
// and are shared between server instances.
type SQLStore struct {
	db *sqlx.DB
}

func NewSQLStore(conn *sqlx.DB) *SQLStore {
	return &SQLStore{db: conn}
}

func (s *SQLStore) Create(ctx context.Context, sess *Session) error {
	q := db.Conn(ctx, s.db)
	_, err := q.ExecContext(ctx, q.Rebind(`
		INSERT INTO sessions (id, user_id, role, created_at, last_seen_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)`),
		sess.ID, sess.UserID, string(sess.Role),
		sess.CreatedAt.UTC(), sess.LastSeenAt.UTC(), sess.ExpiresAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (*Session, error) {
	q := db.Conn(ctx, s.db)
	var sess Session
	err := q.GetContext(ctx, &sess, q.Rebind(`
		SELECT id, user_id, role, created_at, last_seen_at, expires_at
		FROM sessions WHERE id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &sess, nil
}

func (s *SQLStore) Touch(ctx context.Context, id string, at time.Time) error {
	q := db.Conn(ctx, s.db)
	res, err := q.ExecContext(ctx, q.Rebind(`
		UPDATE sessions SET last_seen_at = ?
		WHERE id = ? AND last_seen_at < ?`),
		at.UTC(), id, at.UTC(),
	)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists int
		err := q.GetContext(ctx, &exists, q.Rebind(`SELECT COUNT(*) FROM sessions WHERE id = ?`), id)
		if err != nil {
			return fmt.Errorf("touch session: %w", err)
		}
		if exists == 0 {
			return ErrSessionNotFound
		}
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	q := db.Conn(ctx, s.db)
	if _, err := q.ExecContext(ctx, q.Rebind(`DELETE FROM sessions WHERE id = ?`), id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *SQLStore) DeleteUser(ctx context.Context, userID, keepID string) (int, error) {
	q := db.Conn(ctx, s.db)
	res, err := q.ExecContext(ctx, q.Rebind(`DELETE FROM sessions WHERE user_id = ? AND id <> ?`), userID, keepID)
	if err != nil {
		return 0, fmt.Errorf("delete user sessions: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (s *SQLStore) Purge(ctx context.Context, now time.Time, idle time.Duration) (int, error) {
	q := db.Conn(ctx, s.db)
	now = now.UTC()
	var (
		res sql.Result
		err error
	)
	if idle > 0 {
		res, err = q.ExecContext(ctx, q.Rebind(`
			DELETE FROM sessions WHERE expires_at <= ? OR last_seen_at < ?`),
			now, now.Add(-idle),
		)
	} else {
		res, err = q.ExecContext(ctx, q.Rebind(`DELETE FROM sessions WHERE expires_at <= ?`), now)
	}
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// Close is a no-op; the connection pool is owned by the caller.
func (s *SQLStore) Close() error { return nil }
