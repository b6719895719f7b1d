package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/23f2004399/hms-tool/internal/platform/db"
)

type sqlRepo struct {
	db *sqlx.DB
}

func NewSQLRepository(conn *sqlx.DB) Repository {
	return &sqlRepo{db: conn}
}

const notificationCols = `id, user_id, type, message, link, is_read, created_at`

func (r *sqlRepo) Create(ctx context.Context, n *Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	q := db.Conn(ctx, r.db)
	_, err := q.ExecContext(ctx, q.Rebind(`
		INSERT INTO notifications (`+notificationCols+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		n.ID, n.UserID, n.Type, n.Message, n.Link, n.IsRead, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (r *sqlRepo) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]*Notification, int, error) {
	where := `WHERE user_id = ?`
	args := []interface{}{userID}
	if unreadOnly {
		where += ` AND is_read = ?`
		args = append(args, false)
	}

	q := db.Conn(ctx, r.db)
	var total int
	if err := q.GetContext(ctx, &total, q.Rebind(`SELECT COUNT(*) FROM notifications `+where), args...); err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}

	items := []*Notification{}
	err := q.SelectContext(ctx, &items, q.Rebind(`SELECT `+notificationCols+` FROM notifications `+where+`
		ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`), append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	return items, total, nil
}

func (r *sqlRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	q := db.Conn(ctx, r.db)
	var n int
	err := q.GetContext(ctx, &n, q.Rebind(`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = ?`), userID, false)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return n, nil
}

func (r *sqlRepo) MarkAllRead(ctx context.Context, userID string) (int, error) {
	return r.exec(ctx, "mark notifications read",
		`UPDATE notifications SET is_read = ? WHERE user_id = ? AND is_read = ?`, true, userID, false)
}

func (r *sqlRepo) DeleteRead(ctx context.Context, userID string) (int, error) {
	return r.exec(ctx, "delete read notifications",
		`DELETE FROM notifications WHERE user_id = ? AND is_read = ?`, userID, true)
}

func (r *sqlRepo) DeleteReadBefore(ctx context.Context, userID string, cutoff time.Time) (int, error) {
	return r.exec(ctx, "prune read notifications",
		`DELETE FROM notifications WHERE user_id = ? AND is_read = ? AND created_at < ?`, userID, true, cutoff.UTC())
}

func (r *sqlRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	return r.exec(ctx, "delete old notifications",
		`DELETE FROM notifications WHERE created_at < ?`, cutoff.UTC())
}

func (r *sqlRepo) exec(ctx context.Context, op, query string, args ...interface{}) (int, error) {
	q := db.Conn(ctx, r.db)
	res, err := q.ExecContext(ctx, q.Rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(n), nil
}
