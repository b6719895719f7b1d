package upload

import (
	"context"
	"fmt"

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

const uploadCols = `id, user_id, filename, blob_ref, content_type, size_bytes, sha256, kind, uploaded_at`

const readingCols = `id, upload_id, status, explanation, failure, model, created_at`

func (r *sqlRepo) Create(ctx context.Context, u *Upload) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	q := db.Conn(ctx, r.db)
	_, err := q.ExecContext(ctx, q.Rebind(`
		INSERT INTO uploads (`+uploadCols+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		u.ID, u.UserID, u.FileName, u.BlobRef, u.ContentType, u.SizeBytes, u.SHA256, u.Kind, u.UploadedAt)
	if err != nil {
		return fmt.Errorf("insert upload: %w", err)
	}
	return nil
}

func (r *sqlRepo) Get(ctx context.Context, id string) (*Upload, error) {
	q := db.Conn(ctx, r.db)
	var u Upload
	if err := q.GetContext(ctx, &u, q.Rebind(`SELECT `+uploadCols+` FROM uploads WHERE id = ?`), id); err != nil {
		return nil, db.NotFound(err)
	}
	return &u, nil
}

func (r *sqlRepo) ListByUser(ctx context.Context, userID string, kind Kind, limit, offset int) ([]*Upload, int, error) {
	where := ` WHERE user_id = ?`
	args := []interface{}{userID}
	if kind != "" {
		where += ` AND kind = ?`
		args = append(args, kind)
	}

	q := db.Conn(ctx, r.db)
	var total int
	if err := q.GetContext(ctx, &total, q.Rebind(`SELECT COUNT(*) FROM uploads`+where), args...); err != nil {
		return nil, 0, fmt.Errorf("count uploads: %w", err)
	}

	items := []*Upload{}
	err := q.SelectContext(ctx, &items, q.Rebind(`SELECT `+uploadCols+` FROM uploads`+where+`
		ORDER BY uploaded_at DESC, id DESC LIMIT ? OFFSET ?`), append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list uploads: %w", err)
	}
	return items, total, nil
}

func (r *sqlRepo) Delete(ctx context.Context, id string) error {
	q := db.Conn(ctx, r.db)
	res, err := q.ExecContext(ctx, q.Rebind(`DELETE FROM uploads WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete upload: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return db.ErrNotFound
	}
	return nil
}

func (r *sqlRepo) AddReading(ctx context.Context, rd *Reading) error {
	if rd.ID == "" {
		rd.ID = uuid.NewString()
	}
	q := db.Conn(ctx, r.db)
	_, err := q.ExecContext(ctx, q.Rebind(`
		INSERT INTO upload_readings (`+readingCols+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		rd.ID, rd.UploadID, rd.Status, rd.Explanation, rd.Failure, rd.Model, rd.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert reading: %w", err)
	}
	return nil
}

func (r *sqlRepo) LatestReadings(ctx context.Context, ids []string) (map[string]*Reading, error) {
	latest := make(map[string]*Reading, len(ids))
	if len(ids) == 0 {
		return latest, nil
	}

	query, args, err := sqlx.In(`SELECT `+readingCols+` FROM upload_readings
		WHERE upload_id IN (?) ORDER BY created_at, id`, ids)
	if err != nil {
		return nil, fmt.Errorf("build readings query: %w", err)
	}
	q := db.Conn(ctx, r.db)
	var rows []*Reading
	if err := q.SelectContext(ctx, &rows, q.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list readings: %w", err)
	}
	// Ascending order, so the last row seen per upload wins.
	for _, rd := range rows {
		latest[rd.UploadID] = rd
	}
	return latest, nil
}
