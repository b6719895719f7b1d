package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/23f2004399/hms-tool/internal/platform/db"
)

type sqlRepo struct {
	db *sqlx.DB
}

func NewSQLRepository(conn *sqlx.DB) Repository {
	return &sqlRepo{db: conn}
}

func (r *sqlRepo) UpcomingForPatient(ctx context.Context, patientID string, from time.Time) (int, error) {
	q := db.Conn(ctx, r.db)
	var n int
	err := q.GetContext(ctx, &n, q.Rebind(`
		SELECT COUNT(*) FROM appointments
		WHERE patient_id = ? AND scheduled_at >= ? AND status IN ('PENDING', 'CONFIRMED')`),
		patientID, from.UTC())
	if err != nil {
		return 0, fmt.Errorf("count upcoming appointments: %w", err)
	}
	return n, nil
}

// DoctorStats computes the figures for the UTC day and month containing now.
func (r *sqlRepo) DoctorStats(ctx context.Context, doctorID string, now time.Time) (*DoctorStats, error) {
	now = now.UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	q := db.Conn(ctx, r.db)
	var s DoctorStats
	err := q.GetContext(ctx, &s, q.Rebind(`
		SELECT
			COALESCE(SUM(CASE WHEN a.status = 'PENDING' THEN 1 ELSE 0 END), 0) AS pending,
			COALESCE(SUM(CASE WHEN a.status IN ('CONFIRMED', 'COMPLETED')
				AND a.scheduled_at >= ? AND a.scheduled_at < ? THEN 1 ELSE 0 END), 0) AS today,
			COUNT(DISTINCT CASE WHEN a.status IN ('CONFIRMED', 'COMPLETED') THEN a.patient_id END) AS patients,
			COALESCE(SUM(CASE WHEN a.status IN ('CONFIRMED', 'COMPLETED')
				AND a.scheduled_at >= ? AND a.scheduled_at < ? THEN 1 ELSE 0 END), 0) AS month,
			COALESCE(SUM(CASE WHEN a.status IN ('CONFIRMED', 'COMPLETED')
				AND a.scheduled_at >= ? AND a.scheduled_at < ? THEN d.consultation_fee ELSE 0 END), 0) AS revenue
		FROM appointments a
		LEFT JOIN doctor_details d ON d.user_id = a.doctor_id
		WHERE a.doctor_id = ?`),
		day, day.AddDate(0, 0, 1),
		month, month.AddDate(0, 1, 0),
		month, month.AddDate(0, 1, 0),
		doctorID)
	if err != nil {
		return nil, fmt.Errorf("doctor stats: %w", err)
	}
	return &s, nil
}
