package profile

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/23f2004399/hms-tool/internal/domain/identity"
	"github.com/23f2004399/hms-tool/internal/platform/auth"
	"github.com/23f2004399/hms-tool/internal/platform/db"
)

type sqlRepo struct {
	db *sqlx.DB
}

func NewSQLRepository(conn *sqlx.DB) Repository {
	return &sqlRepo{db: conn}
}

func (r *sqlRepo) GetUser(ctx context.Context, id string) (*identity.User, error) {
	q := db.Conn(ctx, r.db)
	var u identity.User
	err := q.GetContext(ctx, &u, q.Rebind(`
		SELECT id, full_name, email, password_hash, role, phone, gender, dob, created_at, updated_at
		FROM users WHERE id = ?`), id)
	if err != nil {
		return nil, db.NotFound(err)
	}
	return &u, nil
}

func (r *sqlRepo) GetPatientDetails(ctx context.Context, userID string) (*identity.PatientDetails, error) {
	q := db.Conn(ctx, r.db)
	var d identity.PatientDetails
	err := q.GetContext(ctx, &d, q.Rebind(`
		SELECT user_id, blood_group, allergies, chronic_conditions, medical_history, emergency_contact, updated_at
		FROM patient_details WHERE user_id = ?`), userID)
	if err != nil {
		return nil, db.NotFound(err)
	}
	return &d, nil
}

func (r *sqlRepo) GetDoctorDetails(ctx context.Context, userID string) (*identity.DoctorDetails, error) {
	q := db.Conn(ctx, r.db)
	var d identity.DoctorDetails
	err := q.GetContext(ctx, &d, q.Rebind(`
		SELECT user_id, specialization, qualification, license_id, experience_years,
			consultation_fee, clinic_address, consultation_modes, updated_at
		FROM doctor_details WHERE user_id = ?`), userID)
	if err != nil {
		return nil, db.NotFound(err)
	}
	return &d, nil
}

func (r *sqlRepo) Update(ctx context.Context, userID string, role auth.Role, changes Changes, at time.Time) error {
	return db.WithTx(ctx, r.db, func(ctx context.Context) error {
		q := db.Conn(ctx, r.db)

		n, err := r.set(ctx, q, "users", "id", userID, changes.User, at)
		if err != nil {
			return fmt.Errorf("update user: %w", err)
		}
		if n == 0 {
			return db.ErrNotFound
		}

		table := detailsTable(role)
		if role == auth.RolePatient {
			_, err = q.ExecContext(ctx, q.Rebind(`
				INSERT INTO patient_details (user_id, updated_at) VALUES (?, ?)
				ON CONFLICT (user_id) DO NOTHING`), userID, at)
			if err != nil {
				return fmt.Errorf("ensure patient details: %w", err)
			}
		}
		if _, err := r.set(ctx, q, table, "user_id", userID, changes.Details, at); err != nil {
			return fmt.Errorf("update %s: %w", table, err)
		}
		return nil
	})
}

// set updates the given columns plus updated_at. Column names come from the
// field allow-list, never from the request.
func (r *sqlRepo) set(ctx context.Context, q db.Querier, table, key, id string, values map[string]interface{}, at time.Time) (int64, error) {
	cols := make([]string, 0, len(values))
	for col := range values {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	assignments := make([]string, 0, len(cols)+1)
	args := make([]interface{}, 0, len(cols)+2)
	for _, col := range cols {
		assignments = append(assignments, col+" = ?")
		args = append(args, values[col])
	}
	assignments = append(assignments, "updated_at = ?")
	args = append(args, at, id)

	res, err := q.ExecContext(ctx, q.Rebind(
		`UPDATE `+table+` SET `+strings.Join(assignments, ", ")+` WHERE `+key+` = ?`), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
