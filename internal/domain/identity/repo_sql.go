package identity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/23f2004399/hms-tool/internal/platform/apperr"
	"github.com/23f2004399/hms-tool/internal/platform/db"
)

type sqlRepo struct {
	db *sqlx.DB
}

func NewSQLRepository(conn *sqlx.DB) Repository {
	return &sqlRepo{db: conn}
}

const userCols = `id, full_name, email, password_hash, role, phone, gender, dob, created_at, updated_at`

const doctorViewCols = `u.id, u.full_name, u.gender, d.specialization, d.qualification,
	d.experience_years, d.consultation_fee, d.clinic_address, d.consultation_modes`

func (r *sqlRepo) Create(ctx context.Context, u *User, patient *PatientDetails, doctor *DoctorDetails) error {
	err := db.WithTx(ctx, r.db, func(ctx context.Context) error {
		q := db.Conn(ctx, r.db)
		_, err := q.ExecContext(ctx, q.Rebind(`
			INSERT INTO users (`+userCols+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			u.ID, u.FullName, u.Email, u.PasswordHash, u.Role, u.Phone, u.Gender, u.DOB, u.CreatedAt, u.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert user: %w", err)
		}

		switch {
		case patient != nil:
			_, err = q.ExecContext(ctx, q.Rebind(`
				INSERT INTO patient_details (user_id, blood_group, allergies, chronic_conditions,
					medical_history, emergency_contact, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?)`),
				u.ID, patient.BloodGroup, patient.Allergies, patient.ChronicConditions,
				patient.MedicalHistory, patient.EmergencyContact, patient.UpdatedAt)
			if err != nil {
				return fmt.Errorf("insert patient details: %w", err)
			}
		case doctor != nil:
			_, err = q.ExecContext(ctx, q.Rebind(`
				INSERT INTO doctor_details (user_id, specialization, qualification, license_id,
					experience_years, consultation_fee, clinic_address, consultation_modes, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
				u.ID, doctor.Specialization, doctor.Qualification, doctor.LicenseID,
				doctor.ExperienceYears, doctor.ConsultationFee, doctor.ClinicAddress,
				doctor.ConsultationModes, doctor.UpdatedAt)
			if err != nil {
				return fmt.Errorf("insert doctor details: %w", err)
			}
		}
		return nil
	})
	if db.IsUniqueViolation(err) {
		return apperr.Wrap(apperr.ErrDuplicateEmail, err)
	}
	return err
}

func (r *sqlRepo) GetByID(ctx context.Context, id string) (*User, error) {
	return r.getUser(ctx, `id = ?`, id)
}

func (r *sqlRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getUser(ctx, `email = ?`, email)
}

func (r *sqlRepo) getUser(ctx context.Context, where string, arg interface{}) (*User, error) {
	q := db.Conn(ctx, r.db)
	var u User
	if err := q.GetContext(ctx, &u, q.Rebind(`SELECT `+userCols+` FROM users WHERE `+where), arg); err != nil {
		return nil, db.NotFound(err)
	}
	return &u, nil
}

func (r *sqlRepo) UpdatePassword(ctx context.Context, id, hash string, at time.Time) error {
	q := db.Conn(ctx, r.db)
	res, err := q.ExecContext(ctx, q.Rebind(`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`), hash, at, id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return db.ErrNotFound
	}
	return nil
}

func (r *sqlRepo) ListDoctors(ctx context.Context, specialization string, limit, offset int) ([]*DoctorView, int, error) {
	where := `WHERE u.role = ?`
	args := []interface{}{"DOCTOR"}
	if s := strings.TrimSpace(specialization); s != "" {
		where += ` AND LOWER(d.specialization) = ?`
		args = append(args, strings.ToLower(s))
	}
	from := ` FROM users u JOIN doctor_details d ON d.user_id = u.id `

	q := db.Conn(ctx, r.db)
	var total int
	if err := q.GetContext(ctx, &total, q.Rebind(`SELECT COUNT(*)`+from+where), args...); err != nil {
		return nil, 0, fmt.Errorf("count doctors: %w", err)
	}

	items := []*DoctorView{}
	err := q.SelectContext(ctx, &items, q.Rebind(`SELECT `+doctorViewCols+from+where+`
		ORDER BY u.full_name, u.id LIMIT ? OFFSET ?`), append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list doctors: %w", err)
	}
	return items, total, nil
}

func (r *sqlRepo) GetDoctor(ctx context.Context, id string) (*DoctorView, error) {
	q := db.Conn(ctx, r.db)
	var v DoctorView
	err := q.GetContext(ctx, &v, q.Rebind(`SELECT `+doctorViewCols+`
		FROM users u JOIN doctor_details d ON d.user_id = u.id
		WHERE u.id = ? AND u.role = ?`), id, "DOCTOR")
	if err != nil {
		return nil, db.NotFound(err)
	}
	return &v, nil
}
