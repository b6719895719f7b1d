package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/23f2004399/hms-tool/internal/platform/apperr"
	"github.com/23f2004399/hms-tool/internal/platform/auth"
	"github.com/23f2004399/hms-tool/internal/platform/db"
	"github.com/23f2004399/hms-tool/internal/platform/db/dbtest"
)

func newUser(email string, role auth.Role) *User {
	now := time.Now().UTC()
	return &User{
		ID:           uuid.NewString(),
		FullName:     "User " + email,
		Email:        email,
		PasswordHash: "hash",
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func strPtr(s string) *string { return &s }

func TestSQLRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLRepository(dbtest.Open(t))

	u := newUser("a@x.com", auth.RolePatient)
	u.DOB = strPtr("1990-04-01")
	p := &PatientDetails{UserID: u.ID, BloodGroup: strPtr("O+"), UpdatedAt: u.CreatedAt}
	if err := repo.Create(ctx, u, p, nil); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetByEmail(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if got.ID != u.ID || got.Role != auth.RolePatient {
		t.Errorf("unexpected user %+v", got)
	}
	if got.DOB == nil || *got.DOB != "1990-04-01" {
		t.Errorf("dob not stored: %v", got.DOB)
	}
	if got.Phone != nil {
		t.Errorf("phone should be NULL, got %q", *got.Phone)
	}
	if !got.CreatedAt.Equal(u.CreatedAt) {
		t.Errorf("created_at mismatch: %v vs %v", got.CreatedAt, u.CreatedAt)
	}

	if _, err := repo.GetByID(ctx, u.ID); err != nil {
		t.Errorf("get by id: %v", err)
	}
	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLRepository_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	conn := dbtest.Open(t)
	repo := NewSQLRepository(conn)

	first := newUser("a@x.com", auth.RolePatient)
	if err := repo.Create(ctx, first, &PatientDetails{UserID: first.ID, UpdatedAt: first.CreatedAt}, nil); err != nil {
		t.Fatalf("create: %v", err)
	}
	second := newUser("a@x.com", auth.RoleDoctor)
	err := repo.Create(ctx, second, nil, &DoctorDetails{UserID: second.ID, Specialization: "ENT", UpdatedAt: second.CreatedAt})
	if !errors.Is(err, apperr.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}

	var n int
	if err := conn.Get(&n, `SELECT COUNT(*) FROM users WHERE email = 'a@x.com'`); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("expected exactly one user row, got %d", n)
	}
}

func TestSQLRepository_FailedDetailsRollsBackUser(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLRepository(dbtest.Open(t))

	u := newUser("doc@x.com", auth.RoleDoctor)
	err := repo.Create(ctx, u, nil, &DoctorDetails{UserID: u.ID, Specialization: "", UpdatedAt: u.CreatedAt})
	if err == nil {
		t.Fatal("expected the empty specialization check to fail")
	}
	if errors.Is(err, apperr.ErrDuplicateEmail) {
		t.Errorf("check failure must not look like a duplicate: %v", err)
	}
	if _, err := repo.GetByEmail(ctx, "doc@x.com"); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("user row should have been rolled back, got %v", err)
	}
}

func TestSQLRepository_Doctors(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLRepository(dbtest.Open(t))

	cardio := newUser("c@x.com", auth.RoleDoctor)
	cardio.FullName = "Dr. Banerjee"
	repo.Create(ctx, cardio, nil, &DoctorDetails{
		UserID:            cardio.ID,
		Specialization:    "Cardiology",
		ExperienceYears:   12,
		ConsultationFee:   500,
		ConsultationModes: ConsultationModes{ModePhysical, ModeOnline},
		UpdatedAt:         cardio.CreatedAt,
	})
	derm := newUser("d@x.com", auth.RoleDoctor)
	derm.FullName = "Dr. Alvarez"
	repo.Create(ctx, derm, nil, &DoctorDetails{UserID: derm.ID, Specialization: "Dermatology", UpdatedAt: derm.CreatedAt})
	patient := newUser("p@x.com", auth.RolePatient)
	repo.Create(ctx, patient, &PatientDetails{UserID: patient.ID, UpdatedAt: patient.CreatedAt}, nil)

	all, total, err := repo.ListDoctors(ctx, "", 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 || len(all) != 2 {
		t.Fatalf("expected 2 doctors, got %d", total)
	}
	if all[0].FullName != "Dr. Alvarez" {
		t.Errorf("expected name order, got %q first", all[0].FullName)
	}
	if len(all[0].ConsultationModes) != 1 || all[0].ConsultationModes[0] != ModePhysical {
		t.Errorf("expected default PHYSICAL mode, got %v", all[0].ConsultationModes)
	}

	filtered, total, _ := repo.ListDoctors(ctx, "CARDIOLOGY", 10, 0)
	if total != 1 || filtered[0].ID != cardio.ID {
		t.Fatalf("specialization filter failed: %+v", filtered)
	}
	if got := filtered[0].ConsultationModes; len(got) != 2 || got[1] != ModeOnline {
		t.Errorf("modes not round-tripped: %v", got)
	}

	if _, err := repo.GetDoctor(ctx, cardio.ID); err != nil {
		t.Errorf("get doctor: %v", err)
	}
	if _, err := repo.GetDoctor(ctx, patient.ID); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("patients are not doctors, got %v", err)
	}
}

func TestSQLRepository_UpdatePassword(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLRepository(dbtest.Open(t))

	u := newUser("a@x.com", auth.RolePatient)
	repo.Create(ctx, u, &PatientDetails{UserID: u.ID, UpdatedAt: u.CreatedAt}, nil)

	if err := repo.UpdatePassword(ctx, u.ID, "new-hash", time.Now().UTC()); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := repo.GetByID(ctx, u.ID)
	if got.PasswordHash != "new-hash" {
		t.Errorf("hash not updated: %q", got.PasswordHash)
	}
	if err := repo.UpdatePassword(ctx, "missing", "x", time.Now()); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
