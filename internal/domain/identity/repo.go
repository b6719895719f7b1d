package identity

import (
	"context"
	"time"
)

type Repository interface {
	// Create inserts the user and the details row of its role in one
	// transaction. Exactly one of patient and doctor is non-nil.
	Create(ctx context.Context, u *User, patient *PatientDetails, doctor *DoctorDetails) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	UpdatePassword(ctx context.Context, id, hash string, at time.Time) error
	ListDoctors(ctx context.Context, specialization string, limit, offset int) ([]*DoctorView, int, error)
	GetDoctor(ctx context.Context, id string) (*DoctorView, error)
}
