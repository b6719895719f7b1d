package profile

import (
	"context"
	"time"

	"github.com/23f2004399/hms-tool/internal/domain/identity"
	"github.com/23f2004399/hms-tool/internal/platform/auth"
)

type Repository interface {
	GetUser(ctx context.Context, id string) (*identity.User, error)
	GetPatientDetails(ctx context.Context, userID string) (*identity.PatientDetails, error)
	GetDoctorDetails(ctx context.Context, userID string) (*identity.DoctorDetails, error)
	// Update writes changes for a user of the given role and bumps updated_at
	// on every table it touches.
	Update(ctx context.Context, userID string, role auth.Role, changes Changes, at time.Time) error
}
