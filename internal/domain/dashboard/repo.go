package dashboard

import (
	"context"
	"time"
)

// Repository reads appointment figures. Booking is not open yet, so these
// queries mostly report zeros today.
type Repository interface {
	UpcomingForPatient(ctx context.Context, patientID string, from time.Time) (int, error)
	DoctorStats(ctx context.Context, doctorID string, now time.Time) (*DoctorStats, error)
}
