// Package scheduling will hold appointment booking. Until the workflow ships,
// its routes answer 501 and the appointments table is only read by the
// dashboard.
package scheduling

import "time"

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusRejected  Status = "REJECTED"
	StatusCompleted Status = "COMPLETED"
)

type Mode string

const (
	ModePhysical Mode = "PHYSICAL"
	ModeOnline   Mode = "ONLINE"
)

// Appointment mirrors a row of the appointments table.
type Appointment struct {
	ID          string    `db:"id" json:"id"`
	PatientID   string    `db:"patient_id" json:"patient_id"`
	DoctorID    string    `db:"doctor_id" json:"doctor_id"`
	ScheduledAt time.Time `db:"scheduled_at" json:"scheduled_at"`
	Mode        Mode      `db:"mode" json:"mode"`
	Status      Status    `db:"status" json:"status"`
	Symptoms    *string   `db:"symptoms" json:"symptoms,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
