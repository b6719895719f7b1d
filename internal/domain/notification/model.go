package notification

import "time"

// Type classifies a notification. The appointment and prescription types
// are reserved for the scheduling features.
type Type string

const (
	TypeWelcome             Type = "WELCOME"
	TypeUploadExplained     Type = "UPLOAD_EXPLAINED"
	TypeUploadFailed        Type = "UPLOAD_FAILED"
	TypeAppointmentAccepted Type = "APPOINTMENT_ACCEPTED"
	TypeAppointmentRejected Type = "APPOINTMENT_REJECTED"
	TypePrescriptionWritten Type = "PRESCRIPTION_WRITTEN"
)

// Notification is an in-app message for one user.
type Notification struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"-"`
	Type      Type      `db:"type" json:"type"`
	Message   string    `db:"message" json:"message"`
	Link      *string   `db:"link" json:"link,omitempty"`
	IsRead    bool      `db:"is_read" json:"is_read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// UnreadCount is the body of GET /notifications/unread-count.
type UnreadCount struct {
	Count int `json:"count"`
}
