package dashboard

import (
	"github.com/23f2004399/hms-tool/internal/domain/upload"
	"github.com/23f2004399/hms-tool/internal/platform/auth"
)

// Greeting identifies whose dashboard it is.
type Greeting struct {
	UserID   string    `json:"user_id"`
	FullName string    `json:"full_name"`
	Role     auth.Role `json:"role"`
}

type PatientDashboard struct {
	Greeting
	UploadCount          int            `json:"upload_count"`
	RecentUploads        []*upload.View `json:"recent_uploads"`
	UnreadNotifications  int            `json:"unread_notifications"`
	UpcomingAppointments int            `json:"upcoming_appointments"`
}

// DoctorStats are the appointment figures shown to a doctor. Only confirmed
// and completed appointments count towards patients and revenue.
type DoctorStats struct {
	PendingAppointments int     `db:"pending" json:"pending_appointments"`
	TodayAppointments   int     `db:"today" json:"today_appointments"`
	TotalPatients       int     `db:"patients" json:"total_patients"`
	MonthAppointments   int     `db:"month" json:"month_appointments"`
	MonthRevenue        float64 `db:"revenue" json:"month_revenue"`
}

type DoctorDashboard struct {
	Greeting
	Stats               DoctorStats `json:"stats"`
	UnreadNotifications int         `json:"unread_notifications"`
}
