package identity

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/23f2004399/hms-tool/internal/platform/auth"
)

// User maps to the users table. It holds the fields shared by both roles.
type User struct {
	ID           string    `db:"id" json:"id"`
	FullName     string    `db:"full_name" json:"full_name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         auth.Role `db:"role" json:"role"`
	Phone        *string   `db:"phone" json:"phone,omitempty"`
	Gender       *string   `db:"gender" json:"gender,omitempty"`
	DOB          *string   `db:"dob" json:"dob,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// PatientDetails maps to the patient_details table.
type PatientDetails struct {
	UserID            string    `db:"user_id" json:"-"`
	BloodGroup        *string   `db:"blood_group" json:"blood_group,omitempty"`
	Allergies         *string   `db:"allergies" json:"allergies,omitempty"`
	ChronicConditions *string   `db:"chronic_conditions" json:"chronic_conditions,omitempty"`
	MedicalHistory    *string   `db:"medical_history" json:"medical_history,omitempty"`
	EmergencyContact  *string   `db:"emergency_contact" json:"emergency_contact,omitempty"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// DoctorDetails maps to the doctor_details table.
type DoctorDetails struct {
	UserID            string            `db:"user_id" json:"-"`
	Specialization    string            `db:"specialization" json:"specialization"`
	Qualification     *string           `db:"qualification" json:"qualification,omitempty"`
	LicenseID         *string           `db:"license_id" json:"license_id,omitempty"`
	ExperienceYears   int               `db:"experience_years" json:"experience_years"`
	ConsultationFee   float64           `db:"consultation_fee" json:"consultation_fee"`
	ClinicAddress     *string           `db:"clinic_address" json:"clinic_address,omitempty"`
	ConsultationModes ConsultationModes `db:"consultation_modes" json:"consultation_modes"`
	UpdatedAt         time.Time         `db:"updated_at" json:"updated_at"`
}

// DoctorView is the public directory entry for a doctor.
type DoctorView struct {
	ID                string            `db:"id" json:"id"`
	FullName          string            `db:"full_name" json:"full_name"`
	Gender            *string           `db:"gender" json:"gender,omitempty"`
	Specialization    string            `db:"specialization" json:"specialization"`
	Qualification     *string           `db:"qualification" json:"qualification,omitempty"`
	ExperienceYears   int               `db:"experience_years" json:"experience_years"`
	ConsultationFee   float64           `db:"consultation_fee" json:"consultation_fee"`
	ClinicAddress     *string           `db:"clinic_address" json:"clinic_address,omitempty"`
	ConsultationModes ConsultationModes `db:"consultation_modes" json:"consultation_modes"`
}

// ConsultationModes is stored as a comma separated set, e.g. "PHYSICAL,ONLINE".
type ConsultationModes []string

func (m ConsultationModes) Value() (driver.Value, error) {
	if len(m) == 0 {
		return ModePhysical, nil
	}
	return strings.Join(m, ","), nil
}

func (m *ConsultationModes) Scan(src interface{}) error {
	var s string
	switch v := src.(type) {
	case nil:
		*m = nil
		return nil
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("scan consultation modes: unsupported type %T", src)
	}
	var out ConsultationModes
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*m = out
	return nil
}

// RegisterRequest is the body of POST /register. Fields of the other role
// are ignored.
type RegisterRequest struct {
	FullName string `json:"full_name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"required"`
	Phone    string `json:"phone" validate:"omitempty,max=20"`
	Gender   string `json:"gender" validate:"omitempty,oneof=MALE FEMALE OTHER"`
	DOB      string `json:"dob" validate:"omitempty,datetime=2006-01-02"`

	BloodGroup        string `json:"blood_group" validate:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	Allergies         string `json:"allergies" validate:"omitempty,max=2000"`
	ChronicConditions string `json:"chronic_conditions" validate:"omitempty,max=2000"`
	MedicalHistory    string `json:"medical_history" validate:"omitempty,max=4000"`
	EmergencyContact  string `json:"emergency_contact" validate:"omitempty,max=120"`

	Specialization    string   `json:"specialization" validate:"omitempty,max=120"`
	Qualification     string   `json:"qualification" validate:"omitempty,max=200"`
	LicenseID         string   `json:"license_id" validate:"omitempty,max=64"`
	ExperienceYears   int      `json:"experience_years" validate:"gte=0,lte=80"`
	ConsultationFee   float64  `json:"consultation_fee" validate:"gte=0"`
	ClinicAddress     string   `json:"clinic_address" validate:"omitempty,max=500"`
	ConsultationModes []string `json:"consultation_modes" validate:"omitempty,dive,oneof=PHYSICAL ONLINE"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}

// LoginResponse carries the token for API clients; browsers also get it as
// a cookie.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      *User     `json:"user"`
}
