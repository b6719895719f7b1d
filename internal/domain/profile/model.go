package profile

import (
	"github.com/23f2004399/hms-tool/internal/domain/identity"
)

// View merges the user record with the details row of its role.
type View struct {
	*identity.User
	Patient *identity.PatientDetails `json:"patient_details,omitempty"`
	Doctor  *identity.DoctorDetails  `json:"doctor_details,omitempty"`
}

// Changes holds validated column values for one update, split by table.
type Changes struct {
	User    map[string]interface{}
	Details map[string]interface{}
}
