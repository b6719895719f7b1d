// Package medication will hold prescriptions written by doctors. The routes
// answer 501 until prescription writing ships.
package medication

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Medicine is one line of a prescription.
type Medicine struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage"`
	Frequency string `json:"frequency"`
	Days      int    `json:"days,omitempty"`
}

// Medicines is stored as a JSON array in prescriptions.medicines_json.
type Medicines []Medicine

func (m Medicines) Value() (driver.Value, error) {
	if m == nil {
		return "[]", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *Medicines) Scan(src interface{}) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*m = Medicines{}
		return nil
	case string:
		b = []byte(v)
	case []byte:
		b = v
	default:
		return fmt.Errorf("medicines: cannot scan %T", src)
	}
	return json.Unmarshal(b, m)
}

// Prescription mirrors a row of the prescriptions table.
type Prescription struct {
	ID            string    `db:"id" json:"id"`
	DoctorID      string    `db:"doctor_id" json:"doctor_id"`
	PatientID     string    `db:"patient_id" json:"patient_id"`
	AppointmentID *string   `db:"appointment_id" json:"appointment_id,omitempty"`
	Diagnosis     *string   `db:"diagnosis" json:"diagnosis,omitempty"`
	Medicines     Medicines `db:"medicines_json" json:"medicines"`
	Notes         *string   `db:"notes" json:"notes,omitempty"`
	IssuedAt      time.Time `db:"issued_at" json:"issued_at"`
}
