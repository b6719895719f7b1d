package profile

import (
	"github.com/23f2004399/hms-tool/internal/platform/auth"
)

type fieldKind int

const (
	kindText fieldKind = iota
	kindRequiredText
	kindEnum
	kindDate
	kindInt
	kindFloat
	kindModes
)

// field describes one writable profile attribute. The JSON name doubles as
// the column name.
type field struct {
	kind    fieldKind
	details bool // stored in the role's details table rather than users
	tag     string
}

var commonFields = map[string]field{
	"full_name": {kind: kindRequiredText, tag: "max=120"},
	"phone":     {kind: kindText, tag: "max=20"},
	"gender":    {kind: kindEnum, tag: "oneof=MALE FEMALE OTHER"},
	"dob":       {kind: kindDate},
}

var patientFields = map[string]field{
	"blood_group":        {kind: kindEnum, details: true, tag: "oneof=A+ A- B+ B- AB+ AB- O+ O-"},
	"allergies":          {kind: kindText, details: true, tag: "max=2000"},
	"chronic_conditions": {kind: kindText, details: true, tag: "max=2000"},
	"medical_history":    {kind: kindText, details: true, tag: "max=4000"},
	"emergency_contact":  {kind: kindText, details: true, tag: "max=120"},
}

var doctorFields = map[string]field{
	"specialization":     {kind: kindRequiredText, details: true, tag: "max=120"},
	"qualification":      {kind: kindText, details: true, tag: "max=200"},
	"license_id":         {kind: kindText, details: true, tag: "max=64"},
	"experience_years":   {kind: kindInt, details: true, tag: "gte=0,lte=80"},
	"consultation_fee":   {kind: kindFloat, details: true, tag: "gte=0"},
	"clinic_address":     {kind: kindText, details: true, tag: "max=500"},
	"consultation_modes": {kind: kindModes, details: true},
}

// fieldsFor returns the fields role may write and the fields reserved for
// the other role.
func fieldsFor(role auth.Role) (own, other map[string]field) {
	if role == auth.RoleDoctor {
		return doctorFields, patientFields
	}
	return patientFields, doctorFields
}

func lookup(role auth.Role, name string) (f field, allowed, foreign bool) {
	if f, ok := commonFields[name]; ok {
		return f, true, false
	}
	own, other := fieldsFor(role)
	if f, ok := own[name]; ok {
		return f, true, false
	}
	if _, ok := other[name]; ok {
		return field{}, false, true
	}
	return field{}, false, false
}

func detailsTable(role auth.Role) string {
	if role == auth.RoleDoctor {
		return "doctor_details"
	}
	return "patient_details"
}
