package auth

import (
	"fmt"
	"strings"
)

// Role is the closed set of portal roles. The zero value is not a valid role;
// values outside the constants below only come from ParseRole failures.
type Role string

const (
	RolePatient Role = "PATIENT"
	RoleDoctor  Role = "DOCTOR"
)

// ParseRole accepts a role name in any case ("patient", "Doctor", ...).
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RolePatient:
		return RolePatient, nil
	case RoleDoctor:
		return RoleDoctor, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	return r == RolePatient || r == RoleDoctor
}

func (r Role) String() string {
	return strings.ToLower(string(r))
}

// MarshalText renders the role in lower case for JSON payloads.
func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid role %q", string(r))
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
