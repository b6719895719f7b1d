package identity

import (
	"strings"
	"time"
)

const (
	ModePhysical = "PHYSICAL"
	ModeOnline   = "ONLINE"
)

// DateLayout is the format of User.DOB.
const DateLayout = "2006-01-02"

var (
	Genders     = []string{"MALE", "FEMALE", "OTHER"}
	BloodGroups = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}
)

// NormalizeEmail trims and lower-cases an address before it is stored or
// looked up.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeModes upper-cases and de-duplicates consultation modes, keeping
// their order.
func NormalizeModes(modes []string) []string {
	seen := make(map[string]bool, len(modes))
	out := make([]string, 0, len(modes))
	for _, m := range modes {
		m = strings.ToUpper(strings.TrimSpace(m))
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}

// ValidDOB reports whether s is a calendar date not in the future.
func ValidDOB(s string, now time.Time) bool {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return false
	}
	return !d.After(now)
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
