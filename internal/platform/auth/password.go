package auth

import (
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordMismatch is returned when a password does not match its hash.
var ErrPasswordMismatch = errors.New("password does not match")

// MaxPasswordBytes is the longest password bcrypt can hash without truncation.
const MaxPasswordBytes = 72

// HashPassword derives a salted bcrypt hash. A cost outside bcrypt's range
// falls back to bcrypt.DefaultCost.
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword verifies password against a hash produced by HashPassword.
func CheckPassword(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPasswordMismatch
	}
	return err
}

var (
	dummyOnce sync.Once
	dummyHash string
)

// BurnPasswordCheck runs a bcrypt comparison against a fixed hash so that a
// login for an unknown email costs as much as one with a wrong password.
func BurnPasswordCheck(password string) {
	dummyOnce.Do(func() {
		h, _ := bcrypt.GenerateFromPassword([]byte("medifriend-dummy-password"), bcrypt.DefaultCost)
		dummyHash = string(h)
	})
	_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
}
