package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
	ErrInvalidToken    = errors.New("invalid session token")
)

// Session is the server-held state behind a session token.
type Session struct {
	ID         string    `json:"-" db:"id"`
	UserID     string    `json:"user_id" db:"user_id"`
	Role       Role      `json:"role" db:"role"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	LastSeenAt time.Time `json:"last_seen_at" db:"last_seen_at"`
	ExpiresAt  time.Time `json:"expires_at" db:"expires_at"`
}

// Expired reports whether the session is past its absolute expiry or has
// been idle for longer than idle. A non-positive idle disables the
// inactivity check.
func (s *Session) Expired(now time.Time, idle time.Duration) bool {
	if !now.Before(s.ExpiresAt) {
		return true
	}
	return idle > 0 && now.Sub(s.LastSeenAt) > idle
}

// SessionStore holds sessions keyed by their opaque id. Implementations must
// be safe for concurrent use.
type SessionStore interface {
	Create(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Touch(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
	// DeleteUser removes every session of userID except keepID and returns
	// how many were removed.
	DeleteUser(ctx context.Context, userID, keepID string) (int, error)
	// Purge removes sessions that are expired at now or idle longer than idle.
	Purge(ctx context.Context, now time.Time, idle time.Duration) (int, error)
	Close() error
}

// newSessionID returns 256 bits of randomness, URL-safe encoded.
func newSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
