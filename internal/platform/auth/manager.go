package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// ManagerConfig configures a SessionManager.
type ManagerConfig struct {
	Secret      []byte
	IdleTimeout time.Duration
	MaxAge      time.Duration
}

// SessionManager issues, resolves and revokes authenticated sessions.
type SessionManager struct {
	store  SessionStore
	codec  *TokenCodec
	idle   time.Duration
	maxAge time.Duration
	logger zerolog.Logger
	now    func() time.Time
}

func NewSessionManager(store SessionStore, cfg ManagerConfig, logger zerolog.Logger) *SessionManager {
	return &SessionManager{
		store:  store,
		codec:  NewTokenCodec(cfg.Secret),
		idle:   cfg.IdleTimeout,
		maxAge: cfg.MaxAge,
		logger: logger.With().Str("component", "sessions").Logger(),
		now:    time.Now,
	}
}

// SetClock overrides the time source. Intended for tests.
func (m *SessionManager) SetClock(now func() time.Time) {
	m.now = now
}

// MaxAge is the absolute lifetime given to new sessions.
func (m *SessionManager) MaxAge() time.Duration { return m.maxAge }

// Issue creates a session for the user and returns it with its signed token.
func (m *SessionManager) Issue(ctx context.Context, userID string, role Role) (*Session, string, error) {
	if !role.Valid() {
		return nil, "", fmt.Errorf("issue session: invalid role %q", role)
	}
	id, err := newSessionID()
	if err != nil {
		return nil, "", err
	}

	now := m.now().UTC()
	sess := &Session{
		ID:         id,
		UserID:     userID,
		Role:       role,
		CreatedAt:  now,
		LastSeenAt: now,
		ExpiresAt:  now.Add(m.maxAge),
	}
	if err := m.store.Create(ctx, sess); err != nil {
		return nil, "", fmt.Errorf("issue session: %w", err)
	}

	token, err := m.codec.Sign(sess)
	if err != nil {
		m.store.Delete(ctx, sess.ID)
		return nil, "", err
	}
	return sess, token, nil
}

// Resolve verifies a token and returns the live session behind it, sliding
// its idle window forward. Expired sessions are deleted on sight.
func (m *SessionManager) Resolve(ctx context.Context, token string) (*Session, error) {
	now := m.now().UTC()
	id, err := m.codec.Parse(token, now)
	if err != nil {
		return nil, err
	}

	sess, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Expired(now, m.idle) {
		if err := m.store.Delete(ctx, id); err != nil {
			m.logger.Warn().Err(err).Msg("failed to delete expired session")
		}
		return nil, ErrSessionExpired
	}

	if err := m.store.Touch(ctx, id, now); err != nil && !errors.Is(err, ErrSessionNotFound) {
		m.logger.Warn().Err(err).Msg("failed to refresh session activity")
	}
	sess.LastSeenAt = now
	return sess, nil
}

// Revoke ends the session. Revoking an unknown session is not an error.
func (m *SessionManager) Revoke(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return m.store.Delete(ctx, id)
}

// RevokeToken ends the session named by a token. Tokens that fail
// verification name no session and are ignored.
func (m *SessionManager) RevokeToken(ctx context.Context, token string) error {
	id, err := m.codec.Parse(token, m.now())
	if err != nil {
		return nil
	}
	return m.Revoke(ctx, id)
}

// RevokeUser ends every session of the user except keepID.
func (m *SessionManager) RevokeUser(ctx context.Context, userID, keepID string) (int, error) {
	return m.store.DeleteUser(ctx, userID, keepID)
}

// Purge removes all expired and idle sessions from the store.
func (m *SessionManager) Purge(ctx context.Context) (int, error) {
	return m.store.Purge(ctx, m.now().UTC(), m.idle)
}
