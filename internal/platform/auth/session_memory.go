package auth

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps sessions in process memory. A background goroutine
// purges expired sessions until Close is called.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session  // session ID -> session
	byUser   map[string][]string // user ID -> session IDs
	idle     time.Duration
	done     chan struct{}
	closed   sync.Once
}

// NewMemoryStore creates a store and starts the janitor, which runs every
// interval and drops sessions idle for longer than idle.
func NewMemoryStore(idle, interval time.Duration) *MemoryStore {
	s := &MemoryStore{
		sessions: make(map[string]Session),
		byUser:   make(map[string][]string),
		idle:     idle,
		done:     make(chan struct{}),
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go s.cleanupLoop(interval)
	return s
}

func (s *MemoryStore) Create(_ context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[sess.ID] = *sess
	s.byUser[sess.UserID] = append(s.byUser[sess.UserID], sess.ID)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &sess, nil
}

func (s *MemoryStore) Touch(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	if at.After(sess.LastSeenAt) {
		sess.LastSeenAt = at
		s.sessions[id] = sess
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deleteLocked(id)
	return nil
}

func (s *MemoryStore) DeleteUser(_ context.Context, userID, keepID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := append([]string(nil), s.byUser[userID]...)
	count := 0
	for _, id := range ids {
		if id == keepID {
			continue
		}
		if s.deleteLocked(id) {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) Purge(_ context.Context, now time.Time, idle time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for id, sess := range s.sessions {
		if sess.Expired(now, idle) {
			s.deleteLocked(id)
			count++
		}
	}
	return count, nil
}

// Count returns the number of sessions currently held.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sessions)
}

// Close stops the background cleanup goroutine and drops all sessions. It is
// safe to call multiple times.
func (s *MemoryStore) Close() error {
	s.closed.Do(func() {
		close(s.done)
		s.mu.Lock()
		s.sessions = make(map[string]Session)
		s.byUser = make(map[string][]string)
		s.mu.Unlock()
	})
	return nil
}

// deleteLocked removes a session and its user index entry. The caller must
// hold the write lock.
func (s *MemoryStore) deleteLocked(id string) bool {
	sess, ok := s.sessions[id]
	if !ok {
		return false
	}
	delete(s.sessions, id)

	ids := s.byUser[sess.UserID]
	for i, sid := range ids {
		if sid == id {
			s.byUser[sess.UserID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(s.byUser[sess.UserID]) == 0 {
		delete(s.byUser, sess.UserID)
	}
	return true
}

func (s *MemoryStore) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			s.Purge(context.Background(), now, s.idle)
		}
	}
}
