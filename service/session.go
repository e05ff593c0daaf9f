package service

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ResolutionSession keeps one batch's resolution queue alive across
// requests. All queue access goes through the session so concurrent
// operators on the same session cannot interleave transitions.
type ResolutionSession struct {
	ID        string
	CreatedAt time.Time
	queue     *ResolutionQueue
	mu        sync.Mutex
}

// Do runs fn with exclusive access to the session's queue.
func (s *ResolutionSession) Do(fn func(q *ResolutionQueue) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.queue)
}

// SessionStore is an in-memory store for resolution sessions. Sessions are
// ephemeral by design; the only durable effects of a batch live in the
// registry.
type SessionStore struct {
	sessions    map[string]*ResolutionSession
	mu          sync.RWMutex
	maxSessions int // Maximum sessions to keep, 0 = unlimited
}

var (
	globalSessions *SessionStore
	sessionsOnce   sync.Once
)

// InitSessionStore initializes the global session store
func InitSessionStore(maxSessions int) {
	sessionsOnce.Do(func() {
		if maxSessions < 0 {
			maxSessions = 0
		}
		globalSessions = &SessionStore{
			sessions:    make(map[string]*ResolutionSession),
			maxSessions: maxSessions,
		}
		slog.Info("session store initialized", "max_sessions", maxSessions)
	})
}

// GetSessionStore returns the global session store
func GetSessionStore() *SessionStore {
	if globalSessions == nil {
		// Fallback initialization with default settings
		globalSessions = &SessionStore{
			sessions:    make(map[string]*ResolutionSession),
			maxSessions: 100,
		}
	}
	return globalSessions
}

// Create registers a new session around the given queue and returns it.
func (s *SessionStore) Create(queue *ResolutionQueue) *ResolutionSession {
	session := &ResolutionSession{
		ID:        uuid.New().String(),
		CreatedAt: time.Now(),
		queue:     queue,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
	s.cleanupIfNeeded()
	return session
}

func (s *SessionStore) Get(id string) *ResolutionSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[id]
}

func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Count returns the number of sessions in the store
func (s *SessionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// cleanupIfNeeded removes oldest sessions if store exceeds maxSessions
// Must be called with lock held
func (s *SessionStore) cleanupIfNeeded() {
	if s.maxSessions <= 0 {
		return // Unlimited
	}

	if len(s.sessions) <= s.maxSessions {
		return
	}

	sessions := make([]*ResolutionSession, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})

	removeCount := len(s.sessions) - s.maxSessions
	for i := 0; i < removeCount; i++ {
		slog.Info("auto-cleaning old resolution session",
			"session_id", sessions[i].ID,
			"created_at", sessions[i].CreatedAt,
		)
		delete(s.sessions, sessions[i].ID)
	}
}
