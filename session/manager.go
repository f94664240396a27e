package session

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Manager tracks open sessions by id.
// Thread-safe for concurrent access.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}

// ManagerStats holds aggregate figures across open sessions.
type ManagerStats struct {
	Sessions       int   `json:"sessions"`
	BufferedBytes  int64 `json:"buffered_bytes"`
	ParallelChunks int64 `json:"parallel_chunks"`
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return NewManagerWithClock(time.Now)
}

// NewManagerWithClock creates a manager that reads time from now.
// Used by tests to control idle expiry.
func NewManagerWithClock(now func() time.Time) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		now:      now,
	}
}

// Open creates a session owned by principal with the given limits.
func (m *Manager) Open(principal string, limits Limits) (*Session, error) {
	if err := limits.Validate(); err != nil {
		return nil, err
	}

	s := newSession(uuid.New().String(), principal, limits, m.now)

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	return s, nil
}

// Get returns the session with id, or ErrSessionNotFound.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Close clears the session buffers and forgets it.
// Returns false if the session was not open.
func (m *Manager) Close(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		s.Clear()
	}
	return ok
}

// IDs returns the open session ids, sorted.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Idle returns the ids of sessions with no activity since before, sorted.
func (m *Manager) Idle(before time.Time) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var ids []string
	for id, s := range m.sessions {
		if s.LastActive().Before(before) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// Sweep closes sessions idle for longer than idle and returns their ids,
// sorted. Idleness is decided under the manager write lock, so a session
// touched concurrently survives. Sealed sessions are never swept.
// A non-positive idle disables sweeping.
func (m *Manager) Sweep(idle time.Duration) []string {
	if idle <= 0 {
		return nil
	}
	cutoff := m.now().Add(-idle)

	var stale []*Session
	m.mu.Lock()
	for id, s := range m.sessions {
		if s.expired(cutoff) {
			delete(m.sessions, id)
			stale = append(stale, s)
		}
	}
	m.mu.Unlock()

	ids := make([]string, 0, len(stale))
	for _, s := range stale {
		s.Clear()
		ids = append(ids, s.id)
	}
	slices.Sort(ids)
	return ids
}

// Stats returns aggregate figures across open sessions.
func (m *Manager) Stats() ManagerStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := ManagerStats{Sessions: len(m.sessions)}
	for _, s := range m.sessions {
		st := s.Status()
		stats.BufferedBytes += int64(st.BufferSize) + int64(st.ParallelBufferSize)
		stats.ParallelChunks += int64(st.ParallelChunkCount)
	}
	return stats
}
