package ws

import (
	"sync"

	"github.com/google/uuid"
)

// Registry tracks the open streaming sessions
type Registry struct {
	sessions map[uuid.UUID]*Session
	mu       sync.RWMutex
	closed   bool
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Add registers a session. It returns false once the registry is shut down.
func (r *Registry) Add(s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return false
	}
	r.sessions[s.ID()] = s
	return true
}

// Remove drops a session; unknown ids are ignored
func (r *Registry) Remove(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, id)
}

// Get returns a registered session
func (r *Registry) Get(id uuid.UUID) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	return s, ok
}

// Count returns the number of open sessions
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions)
}

// CloseAll closes every session and rejects new ones
func (r *Registry) CloseAll() {
	r.mu.Lock()
	r.closed = true
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.sessions = make(map[uuid.UUID]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close(CloseGoingAway, "server shutting down")
	}
}
