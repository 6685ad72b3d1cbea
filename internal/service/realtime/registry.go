package realtime

import "sync"

// Registry tracks live sessions so the host can shut them down together.
// It never routes frames between sessions.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
	}
}

// Add registers a session. An existing session with the same id is
// terminated first.
func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	old, exists := r.sessions[s.ID()]
	r.sessions[s.ID()] = s
	r.mu.Unlock()

	if exists && old != s {
		old.Terminate(CloseGoingAway, "replaced")
	}
}

// Get looks up a live session.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	return s, ok
}

// Remove forgets a session without touching its transport.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// CloseAll terminates every live session with a going-away close frame.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for id, s := range r.sessions {
		sessions = append(sessions, s)
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	for _, s := range sessions {
		s.Terminate(CloseGoingAway, "server shutting down")
	}
}
