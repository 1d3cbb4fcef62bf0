package trainer

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned for ids that are not registered.
var ErrSessionNotFound = errors.New("session not found")

// Registry holds the live sessions of a server.
type Registry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[uuid.UUID]*Session)}
}

// Create builds a session from cfg and registers it.
func (r *Registry) Create(cfg SessionConfig) (*Session, error) {
	s, err := NewSession(cfg)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.sessions[s.ID()] = s
	r.mu.Unlock()
	return s, nil
}

func (r *Registry) Get(id uuid.UUID) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Remove unregisters the session and returns it.
func (r *Registry) Remove(id uuid.UUID) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	delete(r.sessions, id)
	return s, nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
