package conversation

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/konnectpackaging/konnect-bot/backend/internal/model/persona"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrPersonaNotFound = errors.New("persona not found")
)

// Service owns the live sessions. Nothing is persisted; ending a session drops it.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]*State
	personas persona.Store
	defaults []Option
}

// NewService creates an in-memory session registry. defaults apply to every new session.
func NewService(personas persona.Store, defaults ...Option) *Service {
	return &Service{
		sessions: make(map[string]*State),
		personas: personas,
		defaults: defaults,
	}
}

// CreateSession starts a session bound to a persona. An empty personaID selects the default persona.
func (s *Service) CreateSession(_ context.Context, personaID string, opts ...Option) (*State, error) {
	if personaID == "" {
		personaID = persona.DefaultID
	}

	p, ok := s.personas.FindByID(personaID)
	if !ok {
		return nil, ErrPersonaNotFound
	}

	all := make([]Option, 0, len(s.defaults)+len(opts))
	all = append(all, s.defaults...)
	all = append(all, opts...)
	state := NewState(uuid.NewString(), p, all...)

	s.mu.Lock()
	s.sessions[state.ID()] = state
	s.mu.Unlock()

	return state, nil
}

// GetSession retrieves a live session.
func (s *Service) GetSession(_ context.Context, sessionID string) (*State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return state, nil
}

// EndSession discards a session and its history.
func (s *Service) EndSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	return nil
}

// Len returns the number of live sessions.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
