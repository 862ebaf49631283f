package core

import (
	"sync"
	"time"
)

// Session is the conversation container for one user interaction. It tracks
// the raw event history fed back to models as context, the append-only list
// of completed Turns and a small key/value state. It is safe for concurrent
// access.
//
// Contract:
//   - GetEvents and GetTurns return defensive copies
//   - GetConversationHistory filters events to user/assistant/tool roles and
//     excludes partial streaming fragments
//   - Turns are only ever appended
type Session struct {
	ID       string            `json:"id"`
	State    map[string]any    `json:"state"`
	Events   []Event           `json:"events"`
	Turns    []Turn            `json:"turns"`
	Created  time.Time         `json:"created"`
	Updated  time.Time         `json:"updated"`
	Metadata map[string]string `json:"metadata"`
	mu       sync.RWMutex
}

// NewSession creates a new session with the given ID.
func NewSession(id string) *Session {
	now := time.Now()

	return &Session{
		ID:       id,
		State:    map[string]any{},
		Events:   []Event{},
		Turns:    []Turn{},
		Created:  now,
		Updated:  now,
		Metadata: map[string]string{},
	}
}

// GetState returns the value and existence flag for a state key.
func (s *Session) GetState(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.State[key]

	return v, ok
}

// SetState sets a key/value pair in session state.
func (s *Session) SetState(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.State[key] = value
	s.Updated = time.Now()
}

// ApplyStateDelta merges the provided key/value pairs into State.
func (s *Session) ApplyStateDelta(delta map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, v := range delta {
		s.State[k] = v
	}

	s.Updated = time.Now()
}

// AddEvent appends an event to the history.
func (s *Session) AddEvent(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Events = append(s.Events, ev)
	s.Updated = time.Now()
}

// AddTurn appends a completed turn.
func (s *Session) AddTurn(t Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Turns = append(s.Turns, t)
	s.Updated = time.Now()
}

// GetEvents returns a defensive copy of the full event slice.
func (s *Session) GetEvents() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]Event, len(s.Events))
	copy(events, s.Events)

	return events
}

// GetTurns returns a defensive copy of the completed turns in order.
func (s *Session) GetTurns() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := make([]Turn, len(s.Turns))
	copy(turns, s.Turns)

	return turns
}

// GetConversationHistory returns the events suitable for providing
// conversational context to models.
func (s *Session) GetConversationHistory() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make([]Event, 0, len(s.Events))

	for _, ev := range s.Events {
		if ev.Content == nil || ev.IsPartial() {
			continue
		}

		switch ev.Content.Role {
		case "user", "assistant", "tool":
			res = append(res, ev)
		}
	}

	return res
}

// Clone returns a deep copy of the session safe for independent mutation.
func (s *Session) Clone() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clone := &Session{
		ID:       s.ID,
		State:    make(map[string]any, len(s.State)),
		Events:   make([]Event, len(s.Events)),
		Turns:    make([]Turn, len(s.Turns)),
		Created:  s.Created,
		Updated:  s.Updated,
		Metadata: make(map[string]string, len(s.Metadata)),
	}

	for k, v := range s.State {
		clone.State[k] = v
	}

	copy(clone.Events, s.Events)
	copy(clone.Turns, s.Turns)

	for k, v := range s.Metadata {
		clone.Metadata[k] = v
	}

	return clone
}

// SessionStore keeps sessions and their evolving state, events and turns.
type SessionStore interface {
	Create(id string) (*Session, error)
	Get(id string) (*Session, error)
	AppendEvent(sessionID string, event Event) error
	AppendTurn(sessionID string, turn Turn) error
	ApplyDelta(sessionID string, delta map[string]any) error
}
