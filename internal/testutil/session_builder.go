package testutil

import (
	"github.com/hupe1980/readaloud/core"
	"github.com/hupe1980/readaloud/session"
)

// SessionBuilder helps construct sessions with fluent chaining for tests.
// Example:
//
//	store := NewSessionBuilder("s1").State("learner", "Emma").Events(ev1, ev2).Store()
type SessionBuilder struct {
	id     string
	state  map[string]any
	events []core.Event
	turns  []core.Turn
}

// NewSessionBuilder creates a new builder for a session with the given id.
func NewSessionBuilder(id string) *SessionBuilder {
	return &SessionBuilder{id: id, state: map[string]any{}}
}

// State sets or overwrites a state key/value pair (chainable).
func (b *SessionBuilder) State(key string, val any) *SessionBuilder {
	b.state[key] = val
	return b
}

// Events appends events to the session history (chainable).
func (b *SessionBuilder) Events(evs ...core.Event) *SessionBuilder {
	b.events = append(b.events, evs...)
	return b
}

// Turns appends completed turns (chainable).
func (b *SessionBuilder) Turns(turns ...core.Turn) *SessionBuilder {
	b.turns = append(b.turns, turns...)
	return b
}

// Build returns a *core.Session with pre-populated state, events and turns.
func (b *SessionBuilder) Build() *core.Session {
	s := core.NewSession(b.id)
	s.ApplyStateDelta(b.state)

	for _, ev := range b.events {
		s.AddEvent(ev)
	}

	for _, t := range b.turns {
		s.AddTurn(t)
	}

	return s
}

// Store returns an in-memory store holding the built session.
func (b *SessionBuilder) Store() *session.InMemoryStore {
	store := session.NewInMemoryStore()

	_, _ = store.Create(b.id)
	_ = store.ApplyDelta(b.id, b.state)

	for _, ev := range b.events {
		_ = store.AppendEvent(b.id, ev)
	}

	for _, t := range b.turns {
		_ = store.AppendTurn(b.id, t)
	}

	return store
}
