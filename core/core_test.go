package core

import (
	"context"
	"sync"

	"github.com/hupe1980/readaloud/logging"
)

type stubSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	applied  map[string]map[string]any
}

func (s *stubSessionStore) Create(id string) (*Session, error) { return s.Get(id) }

func (s *stubSessionStore) Get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sessions == nil {
		s.sessions = map[string]*Session{}
	}

	if sess, ok := s.sessions[id]; ok {
		return sess, nil
	}

	sess := NewSession(id)
	s.sessions[id] = sess

	return sess, nil
}

func (s *stubSessionStore) AppendEvent(id string, ev Event) error {
	sess, _ := s.Get(id)
	sess.AddEvent(ev)

	return nil
}

func (s *stubSessionStore) AppendTurn(id string, t Turn) error {
	sess, _ := s.Get(id)
	sess.AddTurn(t)

	return nil
}

func (s *stubSessionStore) ApplyDelta(id string, delta map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.applied == nil {
		s.applied = map[string]map[string]any{}
	}

	s.applied[id] = delta

	return nil
}

type stubArtifactStore struct{ saved map[string][]byte }

func (a *stubArtifactStore) Save(_, aid string, data []byte) error {
	if a.saved == nil {
		a.saved = map[string][]byte{}
	}

	a.saved[aid] = append([]byte{}, data...)

	return nil
}

func (a *stubArtifactStore) Get(_, aid string) ([]byte, error) { return a.saved[aid], nil }

func (a *stubArtifactStore) List(string) ([]string, error) {
	ids := make([]string, 0, len(a.saved))
	for k := range a.saved {
		ids = append(ids, k)
	}

	return ids, nil
}

func (a *stubArtifactStore) Delete(_, aid string) error {
	delete(a.saved, aid)
	return nil
}

func newRunContextForTest() (*RunContext, chan Event, chan struct{}) {
	emit := make(chan Event, 5)
	resume := make(chan struct{}, 1)
	store := &stubSessionStore{}
	sess, _ := store.Create("sess-x")

	rc := NewRunContext(
		context.Background(), "sess-x", "turn-x",
		NewTextContent("user", "hello"), 3,
		emit, resume, sess, store, &stubArtifactStore{}, logging.NoOpLogger{},
	)
	rc.SwitchAgent(AgentInfo{Name: "Triage", Type: "triage"}, []HandoffTarget{{Name: "PhonicsTeacher"}})

	return rc, emit, resume
}
