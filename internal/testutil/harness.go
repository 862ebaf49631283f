package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/readaloud/core"
	"github.com/hupe1980/readaloud/logging"
	"github.com/hupe1980/readaloud/session"
)

// Harness plays the runner's part for a single agent run: the user input is
// stored, every non-partial event is persisted (with its state delta) and
// the agent is resumed.
type Harness struct {
	RunCtx    *core.RunContext
	Store     *session.InMemoryStore
	SessionID string

	mu     sync.Mutex
	events []core.Event
	emit   chan core.Event
	done   chan struct{}
}

// HarnessOptions configures NewHarness.
type HarnessOptions struct {
	SessionID     string
	RunID         string
	Agent         core.AgentInfo
	Targets       []core.HandoffTarget
	MaxModelCalls int
	Store         *session.InMemoryStore
	Context       context.Context
}

// NewHarness starts a harness for input.
func NewHarness(t *testing.T, input string, optFns ...func(o *HarnessOptions)) *Harness {
	t.Helper()

	opts := HarnessOptions{
		SessionID:     "s1",
		RunID:         "turn-1",
		Agent:         core.AgentInfo{Name: "MainTeacher", Type: "triage"},
		MaxModelCalls: 5,
		Context:       context.Background(),
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	store := opts.Store
	if store == nil {
		store = session.NewInMemoryStore()
	}

	_, err := store.Create(opts.SessionID)
	require.NoError(t, err)

	user := core.NewUserMessageEvent(opts.RunID, input)
	require.NoError(t, store.AppendEvent(opts.SessionID, user))

	sess, err := store.Get(opts.SessionID)
	require.NoError(t, err)

	emit := make(chan core.Event, 16)
	resume := make(chan struct{}, 1)

	rc := core.NewRunContext(opts.Context, opts.SessionID, opts.RunID, *user.Content, opts.MaxModelCalls,
		emit, resume, sess, store, nil, logging.NoOpLogger{})
	rc.SwitchAgent(opts.Agent, opts.Targets)

	h := &Harness{RunCtx: rc, Store: store, SessionID: opts.SessionID, emit: emit, done: make(chan struct{})}

	go func() {
		defer close(h.done)

		for ev := range emit {
			h.mu.Lock()
			h.events = append(h.events, ev)
			h.mu.Unlock()

			if ev.IsPartial() {
				continue
			}

			_ = store.AppendEvent(opts.SessionID, ev)

			if len(ev.Actions.StateDelta) > 0 {
				_ = store.ApplyDelta(opts.SessionID, ev.Actions.StateDelta)
			}

			resume <- struct{}{}
		}
	}()

	t.Cleanup(h.Close)

	return h
}

// Events returns the events emitted so far.
func (h *Harness) Events() []core.Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]core.Event, len(h.events))
	copy(out, h.events)

	return out
}

// Close stops the persistence goroutine. It is safe to call more than once.
func (h *Harness) Close() {
	h.mu.Lock()
	select {
	case <-h.done:
	default:
		if h.emit != nil {
			close(h.emit)
			h.emit = nil
		}
	}
	h.mu.Unlock()

	<-h.done
}

// Session returns the persisted session.
func (h *Harness) Session(t *testing.T) *core.Session {
	t.Helper()

	sess, err := h.Store.Get(h.SessionID)
	require.NoError(t, err)

	return sess
}
