package core

import (
	"context"
	"fmt"
	"maps"

	"github.com/hupe1980/readaloud/logging"
)

// RunContext carries the per-turn execution scope passed to an Agent's Run
// method. It aggregates:
//   - The ambient cancellation Context
//   - Identifiers (SessionID, RunID, current Agent info)
//   - The user input of the turn
//   - Emission / resumption coordination channels
//   - Backing stores (session, artifact)
//   - The handoff targets the current agent may delegate to
//
// A single RunContext is reused for every agent of a turn; the runner calls
// SwitchAgent between hops. State mutations performed via SetState accumulate
// in StateDelta until EmitEvent attaches them to the next event.
type RunContext struct {
	Context          context.Context
	SessionID, RunID string
	Agent            AgentInfo
	UserContent      Content
	Emit             chan<- Event
	Resume           <-chan struct{}
	SessionStore     SessionStore
	ArtifactStore    ArtifactStore
	Limiter          *ModelLimiter
	Session          *Session
	StateDelta       map[string]any
	HandoffTargets   []HandoffTarget

	transfer string

	*scope
}

// NewRunContext constructs a RunContext with an empty state delta.
func NewRunContext(
	ctx context.Context,
	sessionID, runID string,
	userContent Content,
	maxModelCalls int,
	emit chan<- Event,
	resume <-chan struct{},
	sess *Session,
	sessionStore SessionStore,
	artifactStore ArtifactStore,
	logger logging.Logger,
) *RunContext {
	return &RunContext{
		Context:       ctx,
		SessionID:     sessionID,
		RunID:         runID,
		UserContent:   userContent,
		Emit:          emit,
		Resume:        resume,
		Session:       sess,
		SessionStore:  sessionStore,
		ArtifactStore: artifactStore,
		Limiter:       NewModelLimiter(maxModelCalls),
		StateDelta:    map[string]any{},
		scope:         newScope(logger, "session", sessionID, "turn", runID),
	}
}

// Done returns a channel closed when the underlying context is cancelled.
func (rc *RunContext) Done() <-chan struct{} { return rc.Context.Done() }

// Err returns the cancellation error (if any) from the underlying context.
func (rc *RunContext) Err() error { return rc.Context.Err() }

// SwitchAgent points the context at the next agent of the turn and clears any
// pending transfer.
func (rc *RunContext) SwitchAgent(info AgentInfo, targets []HandoffTarget) {
	rc.Agent = info
	rc.HandoffTargets = targets
	rc.transfer = ""
}

// CanHandoffTo reports whether name is one of the current handoff targets.
func (rc *RunContext) CanHandoffTo(name string) bool {
	for _, t := range rc.HandoffTargets {
		if t.Name == name {
			return true
		}
	}

	return false
}

// PendingTransfer returns the agent named by the last emitted handoff event.
func (rc *RunContext) PendingTransfer() (string, bool) {
	return rc.transfer, rc.transfer != ""
}

// GetState returns a staged (delta) value if present, else the persisted session value.
func (rc *RunContext) GetState(k string) (any, bool) {
	if v, ok := rc.StateDelta[k]; ok {
		return v, true
	}

	if rc.Session != nil {
		return rc.Session.GetState(k)
	}

	return nil, false
}

// SetState stages a state mutation in the in-memory delta buffer.
func (rc *RunContext) SetState(k string, v any) { rc.StateDelta[k] = v }

// SaveArtifact stores bytes in the ArtifactStore.
func (rc *RunContext) SaveArtifact(id string, data []byte) error {
	if rc.ArtifactStore == nil {
		return fmt.Errorf("artifact store not configured")
	}

	return rc.ArtifactStore.Save(rc.SessionID, id, data)
}

// RefreshSession reloads the session snapshot from the SessionStore.
func (rc *RunContext) RefreshSession() error {
	if rc.SessionStore == nil {
		return fmt.Errorf("session store not configured")
	}

	s, err := rc.SessionStore.Get(rc.SessionID)
	if err != nil {
		return err
	}

	rc.Session = s

	return nil
}

// GetConversationHistory returns the filtered conversation of the session snapshot.
func (rc *RunContext) GetConversationHistory() []Event {
	if rc.Session == nil {
		return []Event{}
	}

	return rc.Session.GetConversationHistory()
}

// GetAgentName returns the name of the agent currently running.
func (rc *RunContext) GetAgentName() string { return rc.Agent.Name }

// EmitEvent merges pending StateDelta into the event, remembers a handoff
// request and sends the event to the runner.
func (rc *RunContext) EmitEvent(ev Event) error {
	if ev.InvocationID == "" {
		ev.InvocationID = rc.RunID
	}

	if len(rc.StateDelta) > 0 {
		if ev.Actions.StateDelta == nil {
			ev.Actions.StateDelta = make(map[string]any, len(rc.StateDelta))
		}

		maps.Copy(ev.Actions.StateDelta, rc.StateDelta)
	}

	select {
	case <-rc.Context.Done():
		return rc.Context.Err()
	case rc.Emit <- ev:
	}

	if ev.IsHandoff() {
		rc.transfer = *ev.Actions.TransferToAgent
	}

	rc.StateDelta = map[string]any{}

	return nil
}

// WaitForResume blocks until the runner has persisted the last event or the
// context is cancelled.
func (rc *RunContext) WaitForResume() error {
	if rc.Resume == nil {
		return nil
	}

	select {
	case <-rc.Resume:
		return nil
	case <-rc.Context.Done():
		return rc.Context.Err()
	}
}
