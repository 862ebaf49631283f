package core

import "time"

// Handoff records one delegation inside a turn.
type Handoff struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Turn is one input/response exchange of a session.
//
// Responder is the agent whose text was surfaced to the user. When a handoff
// happened it is always the last agent in Handoffs, never the triage agent.
type Turn struct {
	ID            string    `json:"id"`
	Input         string    `json:"input"`
	FromVoice     bool      `json:"from_voice,omitempty"`
	Responder     string    `json:"responder"`
	Response      string    `json:"response"`
	Handoffs      []Handoff `json:"handoffs,omitempty"`
	AudioArtifact string    `json:"audio_artifact,omitempty"`
	AudioSkipped  bool      `json:"audio_skipped,omitempty"`
	Started       time.Time `json:"started"`
	Completed     time.Time `json:"completed"`
}

// HandedOff reports whether any delegation happened during the turn.
func (t Turn) HandedOff() bool { return len(t.Handoffs) > 0 }

// Duration returns how long the turn took.
func (t Turn) Duration() time.Duration { return t.Completed.Sub(t.Started) }
