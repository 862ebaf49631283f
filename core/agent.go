package core

// Agent defines the interface every responder in a classroom implements.
//
// Agents receive the turn through a RunContext, emit events describing their
// output and signal a handoff by emitting an event whose
// Actions.TransferToAgent names the next agent. Which agents may be handed to
// is decided by the registry, not by the agent itself.
//
// Implementations must:
//   - Respect context cancellation
//   - Emit events through the provided RunContext
//   - Wait for resume after each non-partial event
type Agent interface {
	Name() string
	Description() string
	Run(runCtx *RunContext) error
}

// AgentInfo carries identifying details about an agent used in contexts & events.
// Name is the external identifier; Type categorizes implementation (e.g. "triage", "specialist").
type AgentInfo struct{ Name, Type string }

// HandoffTarget describes an agent the current agent may delegate to.
// Keywords are optional routing hints for rule-based classifiers.
type HandoffTarget struct {
	Name        string
	Description string
	Keywords    []string
}

// KeywordProvider is implemented by agents that expose routing hints.
type KeywordProvider interface {
	Keywords() []string
}
