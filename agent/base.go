package agent

import (
	"fmt"
	"slices"
)

// BaseAgent bundles the identity every agent shares: a name, the summary
// classifiers route on and optional routing keywords. Embed it in concrete
// agent implementations and supply a Run method to satisfy core.Agent.
type BaseAgent struct {
	name        string
	description string
	keywords    []string
}

// NewBaseAgent constructs a BaseAgent with generated description (customizable via SetDescription).
func NewBaseAgent(name string) BaseAgent {
	return BaseAgent{
		name:        name,
		description: fmt.Sprintf("Agent %s", name),
	}
}

// Name returns the human-readable name for this agent.
func (b *BaseAgent) Name() string { return b.name }

// Description returns the summary used for routing decisions.
func (b *BaseAgent) Description() string { return b.description }

// SetDescription updates the agent's description.
func (b *BaseAgent) SetDescription(desc string) { b.description = desc }

// Keywords returns the routing hints of this agent.
func (b *BaseAgent) Keywords() []string { return slices.Clone(b.keywords) }

// SetKeywords replaces the routing hints of this agent.
func (b *BaseAgent) SetKeywords(keywords ...string) { b.keywords = slices.Clone(keywords) }
