package flow

import "github.com/hupe1980/readaloud/core"

// SingleAgentFlow runs an agent that answers on its own: instructions and
// conversation history only, no handoff tool.
type SingleAgentFlow struct{ *BaseFlow }

// NewSingleAgentFlow creates a new basic single-agent flow.
func NewSingleAgentFlow(agent FlowAgent) *SingleAgentFlow {
	baseFlow := NewBaseFlow(agent)

	baseFlow.AddRequestProcessor(NewInstructionsProcessor())
	baseFlow.AddRequestProcessor(NewContentsProcessor())
	baseFlow.AddResponseProcessor(NewOutputKeyProcessor())

	return &SingleAgentFlow{BaseFlow: baseFlow}
}

// HandoffFlow runs an agent that may delegate the turn. The transfer tool is
// injected with the run's current handoff targets.
type HandoffFlow struct{ *BaseFlow }

// NewHandoffFlow creates a flow exposing transfer_to_agent.
func NewHandoffFlow(agent FlowAgent) *HandoffFlow {
	baseFlow := NewBaseFlow(agent)

	baseFlow.AddRequestProcessor(NewInstructionsProcessor())
	baseFlow.AddRequestProcessor(NewContentsProcessor())
	baseFlow.AddRequestProcessor(NewTransferToolInjector())
	baseFlow.AddResponseProcessor(NewOutputKeyProcessor())

	return &HandoffFlow{BaseFlow: baseFlow}
}

// SelectFlow picks the handoff flow when the run grants handoff targets and
// the single-agent flow otherwise.
func SelectFlow(agent FlowAgent, runCtx *core.RunContext) Flow {
	if len(runCtx.HandoffTargets) == 0 {
		return NewSingleAgentFlow(agent)
	}

	return NewHandoffFlow(agent)
}
