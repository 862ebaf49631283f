// Package flow provides the model execution loop behind classroom agents.
//
// A flow turns one agent turn into a request -> model -> (optional tool loop)
// cycle. Request processors assemble instructions, conversation history and
// the handoff tool; the function executor runs the tools the model asks for
// and feeds the results back until the model produces a final answer.
package flow

import (
	"github.com/hupe1980/readaloud/core"
	"github.com/hupe1980/readaloud/model"
	"github.com/hupe1980/readaloud/tool"
)

// Error codes carried by flow error events.
const (
	ErrorCodeService   = "SERVICE_ERROR"
	ErrorCodeCallLimit = "MODEL_CALL_LIMIT"
	ErrorCodeProcessor = "PROCESSOR_ERROR"
)

// Flow defines the interface for agent execution flows.
//
// Execute emits every event through runCtx.EmitEvent (waiting for the runner
// to persist non-partial ones) and mirrors it on the returned channel. The
// channel is closed when the flow ends.
type Flow interface {
	Execute(runCtx *core.RunContext) (<-chan core.Event, error)
}

// FlowAgent is the view of an agent a flow needs.
type FlowAgent interface {
	// GetName returns the agent's display name.
	GetName() string

	// GetLLM returns the language model instance.
	GetLLM() model.Model

	// ResolveInstructions returns the raw instruction template for the turn.
	ResolveInstructions(runCtx *core.RunContext) (string, error)

	// GetTools returns the registered tools for function calling.
	GetTools() map[string]tool.Tool

	// IsStreamingEnabled returns whether streaming responses are enabled.
	IsStreamingEnabled() bool

	// MaxHistoryMessages returns the maximum number of conversation history messages to keep.
	MaxHistoryMessages() int

	// GetOutputKey returns the session state key for saving responses.
	GetOutputKey() string
}

// RequestProcessor processes the request before sending it to the LLM.
type RequestProcessor interface {
	// Name returns the processor's identifier.
	Name() string
	// ProcessRequest modifies the chat request before LLM execution.
	ProcessRequest(runCtx *core.RunContext, req *model.Request, agent FlowAgent) error
}

// ResponseProcessor processes the response after receiving it from the LLM.
type ResponseProcessor interface {
	// Name returns the processor's identifier.
	Name() string
	// ProcessResponse inspects or rewrites a model chunk before it is emitted.
	ProcessResponse(runCtx *core.RunContext, resp *model.Response, agent FlowAgent) error
}
