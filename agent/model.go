package agent

import (
	"errors"
	"fmt"
	"slices"

	"github.com/hupe1980/readaloud/core"
	"github.com/hupe1980/readaloud/flow"
	"github.com/hupe1980/readaloud/model"
	"github.com/hupe1980/readaloud/tool"
)

// ModelAgentOptions configures a ModelAgent instance.
//
// Use functional options with NewModelAgent to override defaults.
type ModelAgentOptions struct {
	Description        string
	Keywords           []string
	Instruction        Instruction
	EnableStreaming    bool
	OutputKey          string
	MaxHistoryMessages int
	Tools              []tool.Tool
}

// ModelAgent answers a turn with a language model and the tools it owns.
//
// ModelAgent is how every specialist is built:
//   - Persona and role instructions rendered against session state
//   - Function calling with an ordered set of tools
//   - Optional streaming of partial text
//   - An optional output key storing the final answer in session state
//
// Whether it may hand off is decided per run by the registry; the flow
// exposes transfer_to_agent only when the run grants targets.
type ModelAgent struct {
	BaseAgent
	llm                model.Model
	instruction        Instruction
	tools              []tool.Tool
	enableStreaming    bool
	outputKey          string
	maxHistoryMessages int
}

// NewModelAgent creates a new model-based agent with defaults: persona and
// handoff instructions, no streaming and a 20-message history window.
func NewModelAgent(name string, llm model.Model, optFns ...func(o *ModelAgentOptions)) *ModelAgent {
	opts := ModelAgentOptions{
		Instruction:        Compose(PersonaInstruction(DefaultMaxResponseChars), HandoffInstruction()),
		MaxHistoryMessages: 20,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	base := NewBaseAgent(name)
	if opts.Description != "" {
		base.SetDescription(opts.Description)
	}

	base.SetKeywords(opts.Keywords...)

	return &ModelAgent{
		BaseAgent:          base,
		llm:                llm,
		instruction:        opts.Instruction,
		tools:              slices.Clone(opts.Tools),
		enableStreaming:    opts.EnableStreaming,
		outputKey:          opts.OutputKey,
		maxHistoryMessages: opts.MaxHistoryMessages,
	}
}

// RegisterTool appends a tool; a tool with the same name is replaced in place.
func (a *ModelAgent) RegisterTool(t tool.Tool) {
	for i, existing := range a.tools {
		if existing.Name() == t.Name() {
			a.tools[i] = t
			return
		}
	}

	a.tools = append(a.tools, t)
}

// ListTools returns the tool names in registration order.
func (a *ModelAgent) ListTools() []string {
	names := make([]string, 0, len(a.tools))
	for _, t := range a.tools {
		names = append(names, t.Name())
	}

	return names
}

// GetName returns the agent's display name.
func (a *ModelAgent) GetName() string { return a.Name() }

// GetLLM returns the language model instance.
func (a *ModelAgent) GetLLM() model.Model { return a.llm }

// GetTools returns the registered tools keyed by name.
func (a *ModelAgent) GetTools() map[string]tool.Tool {
	out := make(map[string]tool.Tool, len(a.tools))
	for _, t := range a.tools {
		out[t.Name()] = t
	}

	return out
}

// IsStreamingEnabled returns whether streaming responses are enabled.
func (a *ModelAgent) IsStreamingEnabled() bool { return a.enableStreaming }

// GetOutputKey returns the session state key for saving responses.
func (a *ModelAgent) GetOutputKey() string { return a.outputKey }

// MaxHistoryMessages returns the maximum number of conversation history messages to keep.
func (a *ModelAgent) MaxHistoryMessages() int { return a.maxHistoryMessages }

// ResolveInstructions produces the instruction template for the run.
func (a *ModelAgent) ResolveInstructions(runCtx *core.RunContext) (string, error) {
	return a.instruction.Resolve(runCtx)
}

// Run implements core.Agent. The flow emits and persists every event itself;
// Run drains the mirrored events and turns a flow error event into a
// ServiceError.
func (a *ModelAgent) Run(runCtx *core.RunContext) error {
	runCtx.LogDebug("agent.run.start", "agent", a.Name(), "run", runCtx.RunID)

	if a.llm == nil {
		return core.NewServiceError(a.Name(), "respond", errors.New("no language model configured"))
	}

	return runFlow(runCtx, a.Name(), flow.SelectFlow(a, runCtx))
}

// runFlow executes fl and drains its mirrored events. The first error event
// becomes a ServiceError; cancellation is returned as is.
func runFlow(runCtx *core.RunContext, name string, fl flow.Flow) error {
	runCtx.LogDebug("agent.flow.selected", "agent", name, "flow", fmt.Sprintf("%T", fl))

	events, err := fl.Execute(runCtx)
	if err != nil {
		return core.NewServiceError(name, "respond", err)
	}

	var failure error

	for ev := range events {
		if ev.IsError() && failure == nil {
			code := ""
			if ev.ErrorCode != nil {
				code = *ev.ErrorCode
			}

			failure = core.NewServiceError(name, "respond", fmt.Errorf("%s: %s", code, *ev.ErrorMessage))
		}
	}

	if err := runCtx.Err(); err != nil {
		runCtx.LogWarn("agent.run.context_done", "agent", name, "error", err)
		return err
	}

	runCtx.LogDebug("agent.run.complete", "agent", name, "failed", failure != nil)

	return failure
}

var (
	_ core.Agent           = (*ModelAgent)(nil)
	_ flow.FlowAgent       = (*ModelAgent)(nil)
	_ core.KeywordProvider = (*ModelAgent)(nil)
)
