package flow

import (
	"fmt"

	"github.com/hupe1980/readaloud/core"
	internalutil "github.com/hupe1980/readaloud/internal/util"
	"github.com/hupe1980/readaloud/model"
	"github.com/hupe1980/readaloud/tool"
)

// InstructionsProcessor handles system prompt and instruction processing.
type InstructionsProcessor struct{}

// NewInstructionsProcessor creates a new instructions processor.
func NewInstructionsProcessor() *InstructionsProcessor { return &InstructionsProcessor{} }

// Name returns the processor's identifier.
func (p *InstructionsProcessor) Name() string { return "instructions" }

// ProcessRequest resolves the agent instructions and renders them against
// the session state (e.g. {{.learner}}).
func (p *InstructionsProcessor) ProcessRequest(runCtx *core.RunContext, req *model.Request, agent FlowAgent) error {
	instructions, err := agent.ResolveInstructions(runCtx)
	if err != nil {
		return fmt.Errorf("failed to resolve instruction: %w", err)
	}

	runCtx.LogDebug("agent.instruction.resolved", "agent", agent.GetName(), "length", len(instructions))

	state := map[string]any{}
	if runCtx.Session != nil {
		state = runCtx.Session.Clone().State
	}

	for k, v := range runCtx.StateDelta {
		state[k] = v
	}

	req.Instructions, err = internalutil.RenderTemplate(instructions, state)
	if err != nil {
		return fmt.Errorf("failed to render template: %w", err)
	}

	return nil
}

// ContentsProcessor fills the request with the recent conversation.
type ContentsProcessor struct{}

// NewContentsProcessor creates a new contents processor.
func NewContentsProcessor() *ContentsProcessor { return &ContentsProcessor{} }

// Name returns the processor's identifier.
func (p *ContentsProcessor) Name() string { return "contents" }

// ProcessRequest appends at most MaxHistoryMessages conversation events. The
// turn's user input is added when the session does not hold it yet.
func (p *ContentsProcessor) ProcessRequest(runCtx *core.RunContext, req *model.Request, agent FlowAgent) error {
	events := runCtx.GetConversationHistory()

	if limit := agent.MaxHistoryMessages(); limit > 0 && len(events) > limit {
		events = events[len(events)-limit:]
	}

	contents := make([]core.Content, 0, len(events)+1)
	for _, ev := range events {
		if ev.Content != nil && len(ev.Content.Parts) > 0 {
			contents = append(contents, *ev.Content)
		}
	}

	if !hasTurnInput(runCtx, events) && len(runCtx.UserContent.Parts) > 0 {
		contents = append(contents, runCtx.UserContent)
	}

	// Tool results must follow their call; drop a leading orphan left by truncation.
	for len(contents) > 0 && contents[0].Role == "tool" {
		contents = contents[1:]
	}

	req.Contents = append(req.Contents, contents...)

	return nil
}

func hasTurnInput(runCtx *core.RunContext, events []core.Event) bool {
	for _, ev := range events {
		if ev.InvocationID == runCtx.RunID && ev.Author == "user" {
			return true
		}
	}

	return false
}

// TransferToolInjector exposes the transfer_to_agent tool when the running
// agent has handoff targets.
type TransferToolInjector struct{}

// NewTransferToolInjector creates a new injector.
func NewTransferToolInjector() *TransferToolInjector { return &TransferToolInjector{} }

// Name returns the processor's identifier.
func (p *TransferToolInjector) Name() string { return "transfer_tool_injector" }

// ProcessRequest appends the transfer tool definition unless already present.
func (p *TransferToolInjector) ProcessRequest(runCtx *core.RunContext, req *model.Request, _ FlowAgent) error {
	if len(runCtx.HandoffTargets) == 0 {
		return nil
	}

	for _, def := range req.Tools {
		if def.Function.Name == tool.TransferToAgentName {
			return nil
		}
	}

	req.Tools = append(req.Tools, definitionOf(tool.NewTransferToAgentTool(runCtx.HandoffTargets)))

	return nil
}

// OutputKeyProcessor stores the agent's final answer in session state under
// the agent's output key.
type OutputKeyProcessor struct{}

// NewOutputKeyProcessor creates a new output key processor.
func NewOutputKeyProcessor() *OutputKeyProcessor { return &OutputKeyProcessor{} }

// Name returns the processor's identifier.
func (p *OutputKeyProcessor) Name() string { return "output_key" }

// ProcessResponse stages the text of a final answer; the state delta travels
// with the emitted event.
func (p *OutputKeyProcessor) ProcessResponse(runCtx *core.RunContext, resp *model.Response, agent FlowAgent) error {
	key := agent.GetOutputKey()
	if key == "" || resp.Partial {
		return nil
	}

	var text string

	for _, part := range resp.Content.Parts {
		switch p := part.(type) {
		case core.FunctionCallPart:
			return nil
		case core.TextPart:
			text += p.Text
		}
	}

	if text != "" {
		runCtx.SetState(key, text)
	}

	return nil
}

func definitionOf(t tool.Tool) model.ToolDefinition {
	return model.ToolDefinition{
		Type: "function",
		Function: model.FunctionDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		},
	}
}

// tools returns the agent's tool registry plus the transfer tool when the
// running agent may hand off.
func tools(runCtx *core.RunContext, agent FlowAgent) map[string]tool.Tool {
	registry := agent.GetTools()
	if len(runCtx.HandoffTargets) == 0 {
		return registry
	}

	out := make(map[string]tool.Tool, len(registry)+1)
	for name, t := range registry {
		out[name] = t
	}

	if _, ok := out[tool.TransferToAgentName]; !ok {
		out[tool.TransferToAgentName] = tool.NewTransferToAgentTool(runCtx.HandoffTargets)
	}

	return out
}
