package tool

import (
	"github.com/hupe1980/readaloud/core"
)

// TransferToAgentName is the function name models call to hand a turn off.
const TransferToAgentName = "transfer_to_agent"

// transferToAgentTool requests a handoff to one of the calling agent's targets.
type transferToAgentTool struct {
	targets []core.HandoffTarget
}

// NewTransferToAgentTool constructs the transfer tool. The parameter schema
// restricts the agent argument to the given targets.
func NewTransferToAgentTool(targets []core.HandoffTarget) Tool {
	return &transferToAgentTool{targets: targets}
}

func (t *transferToAgentTool) Name() string { return TransferToAgentName }

func (t *transferToAgentTool) Description() string {
	return "Hand the conversation to the specialist best suited to answer. Only call this when one specialist clearly matches the request."
}

func (t *transferToAgentTool) Parameters() map[string]any {
	agent := map[string]any{"type": "string", "description": "Name of the specialist to hand off to"}

	if len(t.targets) > 0 {
		names := make([]any, len(t.targets))
		for i, target := range t.targets {
			names[i] = target.Name
		}

		agent["enum"] = names
	}

	return map[string]any{
		"type":       "object",
		"properties": map[string]any{"agent": agent},
		"required":   []any{"agent"},
	}
}

func (t *transferToAgentTool) Call(tc *core.ToolContext, args map[string]any) (any, error) {
	agentName, ok := args["agent"].(string)
	if !ok || agentName == "" {
		return nil, NewToolError(TransferToAgentName, "field 'agent' must be a non-empty string", CodeInvalidArgument)
	}

	if err := tc.TransferToAgent(agentName); err != nil {
		return nil, NewToolError(TransferToAgentName, err.Error(), CodeInvalidArgument)
	}

	return map[string]any{"transferred": true, "agent": agentName}, nil
}
