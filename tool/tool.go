// Package tool implements the function calling subsystem that lets agents
// invoke structured capabilities with schema validated arguments and
// consistent error handling.
package tool

import (
	"errors"
	"fmt"

	"github.com/hupe1980/readaloud/core"
	"github.com/hupe1980/readaloud/internal/util"
)

// Tool defines a capability an agent can call.
//
// Tool implementations should:
//   - Provide clear, descriptive names and descriptions (snake_case names)
//   - Define a JSON schema for parameters
//   - Return *ToolError for malformed input
//   - Be safe for concurrent use
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description is shown to the model to decide when to call the tool.
	Description() string

	// Parameters returns a JSON schema describing the expected input.
	Parameters() map[string]any

	// Call executes the tool with arguments decoded from the model's JSON.
	Call(toolCtx *core.ToolContext, args map[string]any) (any, error)
}

// ValidationError represents parameter validation errors with detailed information.
type ValidationError = util.ValidationError

// Error codes carried by ToolError.
const (
	CodeValidation      = "VALIDATION_ERROR"
	CodeExecution       = "EXECUTION_ERROR"
	CodeInvalidArgument = "INVALID_ARGUMENT"
	CodeUnknownTool     = "UNKNOWN_TOOL"
)

// UnableToComplete is the text a failed tool call is reported to the model
// with, so the agent tells the learner instead of crashing the session.
const UnableToComplete = "unable to complete this request"

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}

	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}

// InlineMessage renders err for a function response. Tool errors become
// "unable to complete this request: <reason>".
func InlineMessage(err error) string {
	var te *ToolError
	if errors.As(err, &te) {
		return fmt.Sprintf("%s: %s", UnableToComplete, te.Message)
	}

	return fmt.Sprintf("%s: %v", UnableToComplete, err)
}
