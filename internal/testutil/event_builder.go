package testutil

import (
	"github.com/hupe1980/readaloud/core"
)

// EventBuilder provides a fluent helper for constructing events in tests.
// Example:
//
//	ev := NewEventBuilder().Author("PhonicsTeacher").Invocation("turn-1").AssistantText("Say mmm!").Build()
//
// Chain only the parts you need; sensible defaults are applied.
type EventBuilder struct {
	author        string
	invocationID  string
	id            string
	role          string
	textParts     []string
	funcCalls     []core.FunctionCall
	funcResponses []core.FunctionResponse
	partial       *bool
	actions       core.EventActions
	errCode       string
	errMessage    string
}

// NewEventBuilder creates a builder with default author "MainTeacher".
func NewEventBuilder() *EventBuilder { return &EventBuilder{author: "MainTeacher"} }

// Author sets the author name for the event (chainable).
func (b *EventBuilder) Author(a string) *EventBuilder { b.author = a; return b }

// Invocation sets the run ID associated with the event (chainable).
func (b *EventBuilder) Invocation(id string) *EventBuilder { b.invocationID = id; return b }

// ID overrides the auto-generated event ID (chainable).
func (b *EventBuilder) ID(id string) *EventBuilder { b.id = id; return b }

// Partial marks the event as a streaming chunk (chainable).
func (b *EventBuilder) Partial(p bool) *EventBuilder { b.partial = &p; return b }

// UserText appends a user text part and sets role to user (chainable).
func (b *EventBuilder) UserText(t string) *EventBuilder {
	b.author = "user"
	b.role = "user"
	b.textParts = append(b.textParts, t)

	return b
}

// AssistantText appends an assistant text part (chainable).
func (b *EventBuilder) AssistantText(t string) *EventBuilder {
	b.role = "assistant"
	b.textParts = append(b.textParts, t)

	return b
}

// FunctionCall adds a function call part (chainable).
func (b *EventBuilder) FunctionCall(id, name, args string) *EventBuilder {
	b.funcCalls = append(b.funcCalls, core.FunctionCall{ID: id, Name: name, Arguments: args})
	return b
}

// FunctionResponse adds a tool result part and sets role to tool (chainable).
func (b *EventBuilder) FunctionResponse(id, name string, result any, err error) *EventBuilder {
	fr := core.FunctionResponse{ID: id, Name: name, Response: result}
	if err != nil {
		fr.Error = err.Error()
	}

	b.role = "tool"
	b.funcResponses = append(b.funcResponses, fr)

	return b
}

// State stages a state delta on the event (chainable).
func (b *EventBuilder) State(key string, val any) *EventBuilder {
	if b.actions.StateDelta == nil {
		b.actions.StateDelta = map[string]any{}
	}

	b.actions.StateDelta[key] = val

	return b
}

// Transfer sets the target agent of a handoff (chainable).
func (b *EventBuilder) Transfer(to string) *EventBuilder { b.actions.TransferToAgent = &to; return b }

// Error turns the event into an error event (chainable).
func (b *EventBuilder) Error(code, message string) *EventBuilder {
	b.errCode, b.errMessage = code, message
	return b
}

// Build constructs the core.Event value.
func (b *EventBuilder) Build() core.Event {
	ev := core.NewEvent(b.invocationID, b.author)
	if b.id != "" {
		ev.ID = b.id
	}

	ev.Partial = b.partial
	ev.Actions = b.actions

	if b.errMessage != "" {
		code, msg := b.errCode, b.errMessage
		ev.ErrorCode, ev.ErrorMessage = &code, &msg
	}

	parts := make([]core.Part, 0, len(b.textParts)+len(b.funcCalls)+len(b.funcResponses))
	for _, t := range b.textParts {
		parts = append(parts, core.TextPart{Text: t})
	}

	for _, fc := range b.funcCalls {
		parts = append(parts, core.FunctionCallPart{FunctionCall: fc})
	}

	for _, fr := range b.funcResponses {
		parts = append(parts, core.FunctionResponsePart{FunctionResponse: fr})
	}

	if len(parts) > 0 {
		role := b.role
		if role == "" {
			role = "assistant"
		}

		ev.Content = &core.Content{Role: role, Parts: parts}
	}

	return ev
}
