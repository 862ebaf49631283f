package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_ConstructorsAndMethods(t *testing.T) {
	e := NewEvent("inv-123", "authorA")
	assert.Equal(t, "authorA", e.Author)
	assert.Equal(t, "inv-123", e.InvocationID)
	assert.NotEmpty(t, e.ID)
	assert.False(t, e.Timestamp.IsZero())

	msg := NewMessageEvent("agent1", "hello world")
	require.NotNil(t, msg.Content)
	assert.Equal(t, "assistant", msg.Content.Role)
	assert.Equal(t, "hello world", msg.Text())

	call := NewFunctionCallEvent("agent2", "get_sight_words", `{"difficulty_level":"beginner"}`)
	calls := call.GetFunctionCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "get_sight_words", calls[0].Name)
	assert.False(t, call.IsFinalResponse())

	ok := NewFunctionResponseEvent("agent2", "call-1", "get_sight_words", 42, nil)
	resps := ok.GetFunctionResponses()
	require.Len(t, resps, 1)
	assert.Equal(t, 42, resps[0].Response)
	assert.Empty(t, resps[0].Error)

	failed := NewFunctionResponseEvent("agent2", "call-2", "get_sight_words", nil, errors.New("boom"))
	assert.Equal(t, "boom", failed.GetFunctionResponses()[0].Error)
}

func TestEvent_HandoffAndError(t *testing.T) {
	h := NewHandoffEvent("inv", "Triage", "SightWordsTeacher")
	assert.True(t, h.IsHandoff())
	assert.Nil(t, h.Content)
	assert.Empty(t, h.Text())

	e := NewErrorEvent("inv", "system", "SERVICE_ERROR", "timeout")
	assert.True(t, e.IsError())
	assert.False(t, e.IsHandoff())
}

func TestEvent_IsFinalResponse(t *testing.T) {
	e := NewEvent("inv", "authorA")
	assert.True(t, e.IsFinalResponse())

	p := true
	e.Partial = &p
	assert.False(t, e.IsFinalResponse())

	skip := true
	e.Actions.SkipSummarization = &skip
	assert.True(t, e.IsFinalResponse())
}
