package testutil

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/readaloud/core"
)

func TestEventBuilder(t *testing.T) {
	ev := NewEventBuilder().
		Author("PhonicsTeacher").
		Invocation("turn-1").
		ID("ev-1").
		AssistantText("Say mmm!").
		FunctionCall("call-1", "create_phonics_exercise", `{"letter_sound":"m"}`).
		Partial(true).
		Build()

	assert.Equal(t, "ev-1", ev.ID)
	assert.Equal(t, "PhonicsTeacher", ev.Author)
	assert.Equal(t, "Say mmm!", ev.Text())
	assert.True(t, ev.IsPartial())
	require.Len(t, ev.GetFunctionCalls(), 1)
	assert.Equal(t, "create_phonics_exercise", ev.GetFunctionCalls()[0].Name)

	resp := NewEventBuilder().FunctionResponse("call-1", "get_sight_words", nil, errors.New("boom")).Build()
	require.Len(t, resp.GetFunctionResponses(), 1)
	assert.Equal(t, "tool", resp.Content.Role)
	assert.Equal(t, "boom", resp.GetFunctionResponses()[0].Error)

	handoff := NewEventBuilder().Transfer("SightWordsTeacher").Build()
	assert.True(t, handoff.IsHandoff())
	assert.Nil(t, handoff.Content)

	failed := NewEventBuilder().Error("SERVICE_ERROR", "model unavailable").Build()
	assert.True(t, failed.IsError())
}

func TestSessionBuilder(t *testing.T) {
	ev := NewEventBuilder().Invocation("turn-1").UserText("hi").Build()
	turn := core.Turn{ID: "turn-1", Input: "hi", Responder: "MainTeacher", Response: "Hello!"}

	s := NewSessionBuilder("s1").State("learner", "Emma").Events(ev).Turns(turn).Build()

	learner, ok := s.GetState("learner")
	require.True(t, ok)
	assert.Equal(t, "Emma", learner)
	assert.Len(t, s.GetEvents(), 1)
	assert.Len(t, s.GetTurns(), 1)

	store := NewSessionBuilder("s2").Events(ev).Turns(turn).Store()

	stored, err := store.Get("s2")
	require.NoError(t, err)
	assert.Len(t, stored.GetEvents(), 1)
	assert.Equal(t, "Hello!", stored.GetTurns()[0].Response)
}
