package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunContext_EmitEventMergesStateDelta(t *testing.T) {
	rc, emit, _ := newRunContextForTest()
	rc.SetState("learner", "Emma")

	require.NoError(t, rc.EmitEvent(NewMessageEvent("Triage", "hi")))

	received := <-emit
	assert.Equal(t, "Emma", received.Actions.StateDelta["learner"])
	assert.Equal(t, "turn-x", received.InvocationID)
	assert.Empty(t, rc.StateDelta)
}

func TestRunContext_EmitHandoffRecordsTransfer(t *testing.T) {
	rc, emit, _ := newRunContextForTest()

	_, ok := rc.PendingTransfer()
	assert.False(t, ok)

	require.NoError(t, rc.EmitEvent(NewHandoffEvent("", "Triage", "PhonicsTeacher")))
	<-emit

	target, ok := rc.PendingTransfer()
	assert.True(t, ok)
	assert.Equal(t, "PhonicsTeacher", target)

	rc.SwitchAgent(AgentInfo{Name: "PhonicsTeacher"}, nil)

	_, ok = rc.PendingTransfer()
	assert.False(t, ok)
	assert.False(t, rc.CanHandoffTo("PhonicsTeacher"))
}

func TestRunContext_EmitEventCancelled(t *testing.T) {
	rc, _, _ := newRunContextForTest()
	rc.Emit = make(chan Event)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rc.Context = ctx

	assert.ErrorIs(t, rc.EmitEvent(NewMessageEvent("Triage", "hi")), context.Canceled)
	assert.ErrorIs(t, rc.WaitForResume(), context.Canceled)
}

func TestRunContext_RefreshSessionAndState(t *testing.T) {
	rc, _, _ := newRunContextForTest()

	require.NoError(t, rc.SessionStore.AppendEvent(rc.SessionID, NewUserMessageEvent("turn-x", "hello")))
	require.NoError(t, rc.RefreshSession())
	assert.Len(t, rc.GetConversationHistory(), 1)

	rc.Session.SetState("tier", "beginner")

	v, ok := rc.GetState("tier")
	assert.True(t, ok)
	assert.Equal(t, "beginner", v)

	rc.SetState("tier", "advanced")
	v, _ = rc.GetState("tier")
	assert.Equal(t, "advanced", v)
}

func TestRunContext_SaveArtifact(t *testing.T) {
	rc, _, _ := newRunContextForTest()

	require.NoError(t, rc.SaveArtifact("a1", []byte("wav")))

	data, err := rc.ArtifactStore.Get(rc.SessionID, "a1")
	require.NoError(t, err)
	assert.Equal(t, []byte("wav"), data)

	rc.ArtifactStore = nil
	assert.Error(t, rc.SaveArtifact("a2", nil))
}
