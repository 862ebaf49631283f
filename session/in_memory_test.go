package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/readaloud/core"
)

var _ core.SessionStore = (*InMemoryStore)(nil)

func TestInMemoryStore_GetUnknown(t *testing.T) {
	store := NewInMemoryStore()

	_, err := store.Get("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, store.AppendTurn("missing", core.Turn{}), ErrSessionNotFound)
}

func TestInMemoryStore_EventsTurnsAndState(t *testing.T) {
	store := NewInMemoryStore()

	_, err := store.Create("s1")
	require.NoError(t, err)

	require.NoError(t, store.AppendEvent("s1", core.NewUserMessageEvent("t1", "hi")))
	require.NoError(t, store.AppendTurn("s1", core.Turn{ID: "t1", Responder: "MainTeacher"}))
	require.NoError(t, store.ApplyDelta("s1", map[string]any{"learner": "Emma"}))

	sess, err := store.Get("s1")
	require.NoError(t, err)
	assert.Len(t, sess.GetEvents(), 1)
	assert.Len(t, sess.GetTurns(), 1)

	v, ok := sess.GetState("learner")
	assert.True(t, ok)
	assert.Equal(t, "Emma", v)
}

func TestInMemoryStore_SnapshotsAreIsolated(t *testing.T) {
	store := NewInMemoryStore()
	snap, _ := store.Create("s1")

	require.NoError(t, store.AppendEvent("s1", core.NewUserMessageEvent("t1", "hi")))
	assert.Empty(t, snap.GetEvents())

	snap.AddEvent(core.NewUserMessageEvent("t2", "local only"))

	fresh, _ := store.Get("s1")
	assert.Len(t, fresh.GetEvents(), 1)
}

func TestInMemoryStore_CreateKeepsExisting(t *testing.T) {
	store := NewInMemoryStore()
	_, _ = store.Create("s1")
	require.NoError(t, store.AppendEvent("s1", core.NewUserMessageEvent("t1", "hi")))

	again, err := store.Create("s1")
	require.NoError(t, err)
	assert.Len(t, again.GetEvents(), 1)
}
