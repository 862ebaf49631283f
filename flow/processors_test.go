package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/readaloud/core"
	"github.com/hupe1980/readaloud/model"
	"github.com/hupe1980/readaloud/tool"
)

func TestInstructionsProcessor_RendersState(t *testing.T) {
	h := newHarness(t, "hi")
	h.rc.Session.SetState("learner", "Emma")

	agent := newTestAgent(nil)
	agent.instructions = "Help {{.learner}} read. Sound: {{default \"m\" .last_phonics_sound}}."

	req := &model.Request{}
	require.NoError(t, NewInstructionsProcessor().ProcessRequest(h.rc, req, agent))

	assert.Equal(t, "Help Emma read. Sound: m.", req.Instructions)
}

func TestContentsProcessor_TruncatesHistory(t *testing.T) {
	h := newHarness(t, "latest")

	for _, text := range []string{"one", "two", "three"} {
		require.NoError(t, h.store.AppendEvent("s1", core.NewMessageEvent("MainTeacher", text)))
	}

	require.NoError(t, h.rc.RefreshSession())

	agent := newTestAgent(nil)
	agent.history = 2

	req := &model.Request{}
	require.NoError(t, NewContentsProcessor().ProcessRequest(h.rc, req, agent))

	require.Len(t, req.Contents, 3)
	assert.Equal(t, "two", req.Contents[0].Parts[0].(core.TextPart).Text)
	assert.Equal(t, "three", req.Contents[1].Parts[0].(core.TextPart).Text)
	assert.Equal(t, "latest", model.LastUserText(*req))
}

func TestContentsProcessor_DropsOrphanToolResults(t *testing.T) {
	h := newHarness(t, "hi")

	resp := core.NewFunctionResponseEvent("SightWordsTeacher", "fc-1", tool.SightWordsToolName, "ok", nil)
	require.NoError(t, h.store.AppendEvent("s1", resp))
	require.NoError(t, h.rc.RefreshSession())

	agent := newTestAgent(nil)
	agent.history = 1

	req := &model.Request{}
	require.NoError(t, NewContentsProcessor().ProcessRequest(h.rc, req, agent))

	for _, c := range req.Contents {
		assert.NotEqual(t, "tool", c.Role)
	}
}

func TestTransferToolInjector(t *testing.T) {
	inj := NewTransferToolInjector()

	h := newHarness(t, "hi")
	req := &model.Request{}
	require.NoError(t, inj.ProcessRequest(h.rc, req, nil))
	assert.Empty(t, req.Tools)

	h = newHarness(t, "hi", core.HandoffTarget{Name: "PhonicsTeacher"}, core.HandoffTarget{Name: "ProgressTracker"})
	require.NoError(t, inj.ProcessRequest(h.rc, req, nil))
	require.NoError(t, inj.ProcessRequest(h.rc, req, nil))
	require.Len(t, req.Tools, 1)

	def := req.Tools[0].Function
	assert.Equal(t, tool.TransferToAgentName, def.Name)

	agentProp := def.Parameters["properties"].(map[string]any)["agent"].(map[string]any)
	assert.Equal(t, []any{"PhonicsTeacher", "ProgressTracker"}, agentProp["enum"])
}

func TestOutputKeyProcessor(t *testing.T) {
	h := newHarness(t, "hi")

	agent := newTestAgent(nil)
	agent.outputKey = "last_answer"

	p := NewOutputKeyProcessor()

	call := model.FunctionCallResponse("fc-1", tool.SightWordsToolName, `{}`)
	require.NoError(t, p.ProcessResponse(h.rc, &call, agent))
	_, ok := h.rc.GetState("last_answer")
	assert.False(t, ok)

	final := model.TextResponse("Great reading!")
	require.NoError(t, p.ProcessResponse(h.rc, &final, agent))

	v, ok := h.rc.GetState("last_answer")
	require.True(t, ok)
	assert.Equal(t, "Great reading!", v)
}
