package flow

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/readaloud/core"
	"github.com/hupe1980/readaloud/curriculum"
	"github.com/hupe1980/readaloud/logging"
	"github.com/hupe1980/readaloud/model"
	"github.com/hupe1980/readaloud/session"
	"github.com/hupe1980/readaloud/tool"
)

type testAgent struct {
	name         string
	llm          model.Model
	instructions string
	tools        map[string]tool.Tool
	history      int
	outputKey    string
}

func (a *testAgent) GetName() string                { return a.name }
func (a *testAgent) GetLLM() model.Model            { return a.llm }
func (a *testAgent) GetTools() map[string]tool.Tool { return a.tools }
func (a *testAgent) IsStreamingEnabled() bool       { return false }
func (a *testAgent) MaxHistoryMessages() int        { return a.history }
func (a *testAgent) GetOutputKey() string           { return a.outputKey }
func (a *testAgent) ResolveInstructions(*core.RunContext) (string, error) {
	return a.instructions, nil
}

func newTestAgent(llm model.Model, tools ...tool.Tool) *testAgent {
	registry := map[string]tool.Tool{}
	for _, t := range tools {
		registry[t.Name()] = t
	}

	return &testAgent{name: "SightWordsTeacher", llm: llm, instructions: "Be kind.", tools: registry, history: 20}
}

// harness plays the runner's part: it persists every non-partial event and
// resumes the flow.
type harness struct {
	rc    *core.RunContext
	store *session.InMemoryStore

	mu     sync.Mutex
	events []core.Event
	done   chan struct{}
}

func newHarness(t *testing.T, input string, targets ...core.HandoffTarget) *harness {
	t.Helper()

	store := session.NewInMemoryStore()
	sess, err := store.Create("s1")
	require.NoError(t, err)

	emit := make(chan core.Event, 16)
	resume := make(chan struct{}, 1)

	user := core.NewUserMessageEvent("turn-1", input)
	require.NoError(t, store.AppendEvent("s1", user))

	rc := core.NewRunContext(context.Background(), "s1", "turn-1", *user.Content, 5,
		emit, resume, sess, store, nil, logging.NoOpLogger{})
	rc.SwitchAgent(core.AgentInfo{Name: "SightWordsTeacher", Type: "specialist"}, targets)

	h := &harness{rc: rc, store: store, done: make(chan struct{})}

	go func() {
		defer close(h.done)

		for ev := range emit {
			h.mu.Lock()
			h.events = append(h.events, ev)
			h.mu.Unlock()

			if ev.IsPartial() {
				continue
			}

			_ = store.AppendEvent("s1", ev)
			resume <- struct{}{}
		}
	}()

	return h
}

func (h *harness) run(t *testing.T, f Flow) []core.Event {
	t.Helper()

	out, err := f.Execute(h.rc)
	require.NoError(t, err)

	var seen []core.Event
	for ev := range out {
		seen = append(seen, ev)
	}

	return seen
}

func TestSingleAgentFlow_ToolRoundTrip(t *testing.T) {
	catalog := curriculum.MustDefault()

	llm := model.NewScriptedModel("scripted",
		model.CallTool(tool.SightWordsToolName, `{"difficulty_level":"beginner"}`),
		func(req model.Request) (model.Response, error) {
			last := req.Contents[len(req.Contents)-1]
			fr := last.Parts[0].(core.FunctionResponsePart).FunctionResponse

			list := fr.Response.(curriculum.WordList)

			return model.TextResponse("Let's read: " + list.Words[0] + " and " + list.Words[1]), nil
		},
	)

	h := newHarness(t, "I need help with sight words for beginners")
	events := h.run(t, NewSingleAgentFlow(newTestAgent(llm, tool.SightWordsTool(catalog))))

	require.Len(t, events, 3)
	assert.Len(t, events[0].GetFunctionCalls(), 1)
	assert.Len(t, events[1].GetFunctionResponses(), 1)
	assert.True(t, events[2].IsFinalResponse())
	assert.Equal(t, "Let's read: the and and", events[2].Text())

	reqs := llm.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "Be kind.", reqs[0].Instructions)
	assert.Equal(t, "I need help with sight words for beginners", model.LastUserText(reqs[0]))
	require.Len(t, reqs[0].Tools, 1)
	assert.Equal(t, tool.SightWordsToolName, reqs[0].Tools[0].Function.Name)

	assert.Equal(t, 2, h.rc.Limiter.Count())
}

func TestSingleAgentFlow_ToolErrorReportedInline(t *testing.T) {
	catalog := curriculum.MustDefault()

	llm := model.NewScriptedModel("scripted",
		model.CallTool(tool.PhonicsToolName, `{"letter_sound":"!!"}`),
		model.Reply("Oops, let's pick a letter together."),
	)

	h := newHarness(t, "sound !!")
	events := h.run(t, NewSingleAgentFlow(newTestAgent(llm, tool.PhonicsTool(catalog))))

	require.Len(t, events, 3)

	responses := events[1].GetFunctionResponses()
	require.Len(t, responses, 1)
	assert.Contains(t, responses[0].Error, tool.UnableToComplete)
	assert.True(t, events[2].IsFinalResponse())
}

func TestSingleAgentFlow_ModelErrorEmitsServiceError(t *testing.T) {
	llm := model.NewScriptedModel("scripted", model.Fail(errors.New("upstream unavailable")))

	h := newHarness(t, "hello")
	events := h.run(t, NewSingleAgentFlow(newTestAgent(llm)))

	require.Len(t, events, 1)
	require.True(t, events[0].IsError())
	assert.Equal(t, ErrorCodeService, *events[0].ErrorCode)
	assert.Contains(t, *events[0].ErrorMessage, "upstream unavailable")
}

func TestSingleAgentFlow_CallLimit(t *testing.T) {
	loop := tool.NewFunctionTool("again", "", nil, func(*core.ToolContext, map[string]any) (any, error) {
		return "ok", nil
	})

	llm := model.NewScriptedModel("scripted", model.CallTool("again", `{}`))

	h := newHarness(t, "loop forever")
	events := h.run(t, NewSingleAgentFlow(newTestAgent(llm, loop)))

	last := events[len(events)-1]
	require.True(t, last.IsError())
	assert.Equal(t, ErrorCodeCallLimit, *last.ErrorCode)
	assert.Equal(t, 5, llm.Calls())
}

func TestHandoffFlow_TransferStopsFlow(t *testing.T) {
	llm := model.NewScriptedModel("scripted",
		model.CallTool(tool.TransferToAgentName, `{"agent":"PhonicsTeacher"}`),
		model.Reply("should not be reached"),
	)

	target := core.HandoffTarget{Name: "PhonicsTeacher", Description: "letter sounds"}

	h := newHarness(t, "letter B please", target)
	events := h.run(t, SelectFlow(newTestAgent(llm), h.rc))

	require.Len(t, events, 2)
	assert.True(t, events[1].IsHandoff())

	name, ok := h.rc.PendingTransfer()
	assert.True(t, ok)
	assert.Equal(t, "PhonicsTeacher", name)
	assert.Equal(t, 1, llm.Calls())

	reqs := llm.Requests()
	require.Len(t, reqs[0].Tools, 1)
	assert.Equal(t, tool.TransferToAgentName, reqs[0].Tools[0].Function.Name)
}

func TestHandoffFlow_UnknownTargetRejected(t *testing.T) {
	llm := model.NewScriptedModel("scripted",
		model.CallTool(tool.TransferToAgentName, `{"agent":"MathTeacher"}`),
		model.Reply("Let me help you myself."),
	)

	h := newHarness(t, "numbers", core.HandoffTarget{Name: "PhonicsTeacher"})
	events := h.run(t, NewHandoffFlow(newTestAgent(llm)))

	require.Len(t, events, 3)
	assert.NotEmpty(t, events[1].GetFunctionResponses()[0].Error)

	_, ok := h.rc.PendingTransfer()
	assert.False(t, ok)
	assert.Equal(t, "Let me help you myself.", events[2].Text())
}

func TestSelectFlow(t *testing.T) {
	agent := newTestAgent(model.NewScriptedModel("m"))

	h := newHarness(t, "hi")
	assert.IsType(t, &SingleAgentFlow{}, SelectFlow(agent, h.rc))

	h = newHarness(t, "hi", core.HandoffTarget{Name: "ProgressTracker"})
	assert.IsType(t, &HandoffFlow{}, SelectFlow(agent, h.rc))
}

func TestExecute_NoModel(t *testing.T) {
	h := newHarness(t, "hi")

	_, err := NewSingleAgentFlow(&testAgent{name: "x"}).Execute(h.rc)
	assert.Error(t, err)
}
