package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/readaloud/core"
)

// drain collects every response of one Generate call and its final error.
func drain(respCh <-chan Response, errCh <-chan error) ([]Response, error) {
	var out []Response
	for r := range respCh {
		out = append(out, r)
	}

	return out, <-errCh
}

func TestMockModel_CannedAndStreaming(t *testing.T) {
	m := NewMockModel("mock", "mock")
	m.AddResponse("hello", "Hi there!")

	req := Request{Contents: []core.Content{core.NewTextContent("user", "hello")}}

	out, err := drain(m.Generate(context.Background(), req))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Hi there!", out[0].Content.Parts[0].(core.TextPart).Text)

	req.Stream = true
	out, err = drain(m.Generate(context.Background(), req))
	require.NoError(t, err)
	assert.Len(t, out, len("Hi there!")+1)
	assert.True(t, out[0].Partial)
	assert.False(t, out[len(out)-1].Partial)

	_, err = drain(m.Generate(context.Background(), Request{}))
	assert.Error(t, err)
}

func TestScriptedModel_PlaysStepsAndRepeatsLast(t *testing.T) {
	m := NewScriptedModel("script",
		CallTool("get_sight_words", `{"difficulty_level":"beginner"}`),
		Reply("Here are your words"),
	)

	out, err := drain(m.Generate(context.Background(), Request{}))
	require.NoError(t, err)
	assert.Equal(t, "tool_calls", out[0].FinishReason)

	for i := 0; i < 2; i++ {
		out, err = drain(m.Generate(context.Background(), Request{}))
		require.NoError(t, err)
		assert.Equal(t, "Here are your words", out[0].Content.Parts[0].(core.TextPart).Text)
	}

	assert.Equal(t, 3, m.Calls())
	assert.Len(t, m.Requests(), 3)
}

func TestScriptedModel_FailAndEmpty(t *testing.T) {
	boom := errors.New("boom")

	_, err := drain(NewScriptedModel("f", Fail(boom)).Generate(context.Background(), Request{}))
	assert.ErrorIs(t, err, boom)

	_, err = drain(NewScriptedModel("empty").Generate(context.Background(), Request{}))
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = drain(NewScriptedModel("c", Reply("x")).Generate(ctx, Request{}))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLastUserText(t *testing.T) {
	req := Request{Contents: []core.Content{
		core.NewTextContent("user", "first"),
		core.NewTextContent("assistant", "reply"),
		core.NewTextContent("user", "second"),
		core.NewTextContent("tool", "result"),
	}}

	assert.Equal(t, "second", LastUserText(req))
	assert.Empty(t, LastUserText(Request{}))
}

func TestEncodeFunctionResponse(t *testing.T) {
	assert.Equal(t, `{"error":"unable to complete this request: boom"}`,
		EncodeFunctionResponse(core.FunctionResponse{Error: "unable to complete this request: boom"}))

	assert.Equal(t, "plain", EncodeFunctionResponse(core.FunctionResponse{Response: "plain"}))

	assert.JSONEq(t, `{"words":["the","and"]}`,
		EncodeFunctionResponse(core.FunctionResponse{Response: map[string]any{"words": []string{"the", "and"}}}))
}
