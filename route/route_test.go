package route

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/readaloud/core"
	"github.com/hupe1980/readaloud/model"
	"github.com/hupe1980/readaloud/tool"
)

func classroom() []core.HandoffTarget {
	return []core.HandoffTarget{
		{Name: "PhonicsTeacher", Description: "letter sounds", Keywords: []string{"phonics", "letter", "sound", "pronounce", "blend"}},
		{Name: "SightWordsTeacher", Description: "sight words", Keywords: []string{"sight word", "high frequency", "word list"}},
		{Name: "ProgressTracker", Description: "progress", Keywords: []string{"progress", "level", "milestone", "achievement"}},
	}
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"i", "need", "sight", "word", "for", "beginner"}, Tokenize("I need sight words for beginners!"))
	assert.Equal(t, []string{"check", "emma", "s", "progress"}, Tokenize("check Emma's progress"))
	assert.Empty(t, Tokenize("  ?! "))
}

func TestKeywordClassifier(t *testing.T) {
	c := NewKeywordClassifier()

	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"Hi! I want to practice the letter B sound", "PhonicsTeacher", true},
		{"Can you check Emma's reading progress?", "ProgressTracker", true},
		{"I need help with sight words for beginners", "SightWordsTeacher", true},
		{"Let's work on phonics with the letter M", "PhonicsTeacher", true},
		{"Hello teacher!", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			name, ok, err := c.Classify(context.Background(), tt.input, nil, classroom())
			require.NoError(t, err)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, name)
		})
	}
}

func TestKeywordClassifier_TieIsNoMatch(t *testing.T) {
	c := NewKeywordClassifier()

	name, ok, err := c.Classify(context.Background(), "what level is this letter", nil, classroom())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, name)
}

func TestKeywordClassifier_ExtraPhrases(t *testing.T) {
	c := NewKeywordClassifier(func(o *KeywordOptions) {
		o.Extra = map[string][]string{"ProgressTracker": {"how am i doing"}}
	})

	name, ok, err := c.Classify(context.Background(), "How am I doing?", nil, classroom())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "ProgressTracker", name)
}

func TestKeywordClassifier_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := NewKeywordClassifier().Classify(ctx, "phonics", nil, classroom())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestModelClassifier_SelectsCandidate(t *testing.T) {
	llm := model.NewScriptedModel("router", model.CallTool(tool.TransferToAgentName, `{"agent":"SightWordsTeacher"}`))
	c := NewModelClassifier(llm)

	history := []core.Event{core.NewMessageEvent("MainTeacher", "Hello friend!")}

	name, ok, err := c.Classify(context.Background(), "the word list please", history, classroom())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "SightWordsTeacher", name)

	req := llm.Requests()[0]
	assert.Contains(t, req.Instructions, "- ProgressTracker: progress")
	require.Len(t, req.Tools, 1)
	assert.Equal(t, tool.TransferToAgentName, req.Tools[0].Function.Name)
	require.Len(t, req.Contents, 2)
	assert.Equal(t, "the word list please", model.LastUserText(req))
}

func TestModelClassifier_NoMatch(t *testing.T) {
	for name, step := range map[string]model.Step{
		"text answer":    model.Reply("Hello there!"),
		"unknown target": model.CallTool(tool.TransferToAgentName, `{"agent":"MathTeacher"}`),
		"bad arguments":  model.CallTool(tool.TransferToAgentName, `{`),
	} {
		t.Run(name, func(t *testing.T) {
			c := NewModelClassifier(model.NewScriptedModel("router", step))

			got, ok, err := c.Classify(context.Background(), "hi", nil, classroom())
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Empty(t, got)
		})
	}
}

func TestModelClassifier_FailureIsServiceError(t *testing.T) {
	c := NewModelClassifier(model.NewScriptedModel("router", model.Fail(errors.New("upstream down"))))

	_, _, err := c.Classify(context.Background(), "phonics", nil, classroom())

	var svcErr *core.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "route", svcErr.Op)
}

func TestChain(t *testing.T) {
	never := ClassifierFunc(func(context.Context, string, []core.Event, []core.HandoffTarget) (string, bool, error) {
		return "", false, nil
	})

	c := Chain(never, NewKeywordClassifier())

	name, ok, err := c.Classify(context.Background(), "phonics time", nil, classroom())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "PhonicsTeacher", name)

	failing := ClassifierFunc(func(context.Context, string, []core.Event, []core.HandoffTarget) (string, bool, error) {
		return "", false, errors.New("boom")
	})

	_, _, err = Chain(failing, NewKeywordClassifier()).Classify(context.Background(), "phonics", nil, classroom())
	assert.Error(t, err)
}
