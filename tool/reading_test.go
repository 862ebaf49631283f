package tool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/readaloud/curriculum"
)

type bogusCall struct{}

func (bogusCall) toolName() string { return "bogus" }

func TestDispatch_Variants(t *testing.T) {
	catalog := curriculum.MustDefault()

	out, err := Dispatch(catalog, ProgressLookup{Learner: "Liam"})
	require.NoError(t, err)
	progress := out.(curriculum.Progress)
	assert.True(t, progress.Found)
	assert.Equal(t, "Early Reader", progress.Level)

	out, err = Dispatch(catalog, ProgressLookup{Learner: "Nobody"})
	require.NoError(t, err)
	assert.False(t, out.(curriculum.Progress).Found)

	out, err = Dispatch(catalog, SightWordRequest{Tier: "expert"})
	require.NoError(t, err)
	words := out.(curriculum.WordList)
	assert.True(t, words.Fallback)
	assert.Equal(t, catalog.SightWords("beginner").Words, words.Words)

	out, err = Dispatch(catalog, ExerciseRequest{Sound: "m"})
	require.NoError(t, err)
	assert.Equal(t, "M", out.(curriculum.Exercise).Sound)
}

func TestDispatch_MalformedInput(t *testing.T) {
	catalog := curriculum.MustDefault()

	for _, call := range []ReadingCall{
		ProgressLookup{Learner: "   "},
		ExerciseRequest{Sound: "123"},
		bogusCall{},
		nil,
	} {
		_, err := Dispatch(catalog, call)

		var te *ToolError
		require.ErrorAs(t, err, &te, "%T", call)
	}
}

func TestReadingTools_CallThroughSchema(t *testing.T) {
	catalog := curriculum.MustDefault()
	tools := ReadingTools(catalog)
	require.Len(t, tools, 3)

	byName := map[string]Tool{}
	for _, tl := range tools {
		byName[tl.Name()] = tl
	}

	tc := newToolContext(t)

	out, err := byName[SightWordsToolName].Call(tc, map[string]any{"difficulty_level": "beginner"})
	require.NoError(t, err)
	assert.Equal(t, []string{"the", "and", "a", "to", "said", "you", "of", "we", "my", "be"}, out.(curriculum.WordList).Words)

	out, err = byName[ProgressToolName].Call(tc, map[string]any{"child_name": "Emma"})
	require.NoError(t, err)
	assert.Equal(t, 45, out.(curriculum.Progress).WordsRead)

	learner, ok := tc.GetState("learner")
	assert.True(t, ok)
	assert.Equal(t, "Emma", learner)

	out, err = byName[PhonicsToolName].Call(tc, map[string]any{"letter_sound": "b"})
	require.NoError(t, err)
	assert.Equal(t, "Big brown bears bounce balls.", out.(curriculum.Exercise).Sentence)
}

func TestReadingTools_MalformedArgumentsAreToolErrors(t *testing.T) {
	catalog := curriculum.MustDefault()
	tc := newToolContext(t)

	cases := []struct {
		tool Tool
		args map[string]any
	}{
		{ProgressTool(catalog), map[string]any{}},
		{ProgressTool(catalog), map[string]any{"child_name": 42}},
		{ProgressTool(catalog), map[string]any{"child_name": ""}},
		{SightWordsTool(catalog), map[string]any{"difficulty_level": []any{"beginner"}}},
		{PhonicsTool(catalog), map[string]any{"letter_sound": "!!"}},
	}

	for _, c := range cases {
		_, err := c.tool.Call(tc, c.args)

		var te *ToolError
		require.ErrorAs(t, err, &te, "%s %v", c.tool.Name(), c.args)
		assert.Contains(t, InlineMessage(err), UnableToComplete)
	}
}

func TestReadingTools_SchemaShape(t *testing.T) {
	catalog := curriculum.MustDefault()

	params := ProgressTool(catalog).Parameters()
	assert.Equal(t, []any{"child_name"}, params["required"])

	props := SightWordsTool(catalog).Parameters()["properties"].(map[string]any)
	assert.Contains(t, props, "difficulty_level")
	assert.Contains(t, SightWordsTool(catalog).Description(), "beginner, intermediate, advanced")
	assert.Contains(t, PhonicsTool(catalog).Description(), "b, c, d, f, m")
}
