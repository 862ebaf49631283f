package curriculum

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_Loads(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.Equal(t, []string{"beginner", "intermediate", "advanced"}, c.TierNames())
	assert.Equal(t, []string{"b", "c", "d", "f", "m"}, c.Sounds())
	assert.Len(t, c.Learners, 3)
}

func TestSightWords_EveryTierNonEmpty(t *testing.T) {
	c := MustDefault()

	for _, name := range c.TierNames() {
		list := c.SightWords(name)
		assert.NotEmpty(t, list.Words, name)
		assert.False(t, list.Fallback, name)
		assert.Equal(t, name, list.Tier)
	}
}

func TestSightWords_UnknownTierIsEasiest(t *testing.T) {
	c := MustDefault()
	easiest := c.SightWords(c.TierNames()[0])

	for _, tier := range []string{"expert", "", "  ", "kindergarten"} {
		list := c.SightWords(tier)
		assert.Equal(t, easiest.Words, list.Words, tier)
		assert.True(t, list.Fallback, tier)
		assert.Equal(t, "Let's start with beginner words!", list.Tip)
	}
}

func TestSightWords_CaseInsensitiveAndOrdered(t *testing.T) {
	c := MustDefault()

	list := c.SightWords("  BEGINNER ")
	assert.Equal(t, []string{"the", "and", "a", "to", "said", "you", "of", "we", "my", "be"}, list.Words)
	assert.Equal(t, "Practice these beginner sight words by saying them out loud!", list.Tip)

	list.Words[0] = "mutated"
	assert.Equal(t, "the", c.SightWords("beginner").Words[0])
}

func TestLookupProgress_Known(t *testing.T) {
	c := MustDefault()

	p := c.LookupProgress("emma")
	assert.True(t, p.Found)
	assert.Equal(t, "Emma", p.Name)
	assert.Equal(t, "Beginning Reader", p.Level)
	assert.Equal(t, "4-5 years", p.AgeRange)
	assert.Equal(t, 45, p.WordsRead)
	assert.Equal(t, 8, p.BooksCompleted)
	assert.Equal(t, []string{"letter recognition", "phonemic awareness", "print concepts"}, p.Mastered)
	assert.Equal(t, []string{"letter sounds", "simple words", "basic phonics"}, p.InProgress)
	assert.Equal(t, 25, p.Milestone)
	assert.Equal(t, 50, p.NextMilestone)
	assert.True(t, p.Celebrate)
	assert.True(t, strings.HasSuffix(p.Message, "Keep reading to reach the next level!"))
}

func TestLookupProgress_UnknownIsNoRecord(t *testing.T) {
	c := MustDefault()

	for _, name := range []string{"Zoe", "", "emma watson"} {
		p := c.LookupProgress(name)
		assert.False(t, p.Found, name)
		assert.Equal(t, "New Student", p.Level)
		assert.Empty(t, p.AgeRange)
		assert.Zero(t, p.WordsRead)
		assert.False(t, p.Celebrate)
		assert.Equal(t, "Welcome! Let's start your reading journey!", p.Message)
	}
}

func TestExercise_Deterministic(t *testing.T) {
	c := MustDefault()

	first := c.Exercise("b")
	second := c.Exercise("B")
	assert.Equal(t, first, second)

	assert.Equal(t, "B", first.Sound)
	assert.Equal(t, []string{"ball", "bear", "book", "banana"}, first.Words)
	assert.Equal(t, "Big brown bears bounce balls.", first.Sentence)
	assert.Equal(t, "Let's practice the 'B' sound together! Repeat after me.", first.Instruction)
	assert.Equal(t, "j", first.NextSound)
	assert.Contains(t, c.Corrections, first.Correction)
	assert.False(t, first.Fallback)

	m := c.Exercise("m")
	assert.Equal(t, "M", m.Sound)
	assert.Equal(t, "s", m.NextSound)
}

func TestExercise_UnknownSoundFallsBack(t *testing.T) {
	c := MustDefault()

	ex := c.Exercise("zh")
	assert.True(t, ex.Fallback)
	assert.Equal(t, "B", ex.Sound)
}

func TestNextPhonicsSound(t *testing.T) {
	c := MustDefault()

	assert.Equal(t, "s", c.NextPhonicsSound("m"))
	assert.Equal(t, "bl", c.NextPhonicsSound("q"))
	assert.Equal(t, "ui", c.NextPhonicsSound("ui"))
	assert.Equal(t, "m", c.NextPhonicsSound("unknown"))
}

func TestLoad_RejectsInvalidCatalog(t *testing.T) {
	_, err := Load(strings.NewReader("sight_word_tiers: []\nphonics_exercises: []\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sight-word tier")

	_, err = Load(strings.NewReader("unknown_field: 1\n"))
	assert.Error(t, err)

	_, err = Load(strings.NewReader(`
sight_word_tiers:
  - name: easy
    words: []
phonics_exercises:
  - sound: b
    words: [ball]
    sentence: Ball.
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no words")
}

func TestEncouragementFor_Deterministic(t *testing.T) {
	c := MustDefault()

	assert.Equal(t, c.EncouragementFor("Emma"), c.EncouragementFor("Emma"))
	assert.Contains(t, c.Encouragement, c.EncouragementFor("Liam"))
	assert.Contains(t, c.Corrections, c.CorrectionFor("Liam"))

	empty := &Catalog{}
	assert.Equal(t, "Great job!", empty.EncouragementFor("x"))
}
