package curriculum

import (
	"fmt"
	"slices"
	"strings"
)

// Progress is the structured answer of a progress lookup.
type Progress struct {
	Found          bool     `json:"found"`
	Name           string   `json:"child_name"`
	Level          string   `json:"reading_level"`
	AgeRange       string   `json:"age_range,omitempty"`
	WordsRead      int      `json:"words_read"`
	BooksCompleted int      `json:"books_completed"`
	Mastered       []string `json:"mastered_skills"`
	InProgress     []string `json:"in_progress_skills"`
	CurrentPhonics string   `json:"current_phonics,omitempty"`
	Milestone      int      `json:"milestone,omitempty"`
	NextMilestone  int      `json:"next_milestone,omitempty"`
	Celebrate      bool     `json:"celebrate"`
	Message        string   `json:"message"`
}

// WordList is the structured answer of a sight-word lookup.
type WordList struct {
	Tier     string   `json:"level"`
	Words    []string `json:"words"`
	Fallback bool     `json:"fallback"`
	Tip      string   `json:"tip"`
}

// Exercise is a short phonics practice activity.
type Exercise struct {
	Sound       string   `json:"letter_sound"`
	Words       []string `json:"practice_words"`
	Sentence    string   `json:"practice_sentence"`
	Instruction string   `json:"instruction"`
	Correction  string   `json:"gentle_correction"`
	NextSound   string   `json:"next_sound,omitempty"`
	Fallback    bool     `json:"fallback"`
}

// LookupProgress returns the progress record of a learner. Unknown learners
// yield Found=false with a welcome message instead of an error.
func (c *Catalog) LookupProgress(name string) Progress {
	key := normalize(name)

	for _, l := range c.Learners {
		if normalize(l.Name) != key {
			continue
		}

		p := Progress{
			Found:          true,
			Name:           l.Name,
			Level:          l.Level,
			WordsRead:      l.WordsRead,
			BooksCompleted: l.BooksCompleted,
			CurrentPhonics: l.CurrentPhonics,
			Mastered:       []string{},
			InProgress:     []string{},
		}

		if lvl, ok := c.Level(l.Level); ok {
			p.AgeRange = lvl.AgeRange
		}

		if i := c.levelIndex(l.Level); i >= 0 {
			for _, lvl := range c.Levels[:i] {
				p.Mastered = append(p.Mastered, lvl.Skills...)
			}

			p.InProgress = slices.Clone(c.Levels[i].Skills)
		}

		p.Milestone, p.NextMilestone = c.milestones(l.WordsRead)
		p.Celebrate = p.Milestone > 0
		p.Message = fmt.Sprintf("%s Keep reading to reach the next level!", c.EncouragementFor(l.Name))

		return p
	}

	_, next := c.milestones(0)

	return Progress{
		Found:         false,
		Name:          strings.TrimSpace(name),
		Level:         "New Student",
		Mastered:      []string{},
		InProgress:    []string{},
		NextMilestone: next,
		Message:       "Welcome! Let's start your reading journey!",
	}
}

// SightWords returns the ordered list of a tier. An unknown tier returns the
// easiest tier flagged as a fallback.
func (c *Catalog) SightWords(tier string) WordList {
	key := normalize(tier)

	for _, t := range c.Tiers {
		if normalize(t.Name) == key {
			return WordList{
				Tier:  t.Name,
				Words: slices.Clone(t.Words),
				Tip:   fmt.Sprintf("Practice these %s sight words by saying them out loud!", t.Name),
			}
		}
	}

	easiest := c.Tiers[0]

	return WordList{
		Tier:     easiest.Name,
		Words:    slices.Clone(easiest.Words),
		Fallback: true,
		Tip:      fmt.Sprintf("Let's start with %s words!", easiest.Name),
	}
}

// Exercise builds the practice activity for a phonetic unit. The same input
// always yields the same exercise; unknown sounds use the first exercise.
func (c *Catalog) Exercise(sound string) Exercise {
	key := normalize(sound)

	tmpl, fallback := c.Exercises[0], true

	for _, e := range c.Exercises {
		if normalize(e.Sound) == key {
			tmpl, fallback = e, false
			break
		}
	}

	label := strings.ToUpper(tmpl.Sound)

	return Exercise{
		Sound:       label,
		Words:       slices.Clone(tmpl.Words),
		Sentence:    tmpl.Sentence,
		Instruction: fmt.Sprintf("Let's practice the '%s' sound together! Repeat after me.", label),
		Correction:  c.CorrectionFor(tmpl.Sound),
		NextSound:   c.NextPhonicsSound(tmpl.Sound),
		Fallback:    fallback,
	}
}

// milestones returns the highest threshold reached and the next one ahead.
func (c *Catalog) milestones(words int) (reached, next int) {
	for _, m := range c.Milestones {
		if words >= m {
			reached = m
			continue
		}

		return reached, m
	}

	return reached, 0
}
