// Package curriculum holds the reading catalog behind the classroom tools:
// learner progress, sight-word tiers, phonics exercises, reading levels and
// the phonics teaching sequence.
//
// A Catalog is loaded once at startup (from the embedded default or a YAML
// file) and never mutated afterwards, so lookups are pure and safe for
// concurrent use.
package curriculum

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// ReadingLevel is one stage of the reading progression.
type ReadingLevel struct {
	Name     string   `yaml:"name"`
	AgeRange string   `yaml:"age_range"`
	Skills   []string `yaml:"skills"`
}

// Learner is a stored progress record.
type Learner struct {
	Name           string   `yaml:"name"`
	Age            int      `yaml:"age"`
	Level          string   `yaml:"level"`
	Interests      []string `yaml:"interests"`
	WordsRead      int      `yaml:"words_read"`
	BooksCompleted int      `yaml:"books_completed"`
	CurrentPhonics string   `yaml:"current_phonics"`
}

// Tier is a named, ordered sight-word list.
type Tier struct {
	Name  string   `yaml:"name"`
	Words []string `yaml:"words"`
}

// ExerciseTemplate is the catalog entry an exercise is generated from.
type ExerciseTemplate struct {
	Sound    string   `yaml:"sound"`
	Words    []string `yaml:"words"`
	Sentence string   `yaml:"sentence"`
}

// Catalog is the immutable reading catalog.
type Catalog struct {
	Milestones      []int              `yaml:"milestones"`
	Levels          []ReadingLevel     `yaml:"reading_levels"`
	Learners        []Learner          `yaml:"learners"`
	Tiers           []Tier             `yaml:"sight_word_tiers"`
	Exercises       []ExerciseTemplate `yaml:"phonics_exercises"`
	PhonicsSequence []string           `yaml:"phonics_sequence"`
	Encouragement   []string           `yaml:"encouragement"`
	Corrections     []string           `yaml:"corrections"`
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return Load(bytes.NewReader(defaultCatalog))
}

// MustDefault is like Default but panics on a malformed embedded catalog.
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(err)
	}

	return c
}

// LoadFile reads a catalog from a YAML file.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// Load decodes and validates a catalog.
func Load(r io.Reader) (*Catalog, error) {
	var c Catalog

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

// Validate checks the invariants the lookups rely on.
func (c *Catalog) Validate() error {
	var errs []error

	if len(c.Tiers) == 0 {
		errs = append(errs, errors.New("catalog: at least one sight-word tier is required"))
	}

	seen := map[string]bool{}

	for _, t := range c.Tiers {
		key := normalize(t.Name)
		if key == "" {
			errs = append(errs, errors.New("catalog: tier without name"))
		}

		if seen[key] {
			errs = append(errs, fmt.Errorf("catalog: duplicate tier %q", t.Name))
		}

		seen[key] = true

		if len(t.Words) == 0 {
			errs = append(errs, fmt.Errorf("catalog: tier %q has no words", t.Name))
		}
	}

	if len(c.Exercises) == 0 {
		errs = append(errs, errors.New("catalog: at least one phonics exercise is required"))
	}

	for _, l := range c.Learners {
		if l.Level != "" && c.levelIndex(l.Level) < 0 {
			errs = append(errs, fmt.Errorf("catalog: learner %q has unknown level %q", l.Name, l.Level))
		}
	}

	return errors.Join(errs...)
}

// TierNames returns the tier names from easiest to hardest.
func (c *Catalog) TierNames() []string {
	names := make([]string, len(c.Tiers))
	for i, t := range c.Tiers {
		names[i] = t.Name
	}

	return names
}

// Sounds returns the phonetic units that have a dedicated exercise.
func (c *Catalog) Sounds() []string {
	sounds := make([]string, len(c.Exercises))
	for i, e := range c.Exercises {
		sounds[i] = e.Sound
	}

	return sounds
}

// Level returns the reading level with the given name.
func (c *Catalog) Level(name string) (ReadingLevel, bool) {
	i := c.levelIndex(name)
	if i < 0 {
		return ReadingLevel{}, false
	}

	return c.Levels[i], true
}

// NextPhonicsSound returns the sound taught after current. An unknown sound
// restarts at the beginning of the sequence and the last sound repeats.
func (c *Catalog) NextPhonicsSound(current string) string {
	if len(c.PhonicsSequence) == 0 {
		return ""
	}

	key := normalize(current)

	for i, s := range c.PhonicsSequence {
		if s != key {
			continue
		}

		if i < len(c.PhonicsSequence)-1 {
			return c.PhonicsSequence[i+1]
		}

		return s
	}

	return c.PhonicsSequence[0]
}

// EncouragementFor returns a phrase chosen deterministically from seed.
func (c *Catalog) EncouragementFor(seed string) string {
	return pick(c.Encouragement, seed, "Great job!")
}

// CorrectionFor returns a gentle correction phrase chosen deterministically from seed.
func (c *Catalog) CorrectionFor(seed string) string {
	return pick(c.Corrections, seed, "Let's try that again together.")
}

func (c *Catalog) levelIndex(name string) int {
	key := normalize(name)
	for i, l := range c.Levels {
		if normalize(l.Name) == key {
			return i
		}
	}

	return -1
}

func pick(phrases []string, seed, fallback string) string {
	if len(phrases) == 0 {
		return fallback
	}

	sum := 0
	for _, r := range seed {
		sum += int(r)
	}

	return phrases[sum%len(phrases)]
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
