package tool

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/hupe1980/readaloud/core"
	"github.com/hupe1980/readaloud/curriculum"
)

// Reading tool names.
const (
	ProgressToolName   = "get_reading_progress"
	SightWordsToolName = "get_sight_words"
	PhonicsToolName    = "create_phonics_exercise"
)

// ReadingCall is the closed set of reading tool invocations. Each variant is
// one tool's argument record; Dispatch is the only place they are executed.
type ReadingCall interface {
	toolName() string
}

// ProgressLookup asks for a learner's reading progress.
type ProgressLookup struct {
	Learner string `json:"child_name" jsonschema:"required,minLength=1,description=First name of the child"`
}

// SightWordRequest asks for the sight words of a difficulty tier.
type SightWordRequest struct {
	Tier string `json:"difficulty_level" jsonschema:"required,description=Difficulty tier such as beginner or intermediate or advanced"`
}

// ExerciseRequest asks for a practice activity for one phonetic unit.
type ExerciseRequest struct {
	Sound string `json:"letter_sound" jsonschema:"required,minLength=1,description=Letter or sound to practice such as b or m"`
}

func (ProgressLookup) toolName() string   { return ProgressToolName }
func (SightWordRequest) toolName() string { return SightWordsToolName }
func (ExerciseRequest) toolName() string  { return PhonicsToolName }

// Dispatch executes a reading call against the catalog. Malformed input is
// reported as *ToolError; unknown learners, tiers and sounds are not errors.
func Dispatch(catalog *curriculum.Catalog, call ReadingCall) (any, error) {
	switch c := call.(type) {
	case ProgressLookup:
		name := strings.TrimSpace(c.Learner)
		if name == "" {
			return nil, NewToolError(ProgressToolName, "child_name must not be blank", CodeInvalidArgument)
		}

		return catalog.LookupProgress(name), nil
	case SightWordRequest:
		return catalog.SightWords(c.Tier), nil
	case ExerciseRequest:
		sound := strings.TrimSpace(c.Sound)
		if !containsLetter(sound) {
			return nil, NewToolError(PhonicsToolName, fmt.Sprintf("letter_sound %q contains no letters", c.Sound), CodeInvalidArgument)
		}

		return catalog.Exercise(sound), nil
	case nil:
		return nil, NewToolError("", "no reading call given", CodeUnknownTool)
	default:
		return nil, NewToolError(call.toolName(), fmt.Sprintf("unsupported reading call %T", call), CodeUnknownTool)
	}
}

// ReadingTools returns the three classroom tools bound to catalog.
func ReadingTools(catalog *curriculum.Catalog) []Tool {
	return []Tool{
		ProgressTool(catalog),
		SightWordsTool(catalog),
		PhonicsTool(catalog),
	}
}

// ProgressTool looks up a child's reading progress and achievements.
func ProgressTool(catalog *curriculum.Catalog) Tool {
	return NewTypedTool(ProgressToolName,
		"Get a child's reading progress, skills and achievements by first name.",
		func(tc *core.ToolContext, in ProgressLookup) (any, error) {
			tc.SetState("learner", strings.TrimSpace(in.Learner))
			return Dispatch(catalog, in)
		})
}

// SightWordsTool returns the sight words of a difficulty tier.
func SightWordsTool(catalog *curriculum.Catalog) Tool {
	return NewTypedTool(SightWordsToolName,
		fmt.Sprintf("Get the ordered sight-word list for a difficulty level (%s).", strings.Join(catalog.TierNames(), ", ")),
		func(_ *core.ToolContext, in SightWordRequest) (any, error) {
			return Dispatch(catalog, in)
		})
}

// PhonicsTool creates a phonics exercise for a letter sound.
func PhonicsTool(catalog *curriculum.Catalog) Tool {
	return NewTypedTool(PhonicsToolName,
		fmt.Sprintf("Create a short phonics exercise with practice words, a sentence and a gentle correction for a letter sound (%s).", strings.Join(catalog.Sounds(), ", ")),
		func(tc *core.ToolContext, in ExerciseRequest) (any, error) {
			tc.SetState("last_phonics_sound", strings.ToLower(strings.TrimSpace(in.Sound)))
			return Dispatch(catalog, in)
		})
}

func containsLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}

	return false
}
