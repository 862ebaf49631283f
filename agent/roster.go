package agent

import (
	"github.com/hupe1980/readaloud/curriculum"
	"github.com/hupe1980/readaloud/model"
	"github.com/hupe1980/readaloud/route"
	"github.com/hupe1980/readaloud/tool"
)

// Classroom agent names.
const (
	MainTeacherName       = "MainTeacher"
	PhonicsTeacherName    = "PhonicsTeacher"
	SightWordsTeacherName = "SightWordsTeacher"
	ProgressTrackerName   = "ProgressTracker"
)

// SpecialistOptions tunes the specialists built by the roster constructors.
type SpecialistOptions struct {
	MaxResponseChars int
	EnableStreaming  bool
}

func specialist(name, description, role string, llm model.Model, t tool.Tool, keywords []string, optFns []func(o *SpecialistOptions)) *ModelAgent {
	opts := SpecialistOptions{MaxResponseChars: DefaultMaxResponseChars}

	for _, fn := range optFns {
		fn(&opts)
	}

	return NewModelAgent(name, llm, func(o *ModelAgentOptions) {
		o.Description = description
		o.Keywords = keywords
		o.Instruction = Compose(
			PersonaInstruction(opts.MaxResponseChars),
			NewInstructionFromText(role),
			HandoffInstruction(),
		)
		o.Tools = []tool.Tool{t}
		o.EnableStreaming = opts.EnableStreaming
	})
}

// NewPhonicsTeacher builds the letter-sound specialist.
func NewPhonicsTeacher(llm model.Model, catalog *curriculum.Catalog, optFns ...func(o *SpecialistOptions)) *ModelAgent {
	return specialist(
		PhonicsTeacherName,
		"Specialist for letter sounds, phonics and pronunciation practice",
		PhonicsRole, llm, tool.PhonicsTool(catalog),
		[]string{"phonics", "letter", "sound", "pronounce", "pronunciation", "blend", "alphabet", "rhyme"},
		optFns,
	)
}

// NewSightWordsTeacher builds the sight-word specialist.
func NewSightWordsTeacher(llm model.Model, catalog *curriculum.Catalog, optFns ...func(o *SpecialistOptions)) *ModelAgent {
	return specialist(
		SightWordsTeacherName,
		"Specialist for sight words and high-frequency word recognition",
		SightWordsRole, llm, tool.SightWordsTool(catalog),
		[]string{"sight word", "high frequency", "word list", "common word", "recognize"},
		optFns,
	)
}

// NewProgressTracker builds the progress specialist.
func NewProgressTracker(llm model.Model, catalog *curriculum.Catalog, optFns ...func(o *SpecialistOptions)) *ModelAgent {
	return specialist(
		ProgressTrackerName,
		"Specialist for tracking reading progress and celebrating achievements",
		ProgressRole, llm, tool.ProgressTool(catalog),
		[]string{"progress", "level", "milestone", "achievement", "how am i doing", "celebrate"},
		optFns,
	)
}

// NewMainTeacher builds the triage agent of the classroom.
func NewMainTeacher(classifier route.Classifier, llm model.Model, maxResponseChars int) *TriageAgent {
	return NewTriageAgent(MainTeacherName, classifier, llm, func(o *TriageOptions) {
		o.Instruction = Compose(PersonaInstruction(maxResponseChars), NewInstructionFromText(TriageRole))
	})
}

// ClassroomOptions configures NewClassroom.
type ClassroomOptions struct {
	// Classifier routes triage; the keyword classifier when nil.
	Classifier route.Classifier
	// TriageModel answers turns no specialist matches. May be nil.
	TriageModel      model.Model
	MaxResponseChars int
	EnableStreaming  bool
	// ChainedHandoffs lets each specialist hand off to the other two.
	ChainedHandoffs bool
}

// NewClassroom registers the main teacher and the three specialists. The
// main teacher is the root and may hand off to every specialist.
func NewClassroom(llm model.Model, catalog *curriculum.Catalog, optFns ...func(o *ClassroomOptions)) (*Registry, error) {
	opts := ClassroomOptions{MaxResponseChars: DefaultMaxResponseChars}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Classifier == nil {
		opts.Classifier = route.NewKeywordClassifier()
	}

	tune := func(o *SpecialistOptions) {
		o.MaxResponseChars = opts.MaxResponseChars
		o.EnableStreaming = opts.EnableStreaming
	}

	specialists := []*ModelAgent{
		NewPhonicsTeacher(llm, catalog, tune),
		NewSightWordsTeacher(llm, catalog, tune),
		NewProgressTracker(llm, catalog, tune),
	}

	r := NewRegistry()

	names := make([]string, len(specialists))
	for i, s := range specialists {
		names[i] = s.Name()
	}

	r.Register(NewMainTeacher(opts.Classifier, opts.TriageModel, opts.MaxResponseChars), names...)
	r.SetRoot(MainTeacherName)

	for _, s := range specialists {
		var targets []string

		if opts.ChainedHandoffs {
			for _, n := range names {
				if n != s.Name() {
					targets = append(targets, n)
				}
			}
		}

		r.Register(s, targets...)
	}

	if err := r.Validate(); err != nil {
		return nil, err
	}

	return r, nil
}
