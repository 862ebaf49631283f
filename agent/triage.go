package agent

import (
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/hupe1980/readaloud/core"
	"github.com/hupe1980/readaloud/flow"
	"github.com/hupe1980/readaloud/model"
	"github.com/hupe1980/readaloud/route"
)

var tracer = otel.Tracer("github.com/hupe1980/readaloud/agent")

// DefaultGreeting answers a turn no specialist matches when the triage agent
// has no model of its own.
const DefaultGreeting = "Hello, reading friend! Would you like to practice letter sounds, sight words, or hear how you are doing?"

// TriageOptions configures a TriageAgent.
type TriageOptions struct {
	Description string
	Instruction Instruction
	Greeting    string
	// OutputKey stores direct answers in session state.
	OutputKey          string
	MaxHistoryMessages int
}

// TriageAgent is the entry point of every turn. It asks a Classifier which
// of its handoff targets fits the input. On a clear match it emits a
// handoff event without content; otherwise it answers the turn itself, with
// its own model when it has one and a fixed greeting when it does not.
type TriageAgent struct {
	BaseAgent
	classifier route.Classifier
	responder  *ModelAgent
	greeting   string
}

// NewTriageAgent creates a triage agent. llm may be nil; direct answers then
// fall back to the greeting.
func NewTriageAgent(name string, classifier route.Classifier, llm model.Model, optFns ...func(o *TriageOptions)) *TriageAgent {
	opts := TriageOptions{
		Description:        "Greets the learner and routes each request to a specialist",
		Instruction:        Compose(PersonaInstruction(DefaultMaxResponseChars), NewInstructionFromText(TriageRole)),
		Greeting:           DefaultGreeting,
		MaxHistoryMessages: 20,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	base := NewBaseAgent(name)
	base.SetDescription(opts.Description)

	t := &TriageAgent{
		BaseAgent:  base,
		classifier: classifier,
		greeting:   opts.Greeting,
	}

	if llm != nil {
		t.responder = NewModelAgent(name, llm, func(o *ModelAgentOptions) {
			o.Instruction = opts.Instruction
			o.OutputKey = opts.OutputKey
			o.MaxHistoryMessages = opts.MaxHistoryMessages
		})
	}

	return t
}

// Run implements core.Agent.
func (t *TriageAgent) Run(runCtx *core.RunContext) error {
	input := contentText(runCtx.UserContent)

	ctx, span := tracer.Start(runCtx.Context, "agent.triage")
	defer span.End()

	span.SetAttributes(
		attribute.String("agent.name", t.Name()),
		attribute.Int("route.candidates", len(runCtx.HandoffTargets)),
	)

	var (
		target string
		ok     bool
	)

	if t.classifier != nil && len(runCtx.HandoffTargets) > 0 {
		var err error

		target, ok, err = t.classifier.Classify(ctx, input, priorTurns(runCtx), runCtx.HandoffTargets)
		if err != nil {
			if ctxErr := runCtx.Err(); ctxErr != nil {
				return ctxErr
			}

			span.RecordError(err)

			var svcErr *core.ServiceError
			if errors.As(err, &svcErr) {
				if svcErr.Agent == "" {
					svcErr.Agent = t.Name()
				}

				return svcErr
			}

			return core.NewServiceError(t.Name(), "route", err)
		}
	}

	if ok && runCtx.CanHandoffTo(target) {
		span.SetAttributes(attribute.String("route.agent", target))
		runCtx.LogInfo("agent.triage.handoff", "agent", t.Name(), "target", target)

		if err := runCtx.EmitEvent(core.NewHandoffEvent(runCtx.RunID, t.Name(), target)); err != nil {
			return err
		}

		return runCtx.WaitForResume()
	}

	runCtx.LogDebug("agent.triage.direct", "agent", t.Name())

	if t.responder != nil {
		return runFlow(runCtx, t.Name(), flow.NewSingleAgentFlow(t.responder))
	}

	ev := core.NewMessageEvent(t.Name(), t.greeting)
	if err := runCtx.EmitEvent(ev); err != nil {
		return err
	}

	return runCtx.WaitForResume()
}

// priorTurns returns the conversation of earlier turns only.
func priorTurns(runCtx *core.RunContext) []core.Event {
	history := runCtx.GetConversationHistory()
	out := make([]core.Event, 0, len(history))

	for _, ev := range history {
		if ev.InvocationID != runCtx.RunID {
			out = append(out, ev)
		}
	}

	return out
}

func contentText(c core.Content) string {
	var text string

	for _, p := range c.Parts {
		if tp, ok := p.(core.TextPart); ok {
			text += tp.Text
		}
	}

	return text
}

var _ core.Agent = (*TriageAgent)(nil)
