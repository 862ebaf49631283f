package route

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/hupe1980/readaloud/core"
	"github.com/hupe1980/readaloud/model"
	"github.com/hupe1980/readaloud/tool"
)

var tracer = otel.Tracer("github.com/hupe1980/readaloud/route")

// DefaultRoutingPrompt introduces the candidate list in a routing request.
const DefaultRoutingPrompt = `You route a preschool learner's message to the specialist teacher who should answer it.
Call transfer_to_agent with exactly one specialist when one clearly matches.
Do not call any tool when the message is a greeting, small talk or fits no specialist.`

// ModelClassifier asks a language model to pick a candidate.
//
// The request offers a transfer_to_agent tool whose agent argument is
// restricted to the candidate names. A call naming a candidate selects it;
// a text answer or an unknown name is no match. Model failures are returned
// as a ServiceError.
type ModelClassifier struct {
	llm          model.Model
	prompt       string
	historyLimit int
}

// ModelClassifierOptions configures a ModelClassifier.
type ModelClassifierOptions struct {
	Prompt string
	// HistoryLimit is the number of recent conversation events sent along.
	HistoryLimit int
}

// NewModelClassifier creates a classifier backed by llm.
func NewModelClassifier(llm model.Model, optFns ...func(o *ModelClassifierOptions)) *ModelClassifier {
	opts := ModelClassifierOptions{
		Prompt:       DefaultRoutingPrompt,
		HistoryLimit: 6,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &ModelClassifier{llm: llm, prompt: opts.Prompt, historyLimit: opts.HistoryLimit}
}

// Classify implements Classifier.
func (c *ModelClassifier) Classify(ctx context.Context, input string, history []core.Event, candidates []core.HandoffTarget) (string, bool, error) {
	if len(candidates) == 0 {
		return "", false, nil
	}

	ctx, span := tracer.Start(ctx, "route.classify")
	defer span.End()

	span.SetAttributes(
		attribute.String("model.name", c.llm.Info().Name),
		attribute.Int("route.candidates", len(candidates)),
	)

	transfer := tool.NewTransferToAgentTool(candidates)
	temperature := 0.0

	req := model.Request{
		Instructions: c.instructions(candidates),
		Contents:     c.contents(input, history),
		Temperature:  &temperature,
		Tools: []model.ToolDefinition{{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        transfer.Name(),
				Description: transfer.Description(),
				Parameters:  transfer.Parameters(),
			},
		}},
	}

	respCh, errCh := c.llm.Generate(ctx, req)

	var final *model.Response

	for resp := range respCh {
		if !resp.Partial {
			r := resp
			final = &r
		}
	}

	if err := <-errCh; err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return "", false, core.NewServiceError("", "route", err)
	}

	if final == nil {
		err := errors.New("routing model returned no response")
		span.SetStatus(codes.Error, err.Error())

		return "", false, core.NewServiceError("", "route", err)
	}

	for _, part := range final.Content.Parts {
		fc, ok := part.(core.FunctionCallPart)
		if !ok || fc.FunctionCall.Name != tool.TransferToAgentName {
			continue
		}

		var args struct {
			Agent string `json:"agent"`
		}

		if err := json.Unmarshal([]byte(fc.FunctionCall.Arguments), &args); err != nil {
			continue
		}

		if isCandidate(args.Agent, candidates) {
			span.SetAttributes(attribute.String("route.agent", args.Agent))
			return args.Agent, true, nil
		}
	}

	return "", false, nil
}

func (c *ModelClassifier) instructions(candidates []core.HandoffTarget) string {
	var b strings.Builder

	b.WriteString(c.prompt)
	b.WriteString("\n\nSpecialists:\n")

	for _, cand := range candidates {
		fmt.Fprintf(&b, "- %s: %s\n", cand.Name, cand.Description)
	}

	return b.String()
}

func (c *ModelClassifier) contents(input string, history []core.Event) []core.Content {
	var contents []core.Content

	if c.historyLimit > 0 {
		if len(history) > c.historyLimit {
			history = history[len(history)-c.historyLimit:]
		}

		// Only plain text; tool traffic means nothing to the router.
		for _, ev := range history {
			if text := ev.Text(); text != "" && ev.Content != nil && ev.Content.Role != "tool" && len(ev.GetFunctionCalls()) == 0 {
				contents = append(contents, core.Content{Role: ev.Content.Role, Parts: []core.Part{core.TextPart{Text: text}}})
			}
		}
	}

	return append(contents, core.Content{Role: "user", Parts: []core.Part{core.TextPart{Text: input}}})
}
