package flow

import (
	"fmt"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hupe1980/readaloud/core"
	"github.com/hupe1980/readaloud/model"
)

var tracer = otel.Tracer("github.com/hupe1980/readaloud/flow")

// BaseFlow is a minimal single-agent flow implementation that supports a
// request -> LLM -> (optional tool loop) cycle with pluggable pre/post processors.
type BaseFlow struct {
	agent              FlowAgent
	executor           FunctionExecutor
	requestProcessors  []RequestProcessor
	responseProcessors []ResponseProcessor
}

// NewBaseFlow creates a flow without processors that runs tools one at a time.
func NewBaseFlow(agent FlowAgent) *BaseFlow {
	return &BaseFlow{
		agent:    agent,
		executor: NewParallelFunctionExecutor(FunctionExecutorConfig{MaxParallel: 1}),
	}
}

// AddRequestProcessor appends a request processor; order of registration defines execution order.
func (f *BaseFlow) AddRequestProcessor(processor RequestProcessor) {
	f.requestProcessors = append(f.requestProcessors, processor)
}

// AddResponseProcessor appends a response processor executed after each model chunk.
func (f *BaseFlow) AddResponseProcessor(processor ResponseProcessor) {
	f.responseProcessors = append(f.responseProcessors, processor)
}

// SetFunctionExecutor replaces the tool executor.
func (f *BaseFlow) SetFunctionExecutor(executor FunctionExecutor) {
	f.executor = executor
}

// Execute launches the flow asynchronously. The channel is closed when a
// final response or an error event has been emitted.
func (f *BaseFlow) Execute(runCtx *core.RunContext) (<-chan core.Event, error) {
	if f.agent.GetLLM() == nil {
		return nil, fmt.Errorf("agent %s has no model", f.agent.GetName())
	}

	out := make(chan core.Event, 100)

	go func() {
		defer close(out)

		for {
			last, ok := f.runOnce(runCtx, out)
			if !ok || last == nil {
				return
			}

			if _, handoff := runCtx.PendingTransfer(); handoff {
				return
			}

			// A function response needs another model round.
			if len(last.GetFunctionResponses()) > 0 {
				continue
			}

			return
		}
	}()

	return out, nil
}

// emit hands ev to the runner, waits for persistence of non-partial events
// and mirrors the event on out.
func (f *BaseFlow) emit(runCtx *core.RunContext, out chan<- core.Event, ev core.Event) error {
	if err := runCtx.EmitEvent(ev); err != nil {
		return err
	}

	if !ev.IsPartial() {
		if err := runCtx.WaitForResume(); err != nil {
			return err
		}
	}

	select {
	case out <- ev:
		return nil
	case <-runCtx.Done():
		return runCtx.Err()
	}
}

// emitError reports a failure as an error event authored by the agent.
func (f *BaseFlow) emitError(runCtx *core.RunContext, out chan<- core.Event, code string, err error) {
	ev := core.NewErrorEvent(runCtx.RunID, f.agent.GetName(), code, err.Error())

	runCtx.LogError("flow.error", "agent", f.agent.GetName(), "code", code, "error", err.Error())

	if emitErr := f.emit(runCtx, out, ev); emitErr != nil {
		runCtx.LogWarn("flow.error.dropped", "agent", f.agent.GetName(), "error", emitErr.Error())
	}
}

// runOnce performs one model round (including any tool executions) and
// returns the last emitted event. ok is false when the flow must stop.
func (f *BaseFlow) runOnce(runCtx *core.RunContext, out chan<- core.Event) (*core.Event, bool) {
	if runCtx.SessionStore != nil {
		if err := runCtx.RefreshSession(); err != nil {
			runCtx.LogWarn("flow.session.refresh_failed", "agent", f.agent.GetName(), "error", err.Error())
		}
	}

	if err := runCtx.Limiter.Increment(); err != nil {
		f.emitError(runCtx, out, ErrorCodeCallLimit, err)
		return nil, false
	}

	req := &model.Request{
		Stream: f.agent.IsStreamingEnabled(),
		Tools:  toolDefinitions(f.agent),
	}

	for _, processor := range f.requestProcessors {
		if err := processor.ProcessRequest(runCtx, req, f.agent); err != nil {
			f.emitError(runCtx, out, ErrorCodeProcessor, fmt.Errorf("request processor %s failed: %w", processor.Name(), err))
			return nil, false
		}
	}

	llm := f.agent.GetLLM()

	ctx, span := tracer.Start(runCtx.Context, "model.generate", trace.WithAttributes(
		attribute.String("agent.name", f.agent.GetName()),
		attribute.String("model.name", llm.Info().Name),
		attribute.String("model.provider", llm.Info().Provider),
		attribute.Int("model.tools", len(req.Tools)),
	))
	defer span.End()

	start := time.Now()
	respCh, errCh := llm.Generate(ctx, *req)

	var final *model.Response

	for resp := range respCh {
		for _, processor := range f.responseProcessors {
			if err := processor.ProcessResponse(runCtx, &resp, f.agent); err != nil {
				f.emitError(runCtx, out, ErrorCodeProcessor, fmt.Errorf("response processor %s failed: %w", processor.Name(), err))
				return nil, false
			}
		}

		if resp.Partial {
			ev := f.newModelEvent(runCtx, resp)
			if err := f.emit(runCtx, out, ev); err != nil {
				return nil, false
			}

			continue
		}

		final = &resp
	}

	if err := <-errCh; err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		runCtx.LogModelCall(llm.Info().Name, 0, time.Since(start), err)
		f.emitError(runCtx, out, ErrorCodeService, err)

		return nil, false
	}

	if final == nil {
		err := fmt.Errorf("model %s returned no final response", llm.Info().Name)
		span.SetStatus(codes.Error, err.Error())
		f.emitError(runCtx, out, ErrorCodeService, err)

		return nil, false
	}

	tokens := 0

	if final.Usage != nil {
		span.SetAttributes(
			attribute.Int("model.tokens.prompt", final.Usage.PromptTokens),
			attribute.Int("model.tokens.completion", final.Usage.CompletionTokens),
		)

		tokens = final.Usage.TotalTokens
	}

	runCtx.LogModelCall(llm.Info().Name, tokens, time.Since(start), nil)

	ev := f.newModelEvent(runCtx, *final)
	if err := f.emit(runCtx, out, ev); err != nil {
		return nil, false
	}

	fnCalls := ev.GetFunctionCalls()
	if len(fnCalls) == 0 {
		return &ev, true
	}

	var (
		last    *core.Event
		emitErr error
	)

	f.executor.Execute(runCtx, f.agent, tools(runCtx, f.agent), fnCalls, func(respEv core.Event) error {
		if emitErr != nil {
			return emitErr
		}

		if err := f.emit(runCtx, out, respEv); err != nil {
			emitErr = err
			return err
		}

		last = &respEv

		return nil
	})

	if emitErr != nil || last == nil {
		return nil, false
	}

	return last, true
}

func (f *BaseFlow) newModelEvent(runCtx *core.RunContext, resp model.Response) core.Event {
	ev := core.NewEvent(runCtx.RunID, f.agent.GetName())
	content := resp.Content
	ev.Content = &content

	partial := resp.Partial
	ev.Partial = &partial

	return ev
}

// toolDefinitions exposes the agent's tools in a stable order.
func toolDefinitions(agent FlowAgent) []model.ToolDefinition {
	registry := agent.GetTools()
	if len(registry) == 0 {
		return nil
	}

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}

	slices.Sort(names)

	defs := make([]model.ToolDefinition, 0, len(names))
	for _, name := range names {
		defs = append(defs, definitionOf(registry[name]))
	}

	return defs
}
