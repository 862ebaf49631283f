package flow

import (
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/readaloud/core"
	"github.com/hupe1980/readaloud/tool"
)

// FunctionExecutor executes a batch of function calls and emits one function
// response event per call through emit. Implementations must:
//   - Respect runCtx.Context cancellation
//   - Never panic (recover internally and report the failure inline)
//   - Apply ToolContext accumulated actions to emitted events
//   - Call emit from the calling goroutine only
type FunctionExecutor interface {
	Execute(runCtx *core.RunContext, agent FlowAgent, toolRegistry map[string]tool.Tool, fnCalls []core.FunctionCall, emit func(core.Event) error)
}

// FunctionExecutorConfig configures the default executor.
type FunctionExecutorConfig struct {
	MaxParallel    int  // <1 => one goroutine per call
	LogStartEvents bool // log a start line per function
}

// parallelFunctionExecutor runs calls concurrently up to MaxParallel and
// emits the responses in call order.
type parallelFunctionExecutor struct {
	cfg FunctionExecutorConfig
}

// NewParallelFunctionExecutor constructs a new executor with the given config.
func NewParallelFunctionExecutor(cfg FunctionExecutorConfig) FunctionExecutor {
	return &parallelFunctionExecutor{cfg: cfg}
}

func (e *parallelFunctionExecutor) Execute(
	runCtx *core.RunContext,
	agent FlowAgent,
	toolRegistry map[string]tool.Tool,
	fnCalls []core.FunctionCall,
	emit func(core.Event) error,
) {
	n := len(fnCalls)
	if n == 0 {
		return
	}

	maxPar := e.cfg.MaxParallel
	if maxPar <= 0 || maxPar > n {
		maxPar = n
	}

	results := make([]*core.Event, n)
	batchStart := time.Now()

	var g errgroup.Group
	g.SetLimit(maxPar)

	for i, fc := range fnCalls {
		if runCtx.Err() != nil {
			break
		}

		g.Go(func() error {
			if runCtx.Err() != nil {
				return nil
			}

			ev := e.executeOne(runCtx, agent, toolRegistry, fc)
			results[i] = &ev

			return nil
		})
	}

	_ = g.Wait()

	for i, ev := range results {
		if ev == nil {
			continue
		}

		if err := emit(*ev); err != nil {
			runCtx.LogError("agent.function.emit.error", "function", fnCalls[i].Name, "error", err.Error())
			return
		}
	}

	runCtx.LogDebug(
		"agent.functions.batch.complete",
		"agent", agent.GetName(),
		"count", n,
		"parallelism", maxPar,
		"duration_ms", time.Since(batchStart).Milliseconds(),
	)
}

// executeOne runs a single call and builds its response event. Failures are
// reported inline so the model can tell the learner.
func (e *parallelFunctionExecutor) executeOne(
	runCtx *core.RunContext,
	agent FlowAgent,
	toolRegistry map[string]tool.Tool,
	fc core.FunctionCall,
) core.Event {
	toolCtx := core.NewToolContext(runCtx, fc.ID)

	if e.cfg.LogStartEvents {
		runCtx.LogInfo("agent.function.start", "agent", agent.GetName(), "function", fc.Name, "function_call_id", fc.ID)
	}

	_, span := tracer.Start(runCtx.Context, "tool."+fc.Name, trace.WithAttributes(
		attribute.String("agent.name", agent.GetName()),
		attribute.String("tool.name", fc.Name),
		attribute.String("tool.call_id", fc.ID),
	))
	defer span.End()

	start := time.Now()

	var (
		result any
		err    error
	)

	func() {
		defer func() {
			if r := recover(); r != nil {
				err = panicError(r)
				runCtx.LogError("agent.function.panic", "agent", agent.GetName(), "function", fc.Name, "recover", r)
			}
		}()

		result, err = executeTool(toolRegistry, toolCtx, fc.Name, fc.Arguments)
	}()

	runCtx.LogInfo(
		"agent.function.executed",
		"agent", agent.GetName(),
		"function", fc.Name,
		"duration_ms", time.Since(start).Milliseconds(),
		"error", err != nil,
	)

	respEv := core.NewFunctionResponseEvent(agent.GetName(), fc.ID, fc.Name, result, nil)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		respEv = core.NewFunctionResponseEvent(agent.GetName(), fc.ID, fc.Name, nil, errors.New(tool.InlineMessage(err)))
	}

	respEv.InvocationID = runCtx.RunID
	toolCtx.InternalApplyActions(&respEv)

	return respEv
}

// panicError converts a recovered panic value to an error.
func panicError(r any) error { return &panicErr{val: r, stack: debug.Stack()} }

type panicErr struct {
	val   any
	stack []byte
}

func (p *panicErr) Error() string { return fmt.Sprintf("panic recovered: %v", p.val) }

// executeTool centralizes tool lookup and argument decoding.
func executeTool(toolRegistry map[string]tool.Tool, toolCtx *core.ToolContext, toolName, args string) (any, error) {
	impl, ok := toolRegistry[toolName]
	if !ok {
		return nil, tool.NewToolError(toolName, fmt.Sprintf("tool %s not found", toolName), tool.CodeUnknownTool)
	}

	argMap := map[string]any{}
	if args != "" {
		if err := json.Unmarshal([]byte(args), &argMap); err != nil {
			return nil, tool.NewToolError(toolName, fmt.Sprintf("arguments are not a JSON object: %v", err), tool.CodeValidation)
		}
	}

	return impl.Call(toolCtx, argMap)
}
