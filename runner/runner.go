package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/hupe1980/readaloud/agent"
	"github.com/hupe1980/readaloud/artifact"
	"github.com/hupe1980/readaloud/core"
	"github.com/hupe1980/readaloud/logging"
	"github.com/hupe1980/readaloud/observability"
	"github.com/hupe1980/readaloud/session"
)

var tracer = otel.Tracer("github.com/hupe1980/readaloud/runner")

var (
	// ErrEmptyInput is returned for blank turn input.
	ErrEmptyInput = errors.New("empty input")
	// ErrHandoffLimit is wrapped when a turn delegates more than MaxHandoffs times.
	ErrHandoffLimit = errors.New("handoff limit exceeded")
	// ErrUnknownHandoff is wrapped when an agent delegates to an agent it is not allowed to.
	ErrUnknownHandoff = errors.New("handoff target not allowed")
	// ErrNoResponse is wrapped when the responding agent produced no text.
	ErrNoResponse = errors.New("agent produced no response")
)

// Options holds dependency + configuration overrides passed to New().
type Options struct {
	// MaxHandoffs bounds delegations per turn.
	MaxHandoffs int
	// MaxModelCalls limits model calls per turn.
	MaxModelCalls int
	// Timeout bounds a whole turn; zero disables it.
	Timeout time.Duration
	// EventBufferSize sets channel buffering for events.
	EventBufferSize int
	// SessionStore persists events, state and turns.
	SessionStore core.SessionStore
	// ArtifactStore holds synthesized audio.
	ArtifactStore core.ArtifactStore
	// Logger receives runner and agent logs.
	Logger logging.Logger
	// Metrics records turn counters; nil records nothing.
	Metrics *observability.Metrics
	// OnEvent observes every event (partial ones included) after persistence.
	OnEvent func(core.Event)
}

// Runner executes turns against a classroom registry: it starts at the root
// agent, follows allowed handoffs, persists every event before the emitting
// agent resumes and assembles the resulting core.Turn. Turns of one session
// must not overlap.
type Runner struct {
	registry *agent.Registry

	maxHandoffs     int
	maxModelCalls   int
	timeout         time.Duration
	eventBufferSize int

	sessionStore  core.SessionStore
	artifactStore core.ArtifactStore
	logger        logging.Logger
	metrics       *observability.Metrics
	onEvent       func(core.Event)
}

// New constructs a Runner with optional overrides.
func New(registry *agent.Registry, optFns ...func(o *Options)) *Runner {
	opts := Options{
		MaxHandoffs:     3,
		MaxModelCalls:   10,
		Timeout:         30 * time.Second,
		EventBufferSize: 16,
		SessionStore:    session.NewInMemoryStore(),
		ArtifactStore:   artifact.NewInMemoryStore(),
		Logger:          logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Runner{
		registry:        registry,
		maxHandoffs:     opts.MaxHandoffs,
		maxModelCalls:   opts.MaxModelCalls,
		timeout:         opts.Timeout,
		eventBufferSize: opts.EventBufferSize,
		sessionStore:    opts.SessionStore,
		artifactStore:   opts.ArtifactStore,
		logger:          opts.Logger,
		metrics:         opts.Metrics,
		onEvent:         opts.OnEvent,
	}
}

// SessionStore returns the store turns are persisted to.
func (r *Runner) SessionStore() core.SessionStore { return r.sessionStore }

// ArtifactStore returns the store audio artifacts are saved to.
func (r *Runner) ArtifactStore() core.ArtifactStore { return r.artifactStore }

// Run executes one turn and returns it. The turn is not appended to the
// session; the caller does that once audio is attached.
//
// Failures of routing or response generation are returned as
// *core.ServiceError. Cancellation of ctx is returned as is.
func (r *Runner) Run(ctx context.Context, sessionID, input string) (*core.Turn, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrEmptyInput
	}

	root, err := r.registry.Root()
	if err != nil {
		return nil, core.NewConfigurationError("agents.root", "%v", err)
	}

	sess, err := r.sessionStore.Create(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	turn := &core.Turn{ID: core.NewID(), Input: input, Started: time.Now()}

	ctx, span := tracer.Start(ctx, "runner.turn")
	defer span.End()

	span.SetAttributes(
		attribute.String("session.id", sessionID),
		attribute.String("turn.id", turn.ID),
	)

	userEvent := core.NewUserMessageEvent(turn.ID, input)
	if err := r.sessionStore.AppendEvent(sessionID, userEvent); err != nil {
		return nil, fmt.Errorf("failed to append user event: %w", err)
	}

	sess.AddEvent(userEvent)

	emit := make(chan core.Event, r.eventBufferSize)
	resume := make(chan struct{}, 1)

	runCtx := core.NewRunContext(ctx, sessionID, turn.ID, *userEvent.Content, r.maxModelCalls,
		emit, resume, sess, r.sessionStore, r.artifactStore, r.logger)

	p := &persister{runner: r, ctx: ctx, sessionID: sessionID, resume: resume, done: make(chan struct{})}
	go p.loop(emit)

	responder, runErr := r.runHops(runCtx, root, turn)

	close(emit)
	<-p.done

	if runErr == nil && p.err != nil {
		runErr = p.err
	}

	if runErr == nil {
		turn.Response, runErr = p.response(responder, turn.ID)
	}

	turn.Responder = responder
	turn.Completed = time.Now()

	r.metrics.RecordTurn(ctx, responder, turn.Duration(), runErr)

	if l, ok := r.logger.(turnLogger); ok {
		l.LogTurn(turn.ID, responder, len(turn.Handoffs), turn.Duration(), runErr)
	}

	span.SetAttributes(
		attribute.String("turn.responder", responder),
		attribute.Int("turn.handoffs", len(turn.Handoffs)),
	)

	if runErr != nil {
		span.RecordError(runErr)
		span.SetStatus(codes.Error, runErr.Error())

		return nil, runErr
	}

	return turn, nil
}

// runHops runs the root agent and follows allowed transfers. It returns the
// name of the last agent that ran.
func (r *Runner) runHops(runCtx *core.RunContext, current core.Agent, turn *core.Turn) (string, error) {
	typ := "triage"

	for {
		name := current.Name()
		runCtx.SwitchAgent(core.AgentInfo{Name: name, Type: typ}, r.registry.Targets(name))

		if err := current.Run(runCtx); err != nil {
			return name, r.classify(runCtx, name, err)
		}

		if err := runCtx.Err(); err != nil {
			return name, r.classify(runCtx, name, err)
		}

		target, ok := runCtx.PendingTransfer()
		if !ok {
			return name, nil
		}

		if !r.registry.CanHandoff(name, target) {
			return name, core.NewServiceError(name, "handoff", fmt.Errorf("%w: %s -> %s", ErrUnknownHandoff, name, target))
		}

		if len(turn.Handoffs) >= r.maxHandoffs {
			return name, core.NewServiceError(name, "handoff", fmt.Errorf("%w: %d", ErrHandoffLimit, r.maxHandoffs))
		}

		next, ok := r.registry.Get(target)
		if !ok {
			return name, core.NewServiceError(name, "handoff", fmt.Errorf("%w: %s", ErrUnknownHandoff, target))
		}

		turn.Handoffs = append(turn.Handoffs, core.Handoff{From: name, To: target})
		r.metrics.RecordHandoff(runCtx.Context, name, target)

		if l, ok := r.logger.(handoffLogger); ok {
			l.LogHandoff(name, target)
		} else {
			runCtx.LogInfo("runner.handoff", "from", name, "to", target)
		}

		current, typ = next, "specialist"
	}
}

// classify maps a run failure onto the error taxonomy. A turn timeout is a
// ServiceError; a cancelled parent context is returned unchanged.
func (r *Runner) classify(runCtx *core.RunContext, name string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return core.NewServiceError(name, "respond", fmt.Errorf("turn timed out after %s: %w", r.timeout, context.DeadlineExceeded))
	}

	if errors.Is(err, context.Canceled) {
		return err
	}

	var (
		svcErr *core.ServiceError
		cfgErr *core.ConfigurationError
	)

	if errors.As(err, &svcErr) || errors.As(err, &cfgErr) {
		return err
	}

	return core.NewServiceError(name, "respond", err)
}

type turnLogger interface {
	LogTurn(turnID, responder string, handoffs int, dur time.Duration, err error)
}

type handoffLogger interface {
	LogHandoff(from, to string)
}

// persister is the runner side of the emit/resume handshake.
type persister struct {
	runner    *Runner
	ctx       context.Context
	sessionID string
	resume    chan<- struct{}
	done      chan struct{}

	mu     sync.Mutex
	events []core.Event
	err    error
}

func (p *persister) loop(emit <-chan core.Event) {
	defer close(p.done)

	for ev := range emit {
		if !ev.IsPartial() {
			if err := p.persist(ev); err != nil && p.err == nil {
				p.err = err
			}

			p.mu.Lock()
			p.events = append(p.events, ev)
			p.mu.Unlock()
		}

		if p.runner.onEvent != nil {
			p.runner.onEvent(ev)
		}

		if !ev.IsPartial() {
			select {
			case p.resume <- struct{}{}:
			case <-p.ctx.Done():
			}
		}
	}
}

func (p *persister) persist(ev core.Event) error {
	store := p.runner.sessionStore

	if err := store.AppendEvent(p.sessionID, ev); err != nil {
		return fmt.Errorf("failed to append event to session: %w", err)
	}

	if len(ev.Actions.StateDelta) > 0 {
		if err := store.ApplyDelta(p.sessionID, ev.Actions.StateDelta); err != nil {
			return fmt.Errorf("failed to apply state delta: %w", err)
		}
	}

	for _, fr := range ev.GetFunctionResponses() {
		p.runner.metrics.RecordToolCall(p.ctx, fr.Name, fr.Error != "")
	}

	return nil
}

// response returns the text of the responder's last final answer.
func (p *persister) response(responder, turnID string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := len(p.events) - 1; i >= 0; i-- {
		ev := p.events[i]
		if ev.Author != responder || ev.InvocationID != turnID || !ev.IsFinalResponse() || ev.IsError() {
			continue
		}

		if text := strings.TrimSpace(ev.Text()); text != "" {
			return text, nil
		}
	}

	return "", core.NewServiceError(responder, "respond", ErrNoResponse)
}
