package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/hupe1980/readaloud/core"
	"github.com/hupe1980/readaloud/logging"
	"github.com/hupe1980/readaloud/runner"
	"github.com/hupe1980/readaloud/voice"
)

var tracer = otel.Tracer("github.com/hupe1980/readaloud/driver")

// ErrTooManyFailures is returned when consecutive turns keep failing.
var ErrTooManyFailures = errors.New("too many consecutive failed turns")

// TurnRunner executes one turn. *runner.Runner implements it.
type TurnRunner interface {
	Run(ctx context.Context, sessionID, input string) (*core.Turn, error)
	SessionStore() core.SessionStore
	ArtifactStore() core.ArtifactStore
}

// Options configure a Driver.
type Options struct {
	// SessionID names the session; a new id when empty.
	SessionID string
	// Presenter shows the transcript; output is discarded when nil.
	Presenter Presenter
	// Voice converts speech; nil disables both directions.
	Voice *voice.Pipeline
	// Player plays synthesized answers; nil keeps audio in the artifact store only.
	Player voice.Player
	// Speak synthesizes every answer.
	Speak bool
	// Fallback supplies typed input when speech-to-text fails.
	Fallback Source
	// MaxConsecutiveErrors ends the session after that many failed turns in a row; zero never ends it.
	MaxConsecutiveErrors int
	// Logger receives driver logs.
	Logger logging.Logger
	// OnStateChange observes every transition.
	OnStateChange func(from, to State)
}

// Driver is the Session Driver: it takes input from a Source, runs it as a
// turn, presents and optionally speaks the answer and appends the completed
// turn to the session. Turns run strictly one after another.
type Driver struct {
	runner    TurnRunner
	sessionID string

	presenter     Presenter
	voice         *voice.Pipeline
	player        voice.Player
	speak         bool
	fallback      Source
	maxErrors     int
	logger        logging.Logger
	onStateChange func(from, to State)

	state    State
	failures int
	turns    []core.Turn
}

// New creates a Driver.
func New(r TurnRunner, optFns ...func(o *Options)) *Driver {
	opts := Options{
		MaxConsecutiveErrors: 3,
		Logger:               logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.SessionID == "" {
		opts.SessionID = core.NewID()
	}

	if opts.Presenter == nil {
		opts.Presenter = NewConsolePresenter(io.Discard)
	}

	return &Driver{
		runner:        r,
		sessionID:     opts.SessionID,
		presenter:     opts.Presenter,
		voice:         opts.Voice,
		player:        opts.Player,
		speak:         opts.Speak,
		fallback:      opts.Fallback,
		maxErrors:     opts.MaxConsecutiveErrors,
		logger:        opts.Logger,
		onStateChange: opts.OnStateChange,
		state:         AwaitingInput,
	}
}

// SessionID returns the session the driver appends turns to.
func (d *Driver) SessionID() string { return d.sessionID }

// State returns the current state.
func (d *Driver) State() State { return d.state }

// Turns returns the turns completed so far.
func (d *Driver) Turns() []core.Turn {
	out := make([]core.Turn, len(d.turns))
	copy(out, d.turns)

	return out
}

// Run drives the session until the source is exhausted, the child quits or a
// fatal error occurs. A Driver may run several sources one after another on
// the same session; Run on a terminated driver returns immediately.
func (d *Driver) Run(ctx context.Context, src Source) error {
	if d.state == Terminated {
		return nil
	}

	for {
		in, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			// An exhausted source ends this run, not the session.
			return nil
		}

		if err != nil {
			return err
		}

		if in.Quit {
			d.terminate()
			return nil
		}

		if err := d.turn(ctx, in); err != nil {
			if errors.Is(err, ErrTooManyFailures) {
				d.terminate()
			}

			return err
		}

		if d.state == Terminated {
			return nil
		}
	}
}

// Close terminates the session.
func (d *Driver) Close() {
	if d.state != Terminated {
		d.terminate()
	}
}

func (d *Driver) terminate() {
	d.transition(Terminated)
	d.presenter.Goodbye()
}

// turn runs one input to completion. Only fatal errors are returned.
func (d *Driver) turn(ctx context.Context, in Input) error {
	ctx, span := tracer.Start(ctx, "driver.turn")
	defer span.End()

	text, fromVoice, err := d.inputText(ctx, in)
	if err != nil || text == "" {
		return err
	}

	if !in.Typed {
		d.presenter.Child(text, fromVoice)
	}

	d.transition(Routing)

	turn, err := d.runner.Run(ctx, d.sessionID, text)
	if err != nil {
		d.transition(AwaitingInput)
		return d.failed(ctx, err)
	}

	d.failures = 0
	turn.FromVoice = fromVoice

	d.transition(Responding)

	span.SetAttributes(
		attribute.String("turn.id", turn.ID),
		attribute.String("turn.responder", turn.Responder),
	)

	if d.speak {
		d.say(ctx, turn)
	}

	d.presenter.Teacher(*turn)

	if err := d.runner.SessionStore().AppendTurn(d.sessionID, *turn); err != nil {
		return fmt.Errorf("failed to append turn: %w", err)
	}

	d.turns = append(d.turns, *turn)
	d.transition(AwaitingInput)

	return nil
}

// inputText resolves the text of in, transcribing audio and falling back to
// typed input when speech-to-text fails.
func (d *Driver) inputText(ctx context.Context, in Input) (string, bool, error) {
	if in.VoiceErr != nil {
		d.logger.Warn("driver.record_failed", "session", d.sessionID, "error", in.VoiceErr)
		d.presenter.Notice("I couldn't hear that clearly.")

		return d.fallbackText(ctx)
	}

	if in.Audio.Empty() {
		return in.Text, false, nil
	}

	if d.voice == nil {
		d.presenter.Notice("Voice input is not available.")
		return d.fallbackText(ctx)
	}

	d.presenter.Notice("Teacher is thinking...")

	text, err := d.voice.SpeechToText(ctx, in.Audio)
	if err == nil {
		return text, true, nil
	}

	var ve *core.VoiceServiceError
	if !errors.As(err, &ve) {
		if errors.Is(err, voice.ErrNoAudio) {
			d.presenter.Notice("No audio recorded. Please try again.")
			return "", false, nil
		}

		return "", false, err
	}

	d.logger.Warn("driver.stt_failed", "session", d.sessionID, "error", err)
	d.presenter.Notice("I couldn't hear that clearly.")

	return d.fallbackText(ctx)
}

func (d *Driver) fallbackText(ctx context.Context) (string, bool, error) {
	if d.fallback == nil {
		return "", false, nil
	}

	in, err := d.fallback.Next(ctx)
	if errors.Is(err, io.EOF) {
		return "", false, nil
	}

	if err != nil {
		return "", false, err
	}

	if in.Quit {
		d.terminate()
		return "", false, nil
	}

	return in.Text, false, nil
}

// say synthesizes the answer, stores it and plays it. Any voice failure only
// marks the turn as AudioSkipped.
func (d *Driver) say(ctx context.Context, turn *core.Turn) {
	if d.voice == nil {
		turn.AudioSkipped = true
		return
	}

	clip, err := d.voice.TextToSpeech(ctx, turn.Response)
	if err != nil {
		d.logger.Warn("driver.tts_failed", "session", d.sessionID, "turn", turn.ID, "error", err)
		turn.AudioSkipped = true

		return
	}

	format := clip.Format
	if format == "" {
		format = "wav"
	}

	id := fmt.Sprintf("turn-%s.%s", turn.ID, format)

	if err := d.runner.ArtifactStore().Save(d.sessionID, id, clip.Data); err != nil {
		d.logger.Warn("driver.audio_store_failed", "session", d.sessionID, "error", err)
	} else {
		turn.AudioArtifact = id
	}

	if d.player == nil {
		return
	}

	start := time.Now()
	if err := d.player.Play(ctx, clip); err != nil {
		d.logger.Warn("driver.playback_failed", "session", d.sessionID, "error", err)
		return
	}

	d.logger.Debug("driver.played", "turn", turn.ID, "duration", time.Since(start))
}

// failed reports a turn failure. ServiceErrors keep the session alive until
// too many happen in a row; cancellation and configuration errors are fatal.
func (d *Driver) failed(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return err
	}

	if errors.Is(err, runner.ErrEmptyInput) {
		return nil
	}

	var cfgErr *core.ConfigurationError
	if errors.As(err, &cfgErr) {
		return err
	}

	d.failures++
	d.logger.Error("driver.turn_failed", "session", d.sessionID, "consecutive", d.failures, "error", err)
	d.presenter.Failure(err)

	if d.maxErrors > 0 && d.failures >= d.maxErrors {
		return fmt.Errorf("%w: %d", ErrTooManyFailures, d.failures)
	}

	return nil
}

func (d *Driver) transition(next State) {
	if d.state == next {
		return
	}

	if !d.state.allowed(next) {
		d.logger.Warn("driver.invalid_transition", "from", d.state.String(), "to", next.String())
		return
	}

	prev := d.state
	d.state = next

	if d.onStateChange != nil {
		d.onStateChange(prev, next)
	}
}
