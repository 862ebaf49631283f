// Package voice converts between a child's speech and teacher text.
//
// A Pipeline wraps a Transcriber (speech-to-text) and a Synthesizer
// (text-to-speech). Every provider failure surfaces as a
// *core.VoiceServiceError tagged with its direction so callers can fall back
// to text for that turn. Capture and playback live behind the Recorder and
// Player interfaces.
package voice

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/hupe1980/readaloud/core"
	"github.com/hupe1980/readaloud/logging"
	"github.com/hupe1980/readaloud/observability"
)

var tracer = otel.Tracer("github.com/hupe1980/readaloud/voice")

var (
	// ErrNoAudio is returned when a recording captured nothing.
	ErrNoAudio = errors.New("no audio recorded")
	// ErrEmptyTranscript is wrapped when speech-to-text heard no words.
	ErrEmptyTranscript = errors.New("transcript is empty")
	// ErrEmptyText is returned when there is nothing to speak.
	ErrEmptyText = errors.New("nothing to synthesize")
)

// Clip is an encoded audio recording.
type Clip struct {
	Data   []byte
	Format string
}

// Empty reports whether the clip holds no audio.
func (c Clip) Empty() bool { return len(c.Data) == 0 }

// Transcriber turns recorded speech into text.
type Transcriber interface {
	Transcribe(ctx context.Context, clip Clip) (string, error)
}

// Synthesizer turns text into speech.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (Clip, error)
}

// Recorder captures one clip. Recording ends when stop is closed or ctx is done.
type Recorder interface {
	Record(ctx context.Context, stop <-chan struct{}) (Clip, error)
}

// Player plays a synthesized clip.
type Player interface {
	Play(ctx context.Context, clip Clip) error
}

// Options configure a Pipeline.
type Options struct {
	Logger  logging.Logger
	Metrics *observability.Metrics
}

// Pipeline is the voice boundary of a session.
type Pipeline struct {
	stt     Transcriber
	tts     Synthesizer
	logger  logging.Logger
	metrics *observability.Metrics
}

// NewPipeline creates a Pipeline. Either side may be shared by one provider client.
func NewPipeline(stt Transcriber, tts Synthesizer, optFns ...func(o *Options)) *Pipeline {
	opts := Options{Logger: logging.NoOpLogger{}}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Pipeline{stt: stt, tts: tts, logger: opts.Logger, metrics: opts.Metrics}
}

// SpeechToText transcribes clip. An empty clip returns ErrNoAudio unwrapped;
// provider failures and empty transcripts are VoiceServiceErrors.
func (p *Pipeline) SpeechToText(ctx context.Context, clip Clip) (string, error) {
	if clip.Empty() {
		return "", ErrNoAudio
	}

	var text string

	err := p.call(ctx, core.SpeechToText, len(clip.Data), func(ctx context.Context) error {
		if p.stt == nil {
			return errors.New("no transcriber configured")
		}

		out, err := p.stt.Transcribe(ctx, clip)
		if err != nil {
			return err
		}

		text = strings.TrimSpace(out)
		if text == "" {
			return ErrEmptyTranscript
		}

		return nil
	})

	return text, err
}

// TextToSpeech synthesizes text. Provider failures and empty audio are
// VoiceServiceErrors.
func (p *Pipeline) TextToSpeech(ctx context.Context, text string) (Clip, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Clip{}, ErrEmptyText
	}

	var clip Clip

	err := p.call(ctx, core.TextToSpeech, len(text), func(ctx context.Context) error {
		if p.tts == nil {
			return errors.New("no synthesizer configured")
		}

		out, err := p.tts.Synthesize(ctx, text)
		if err != nil {
			return err
		}

		if out.Empty() {
			return ErrNoAudio
		}

		clip = out

		return nil
	})

	return clip, err
}

func (p *Pipeline) call(ctx context.Context, dir core.VoiceDirection, size int, fn func(context.Context) error) error {
	ctx, span := tracer.Start(ctx, "voice."+string(dir))
	defer span.End()

	span.SetAttributes(attribute.Int("voice.input_size", size))

	start := time.Now()
	err := fn(ctx)

	p.metrics.RecordVoice(ctx, string(dir), err)

	if l, ok := p.logger.(voiceLogger); ok {
		l.LogVoice(string(dir), size, time.Since(start), err)
	}

	if err == nil {
		return nil
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	if errors.Is(err, context.Canceled) {
		return err
	}

	return core.NewVoiceServiceError(dir, err)
}

type voiceLogger interface {
	LogVoice(direction string, bytes int, dur time.Duration, err error)
}
