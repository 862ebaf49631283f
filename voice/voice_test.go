package voice

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/readaloud/core"
)

type mockTranscriber struct {
	mock.Mock
}

func (m *mockTranscriber) Transcribe(ctx context.Context, clip Clip) (string, error) {
	args := m.Called(ctx, clip)
	return args.String(0), args.Error(1)
}

type mockSynthesizer struct {
	mock.Mock
}

func (m *mockSynthesizer) Synthesize(ctx context.Context, text string) (Clip, error) {
	args := m.Called(ctx, text)
	return args.Get(0).(Clip), args.Error(1)
}

func TestPipeline_SpeechToText(t *testing.T) {
	clip := Clip{Data: []byte("RIFF"), Format: "wav"}

	stt := new(mockTranscriber)
	stt.On("Transcribe", mock.Anything, clip).Return("  Let's work on the letter M ", nil).Once()

	p := NewPipeline(stt, nil)

	text, err := p.SpeechToText(context.Background(), clip)
	require.NoError(t, err)
	assert.Equal(t, "Let's work on the letter M", text)
	stt.AssertExpectations(t)
}

func TestPipeline_SpeechToTextFailures(t *testing.T) {
	clip := Clip{Data: []byte("RIFF")}

	t.Run("empty clip", func(t *testing.T) {
		stt := new(mockTranscriber)

		_, err := NewPipeline(stt, nil).SpeechToText(context.Background(), Clip{})
		assert.ErrorIs(t, err, ErrNoAudio)

		var ve *core.VoiceServiceError
		assert.False(t, errors.As(err, &ve))
		stt.AssertNotCalled(t, "Transcribe", mock.Anything, mock.Anything)
	})

	t.Run("provider error", func(t *testing.T) {
		stt := new(mockTranscriber)
		stt.On("Transcribe", mock.Anything, clip).Return("", errors.New("503"))

		_, err := NewPipeline(stt, nil).SpeechToText(context.Background(), clip)

		var ve *core.VoiceServiceError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, core.SpeechToText, ve.Direction)
	})

	t.Run("silence", func(t *testing.T) {
		stt := new(mockTranscriber)
		stt.On("Transcribe", mock.Anything, clip).Return("   ", nil)

		_, err := NewPipeline(stt, nil).SpeechToText(context.Background(), clip)

		var ve *core.VoiceServiceError
		require.ErrorAs(t, err, &ve)
		assert.ErrorIs(t, err, ErrEmptyTranscript)
	})

	t.Run("no transcriber", func(t *testing.T) {
		_, err := NewPipeline(nil, nil).SpeechToText(context.Background(), clip)

		var ve *core.VoiceServiceError
		assert.ErrorAs(t, err, &ve)
	})
}

func TestPipeline_TextToSpeech(t *testing.T) {
	tts := new(mockSynthesizer)
	tts.On("Synthesize", mock.Anything, "Great job!").Return(Clip{Data: []byte{1, 2, 3}, Format: "wav"}, nil).Once()

	clip, err := NewPipeline(nil, tts).TextToSpeech(context.Background(), " Great job! ")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, clip.Data)
	tts.AssertExpectations(t)
}

func TestPipeline_TextToSpeechFailures(t *testing.T) {
	t.Run("provider error", func(t *testing.T) {
		tts := new(mockSynthesizer)
		tts.On("Synthesize", mock.Anything, "hi").Return(Clip{}, errors.New("quota"))

		_, err := NewPipeline(nil, tts).TextToSpeech(context.Background(), "hi")

		var ve *core.VoiceServiceError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, core.TextToSpeech, ve.Direction)
	})

	t.Run("empty audio", func(t *testing.T) {
		tts := new(mockSynthesizer)
		tts.On("Synthesize", mock.Anything, "hi").Return(Clip{}, nil)

		_, err := NewPipeline(nil, tts).TextToSpeech(context.Background(), "hi")

		var ve *core.VoiceServiceError
		require.ErrorAs(t, err, &ve)
		assert.ErrorIs(t, err, ErrNoAudio)
	})

	t.Run("empty text", func(t *testing.T) {
		_, err := NewPipeline(nil, new(mockSynthesizer)).TextToSpeech(context.Background(), " ")
		assert.ErrorIs(t, err, ErrEmptyText)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		tts := new(mockSynthesizer)
		tts.On("Synthesize", mock.Anything, "hi").Return(Clip{}, context.Canceled)

		_, err := NewPipeline(nil, tts).TextToSpeech(ctx, "hi")
		assert.ErrorIs(t, err, context.Canceled)

		var ve *core.VoiceServiceError
		assert.False(t, errors.As(err, &ve))
	})
}
