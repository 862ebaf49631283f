package voice

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/openai/openai-go"

	oaimodel "github.com/hupe1980/readaloud/model/openai"
)

// DefaultTeacherVoice asks the speech model for a warm classroom delivery.
const DefaultTeacherVoice = "Speak like a warm, patient preschool teacher. Talk slowly and clearly, " +
	"pause between instructions and sound excited about achievements."

// OpenAIOptions configure the OpenAI audio client.
type OpenAIOptions struct {
	APIKey  string
	BaseURL string

	// Voice is the TTS voice (alloy, echo, fable, onyx, nova, shimmer).
	Voice string
	// Speed ranges from 0.25 to 4.0.
	Speed float64
	// SpeechModel is the TTS model.
	SpeechModel string
	// TranscriptionModel is the STT model.
	TranscriptionModel string
	// Language is the ISO-639-1 hint for transcription.
	Language string
	// Format is the encoding of synthesized audio.
	Format string
	// Instructions steer the delivery of models that support them.
	Instructions string
}

// OpenAI implements Transcriber and Synthesizer with the OpenAI audio API.
type OpenAI struct {
	client *openai.Client
	opts   OpenAIOptions
}

// NewOpenAI creates an OpenAI audio client.
func NewOpenAI(optFns ...func(o *OpenAIOptions)) *OpenAI {
	opts := defaultOpenAIOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	client := openai.NewClient(oaimodel.ClientOptions(opts.APIKey, opts.BaseURL)...)

	return &OpenAI{client: &client, opts: opts}
}

// NewOpenAIFromClient wraps an existing client.
func NewOpenAIFromClient(client *openai.Client, optFns ...func(o *OpenAIOptions)) *OpenAI {
	opts := defaultOpenAIOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	return &OpenAI{client: client, opts: opts}
}

func defaultOpenAIOptions() OpenAIOptions {
	return OpenAIOptions{
		Voice:              string(openai.AudioSpeechNewParamsVoiceAlloy),
		Speed:              0.9,
		SpeechModel:        openai.SpeechModelTTS1,
		TranscriptionModel: openai.AudioModelWhisper1,
		Language:           "en",
		Format:             string(openai.AudioSpeechNewParamsResponseFormatWAV),
		Instructions:       DefaultTeacherVoice,
	}
}

// Transcribe implements Transcriber.
func (o *OpenAI) Transcribe(ctx context.Context, clip Clip) (string, error) {
	format := clip.Format
	if format == "" {
		format = "wav"
	}

	params := openai.AudioTranscriptionNewParams{
		File:           openai.File(bytes.NewReader(clip.Data), "speech."+format, "audio/"+format),
		Model:          o.opts.TranscriptionModel,
		ResponseFormat: openai.AudioResponseFormatJSON,
	}

	if o.opts.Language != "" {
		params.Language = openai.String(o.opts.Language)
	}

	resp, err := o.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("transcription failed: %w", err)
	}

	return resp.Text, nil
}

// Synthesize implements Synthesizer.
func (o *OpenAI) Synthesize(ctx context.Context, text string) (Clip, error) {
	params := openai.AudioSpeechNewParams{
		Input:          text,
		Model:          o.opts.SpeechModel,
		Voice:          openai.AudioSpeechNewParamsVoice(o.opts.Voice),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormat(o.opts.Format),
	}

	if o.opts.Speed > 0 {
		params.Speed = openai.Float(o.opts.Speed)
	}

	// tts-1 and tts-1-hd reject instructions.
	if o.opts.Instructions != "" && o.opts.SpeechModel != openai.SpeechModelTTS1 && o.opts.SpeechModel != openai.SpeechModelTTS1HD {
		params.Instructions = openai.String(o.opts.Instructions)
	}

	resp, err := o.client.Audio.Speech.New(ctx, params)
	if err != nil {
		return Clip{}, fmt.Errorf("speech synthesis failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Clip{}, fmt.Errorf("failed to read synthesized audio: %w", err)
	}

	return Clip{Data: data, Format: o.opts.Format}, nil
}

var (
	_ Transcriber = (*OpenAI)(nil)
	_ Synthesizer = (*OpenAI)(nil)
)
