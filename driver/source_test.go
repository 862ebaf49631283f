package driver

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/readaloud/core"
	"github.com/hupe1980/readaloud/voice"
)

// stopRecorder returns its clips one per recording, after stop is closed.
type stopRecorder struct {
	results []error
	calls   int
}

func (r *stopRecorder) Record(_ context.Context, stop <-chan struct{}) (voice.Clip, error) {
	<-stop

	i := r.calls
	r.calls++

	if i < len(r.results) && r.results[i] != nil {
		return voice.Clip{}, r.results[i]
	}

	return voice.Clip{Data: []byte("RIFF"), Format: "wav"}, nil
}

func TestScriptSource(t *testing.T) {
	ctx := context.Background()
	src := NewScriptSource()

	var got []string

	for {
		in, err := src.Next(ctx)
		if err == io.EOF {
			break
		}

		require.NoError(t, err)
		got = append(got, in.Text)
	}

	assert.Equal(t, DefaultDemoQueries, got)
}

func TestTextSource(t *testing.T) {
	ctx := context.Background()

	var out bytes.Buffer

	src := NewTextSource(strings.NewReader("  \nI want the letter B\r\nQUIT\nlast line"), &out)

	in, err := src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, Input{Text: "I want the letter B", Typed: true}, in)

	in, err = src.Next(ctx)
	require.NoError(t, err)
	assert.True(t, in.Quit)

	in, err = src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "last line", in.Text)

	_, err = src.Next(ctx)
	assert.ErrorIs(t, err, io.EOF)

	assert.Equal(t, 5, strings.Count(out.String(), "Child: "))
}

func TestIsQuit(t *testing.T) {
	assert.True(t, IsQuit(" Quit "))
	assert.False(t, IsQuit("quit now"))
}

func TestVoiceSource(t *testing.T) {
	ctx := context.Background()

	var out bytes.Buffer

	rec := &stopRecorder{results: []error{voice.ErrNoAudio}}
	src := NewVoiceSource(strings.NewReader("\n\n\n\nquit\n"), &out, rec)

	in, err := src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("RIFF"), in.Audio.Data)
	assert.Equal(t, 2, rec.calls)

	in, err = src.Next(ctx)
	require.NoError(t, err)
	assert.True(t, in.Quit)

	text := out.String()
	assert.Contains(t, text, "Press Enter to speak to the teacher (or type 'quit' to exit): ")
	assert.Contains(t, text, "Listening... (Press Enter when done speaking)")
	assert.Contains(t, text, "No audio recorded. Please try again.")
}

func TestVoiceSource_Fallback(t *testing.T) {
	src := NewVoiceSource(strings.NewReader("sight words please\n"), io.Discard, &stopRecorder{})

	in, err := src.Fallback().Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sight words please", in.Text)
}

func TestVoiceSource_RecorderFailure(t *testing.T) {
	boom := errors.New("no input device")
	rec := &stopRecorder{results: []error{boom}}
	src := NewVoiceSource(strings.NewReader("\n\n"), io.Discard, rec)

	in, err := src.Next(context.Background())
	require.NoError(t, err)
	assert.True(t, in.Audio.Empty())

	var ve *core.VoiceServiceError
	require.ErrorAs(t, in.VoiceErr, &ve)
	assert.Equal(t, core.SpeechToText, ve.Direction)
	assert.ErrorIs(t, in.VoiceErr, boom)
}
