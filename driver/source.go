package driver

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hupe1980/readaloud/core"
	"github.com/hupe1980/readaloud/voice"
)

// QuitCommand ends a session.
const QuitCommand = "quit"

// DefaultDemoQueries is the scripted demonstration.
var DefaultDemoQueries = []string{
	"Hi! I want to practice the letter B sound",
	"Can you check Emma's reading progress?",
	"I need help with sight words for beginners",
	"Let's work on phonics with the letter M",
}

// Input is one child input. Exactly one of Text, Audio, Quit or VoiceErr is set.
type Input struct {
	Text  string
	Audio voice.Clip
	Quit  bool
	// Typed marks text the child already sees on the terminal.
	Typed bool
	// VoiceErr is set when the clip could not be captured. The driver asks
	// for typed input instead.
	VoiceErr error
}

// Source yields inputs. io.EOF ends the session like Quit does.
type Source interface {
	Next(ctx context.Context) (Input, error)
}

// IsQuit reports whether line is the quit command.
func IsQuit(line string) bool {
	return strings.EqualFold(strings.TrimSpace(line), QuitCommand)
}

// ScriptSource replays a fixed list of queries.
type ScriptSource struct {
	queries []string
	next    int
}

// NewScriptSource creates a ScriptSource; with no queries it replays DefaultDemoQueries.
func NewScriptSource(queries ...string) *ScriptSource {
	if len(queries) == 0 {
		queries = DefaultDemoQueries
	}

	return &ScriptSource{queries: queries}
}

// Next implements Source.
func (s *ScriptSource) Next(ctx context.Context) (Input, error) {
	if err := ctx.Err(); err != nil {
		return Input{}, err
	}

	if s.next >= len(s.queries) {
		return Input{}, io.EOF
	}

	q := s.queries[s.next]
	s.next++

	return Input{Text: q}, nil
}

// lineReader reads lines from a terminal. Reads cannot be interrupted, so a
// blocked read outlives a cancelled ctx.
type lineReader struct {
	r *bufio.Reader
}

func newLineReader(r io.Reader) *lineReader {
	if br, ok := r.(*bufio.Reader); ok {
		return &lineReader{r: br}
	}

	return &lineReader{r: bufio.NewReader(r)}
}

func (l *lineReader) readLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	line, err := l.r.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}

	return strings.TrimRight(line, "\r\n"), nil
}

// TextSource reads typed questions line by line.
type TextSource struct {
	lines  *lineReader
	out    io.Writer
	prompt string
}

// NewTextSource creates a TextSource reading from in and prompting on out.
func NewTextSource(in io.Reader, out io.Writer) *TextSource {
	return &TextSource{lines: newLineReader(in), out: out, prompt: "Child: "}
}

// Next implements Source. Blank lines are skipped.
func (s *TextSource) Next(ctx context.Context) (Input, error) {
	for {
		if s.out != nil {
			fmt.Fprint(s.out, s.prompt)
		}

		line, err := s.lines.readLine(ctx)
		if err != nil {
			return Input{}, err
		}

		if IsQuit(line) {
			return Input{Quit: true}, nil
		}

		if text := strings.TrimSpace(line); text != "" {
			return Input{Text: text, Typed: true}, nil
		}
	}
}

// VoiceSource records a clip between two presses of Enter.
type VoiceSource struct {
	lines    *lineReader
	out      io.Writer
	recorder voice.Recorder
}

// NewVoiceSource creates a VoiceSource.
func NewVoiceSource(in io.Reader, out io.Writer, recorder voice.Recorder) *VoiceSource {
	return &VoiceSource{lines: newLineReader(in), out: out, recorder: recorder}
}

// Fallback returns a TextSource sharing the same input, for turns where
// speech-to-text failed.
func (s *VoiceSource) Fallback() *TextSource {
	return &TextSource{lines: s.lines, out: s.out, prompt: "Please type your question instead: "}
}

// Next implements Source. Typing anything other than quit before Enter is
// ignored; an empty recording is retried. A failing recorder yields an Input
// carrying a *core.VoiceServiceError.
func (s *VoiceSource) Next(ctx context.Context) (Input, error) {
	for {
		fmt.Fprint(s.out, "Press Enter to speak to the teacher (or type 'quit' to exit): ")

		line, err := s.lines.readLine(ctx)
		if err != nil {
			return Input{}, err
		}

		if IsQuit(line) {
			return Input{Quit: true}, nil
		}

		fmt.Fprintln(s.out, "Listening... (Press Enter when done speaking)")

		clip, err := s.record(ctx)
		if errors.Is(err, voice.ErrNoAudio) {
			fmt.Fprintln(s.out, "No audio recorded. Please try again.")
			continue
		}

		if err != nil {
			if ctx.Err() != nil {
				return Input{}, ctx.Err()
			}

			return Input{VoiceErr: core.NewVoiceServiceError(core.SpeechToText, err)}, nil
		}

		return Input{Audio: clip}, nil
	}
}

func (s *VoiceSource) record(ctx context.Context) (voice.Clip, error) {
	stop := make(chan struct{})
	readErr := make(chan error, 1)

	go func() {
		_, err := s.lines.readLine(ctx)
		close(stop)
		readErr <- err
	}()

	clip, err := s.recorder.Record(ctx, stop)

	// Wait for Enter even when the recorder failed early so the reader
	// goroutine never races the next prompt.
	var rerr error

	select {
	case rerr = <-readErr:
	case <-ctx.Done():
		return voice.Clip{}, ctx.Err()
	}

	if err != nil {
		return voice.Clip{}, err
	}

	if rerr != nil && !errors.Is(rerr, io.EOF) {
		return voice.Clip{}, rerr
	}

	return clip, nil
}

var (
	_ Source = (*ScriptSource)(nil)
	_ Source = (*TextSource)(nil)
	_ Source = (*VoiceSource)(nil)
)
