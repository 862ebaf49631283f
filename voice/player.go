package voice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// DefaultPlayCommand plays a WAV clip read from stdin on the default output device.
var DefaultPlayCommand = []string{"play", "-q", "-t", "wav", "-"}

// CommandPlayer pipes clips into an external playback program.
type CommandPlayer struct {
	Command []string
}

// NewCommandPlayer returns a player using DefaultPlayCommand.
func NewCommandPlayer() *CommandPlayer {
	return &CommandPlayer{Command: DefaultPlayCommand}
}

// Play implements Player and blocks until playback finishes.
func (p *CommandPlayer) Play(ctx context.Context, clip Clip) error {
	if clip.Empty() {
		return ErrNoAudio
	}

	if len(p.Command) == 0 {
		return errors.New("play command is empty")
	}

	var stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, p.Command[0], p.Command[1:]...) //nolint:gosec // configured by the operator
	cmd.Stdin = bytes.NewReader(clip.Data)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("playback failed: %w: %s", err, stderr.String())
	}

	return nil
}

// FilePlayer writes each clip to a directory instead of a speaker. It is the
// player of headless runs.
type FilePlayer struct {
	Dir string

	now func() time.Time
}

// NewFilePlayer creates a FilePlayer writing into dir.
func NewFilePlayer(dir string) *FilePlayer {
	return &FilePlayer{Dir: dir, now: time.Now}
}

// Play implements Player.
func (p *FilePlayer) Play(_ context.Context, clip Clip) error {
	if clip.Empty() {
		return ErrNoAudio
	}

	_, err := p.Write(clip)

	return err
}

// Write stores clip and returns its path.
func (p *FilePlayer) Write(clip Clip) (string, error) {
	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create audio dir: %w", err)
	}

	format := clip.Format
	if format == "" {
		format = "wav"
	}

	now := time.Now
	if p.now != nil {
		now = p.now
	}

	path := filepath.Join(p.Dir, fmt.Sprintf("teacher-%d.%s", now().UnixNano(), format))

	if err := os.WriteFile(path, clip.Data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write audio: %w", err)
	}

	return path, nil
}

var (
	_ Player = (*CommandPlayer)(nil)
	_ Player = (*FilePlayer)(nil)
)
