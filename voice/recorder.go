package voice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// DefaultRecordCommand captures mono 16-bit audio from the default input
// device and writes WAV to stdout.
var DefaultRecordCommand = []string{"sox", "-q", "-d", "-c", "1", "-b", "16", "-t", "wav", "-"}

// CommandRecorder records by running an external capture program until stop
// is closed. The program must write the encoded clip to stdout and exit on
// SIGINT.
type CommandRecorder struct {
	Command []string
	Format  string
}

// NewCommandRecorder returns a recorder using DefaultRecordCommand.
func NewCommandRecorder() *CommandRecorder {
	return &CommandRecorder{Command: DefaultRecordCommand, Format: "wav"}
}

// Record implements Recorder.
func (r *CommandRecorder) Record(ctx context.Context, stop <-chan struct{}) (Clip, error) {
	if len(r.Command) == 0 {
		return Clip{}, errors.New("record command is empty")
	}

	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, r.Command[0], r.Command[1:]...) //nolint:gosec // configured by the operator
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return Clip{}, fmt.Errorf("failed to start recorder: %w", err)
	}

	waitErr := make(chan error, 1)
	go func() { waitErr <- cmd.Wait() }()

	select {
	case err := <-waitErr:
		if err != nil {
			return Clip{}, fmt.Errorf("recorder exited: %w: %s", err, stderr.String())
		}
	case <-stop:
		// An interrupted recorder exits non-zero; what it flushed is the clip.
		_ = cmd.Process.Signal(os.Interrupt)
		<-waitErr
	case <-ctx.Done():
		<-waitErr
		return Clip{}, ctx.Err()
	}

	if stdout.Len() == 0 {
		return Clip{}, ErrNoAudio
	}

	return Clip{Data: stdout.Bytes(), Format: r.Format}, nil
}

var _ Recorder = (*CommandRecorder)(nil)
