package driver

import (
	"fmt"
	"io"
	"strings"

	"github.com/hupe1980/readaloud/core"
)

// GoodbyeMessage is shown when a session terminates.
const GoodbyeMessage = "Goodbye! Keep practicing your reading!"

// Presenter shows a session to the child.
type Presenter interface {
	Child(text string, fromVoice bool)
	Teacher(turn core.Turn)
	Notice(msg string)
	Failure(err error)
	Goodbye()
}

// ConsolePresenter writes a session transcript to a terminal.
type ConsolePresenter struct {
	out io.Writer

	// ShowRouting prints the handoff chain of each turn.
	ShowRouting bool
}

// NewConsolePresenter creates a ConsolePresenter.
func NewConsolePresenter(out io.Writer) *ConsolePresenter {
	return &ConsolePresenter{out: out}
}

// Child implements Presenter.
func (p *ConsolePresenter) Child(text string, fromVoice bool) {
	if fromVoice {
		fmt.Fprintf(p.out, "Child (heard): %s\n", text)
		return
	}

	fmt.Fprintf(p.out, "Child: %s\n", text)
}

// Teacher implements Presenter.
func (p *ConsolePresenter) Teacher(turn core.Turn) {
	if p.ShowRouting && turn.HandedOff() {
		hops := make([]string, 0, len(turn.Handoffs)+1)
		hops = append(hops, turn.Handoffs[0].From)

		for _, h := range turn.Handoffs {
			hops = append(hops, h.To)
		}

		fmt.Fprintf(p.out, "  [%s]\n", strings.Join(hops, " -> "))
	}

	fmt.Fprintf(p.out, "Teacher (%s): %s\n", turn.Responder, turn.Response)

	if turn.AudioSkipped {
		fmt.Fprintln(p.out, "  (audio skipped)")
	}

	fmt.Fprintln(p.out, strings.Repeat("-", 50))
}

// Notice implements Presenter.
func (p *ConsolePresenter) Notice(msg string) {
	fmt.Fprintln(p.out, msg)
}

// Failure implements Presenter.
func (p *ConsolePresenter) Failure(err error) {
	fmt.Fprintf(p.out, "Sorry, the teacher could not answer that: %v\n", err)
	fmt.Fprintln(p.out, strings.Repeat("-", 50))
}

// Goodbye implements Presenter.
func (p *ConsolePresenter) Goodbye() {
	fmt.Fprintln(p.out, GoodbyeMessage)
}

var _ Presenter = (*ConsolePresenter)(nil)
