package driver

// State is a Session Driver state.
type State int

const (
	// AwaitingInput waits for the next child input.
	AwaitingInput State = iota
	// Routing runs the turn through the classroom.
	Routing
	// Responding presents the answer and optionally speaks it.
	Responding
	// Terminated is final.
	Terminated
)

func (s State) String() string {
	switch s {
	case AwaitingInput:
		return "AwaitingInput"
	case Routing:
		return "Routing"
	case Responding:
		return "Responding"
	case Terminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// allowed reports whether the driver may move from s to a different state next.
func (s State) allowed(next State) bool {
	switch s {
	case AwaitingInput:
		return next == Routing || next == Terminated
	case Routing:
		return next == Responding || next == AwaitingInput || next == Terminated
	case Responding:
		return next == AwaitingInput || next == Terminated
	default:
		return false
	}
}
