// Package session implements the chat widget's exchange lifecycle as a pure
// reducer plus a small runtime that applies its effects.
//
// The reducer never performs I/O. It maps (State, Event) to a new State and a
// list of Effects; the runtime appends to the conversation store, notifies the
// save callback and logs failures, and hands the rest (the remote call, focus
// and scroll requests) back to the host event loop.
package session

// Phase is the derived lifecycle phase of a session.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseComposing
	PhasePending
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseComposing:
		return "composing"
	case PhasePending:
		return "pending"
	default:
		return "unknown"
	}
}

// State is the transient, per-instance state of a widget.
type State struct {
	// Open is the panel visibility flag.
	Open bool
	// Input is the current text of the input box.
	Input string
	// Pending is set while a request is in flight. It is the only guard against
	// concurrent requests.
	Pending bool
	// Outgoing is the trimmed text of the in-flight request.
	Outgoing string
}

func (s State) Phase() Phase {
	switch {
	case s.Pending:
		return PhasePending
	case trim(s.Input) != "":
		return PhaseComposing
	default:
		return PhaseIdle
	}
}

// CanSubmit reports whether a submit event would be accepted.
func (s State) CanSubmit() bool {
	return !s.Pending && trim(s.Input) != ""
}
