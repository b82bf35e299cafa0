package session

import (
	"time"

	"github.com/go-go-golems/chatwidget/pkg/exchange"
)

// Event is an input to the reducer.
type Event interface {
	isEvent()
}

// Toggled flips the panel between open and collapsed.
type Toggled struct{}

// InputChanged replaces the input box text.
type InputChanged struct {
	Text string
}

// Submitted is the send action (enter without modifier, or the send control).
type Submitted struct {
	At time.Time
}

// Settled reports the outcome of the in-flight request.
type Settled struct {
	Question string
	Response exchange.Response
	Err      error
	At       time.Time
}

func (Toggled) isEvent()      {}
func (InputChanged) isEvent() {}
func (Submitted) isEvent()    {}
func (Settled) isEvent()      {}
