package session

import (
	"github.com/go-go-golems/chatwidget/pkg/conversation"
	"github.com/go-go-golems/chatwidget/pkg/exchange"
)

// Effect is a side-effect request emitted by the reducer.
type Effect interface {
	isEffect()
}

// FocusInput asks the host to focus the text input. Best effort.
type FocusInput struct{}

// ScrollToLatest asks the host to scroll the transcript to the newest message.
// Best effort.
type ScrollToLatest struct{}

// AppendMessage appends one message to a per-message store.
type AppendMessage struct {
	Message conversation.Message
}

// AppendEntry appends a completed pair to a paired store.
type AppendEntry struct {
	Entry conversation.Entry
}

// SendRequest starts the remote call for the given request.
type SendRequest struct {
	Request exchange.Request
}

// NotifySave invokes the host's save callback.
type NotifySave struct {
	Record SaveRecord
}

// LogFailure records the cause of a failed exchange for diagnostics.
type LogFailure struct {
	Question string
	Err      error
}

func (FocusInput) isEffect()     {}
func (ScrollToLatest) isEffect() {}
func (AppendMessage) isEffect()  {}
func (AppendEntry) isEffect()    {}
func (SendRequest) isEffect()    {}
func (NotifySave) isEffect()     {}
func (LogFailure) isEffect()     {}

// SaveRecord is what the save callback receives after a successful exchange.
type SaveRecord struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	UserID   string `json:"userId"`
}

// SaveFunc is the host's save-notification callback. Its outcome never
// affects the session.
type SaveFunc func(SaveRecord)
