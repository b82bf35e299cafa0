// Package conversation holds the append-only transcript of a chat widget.
//
// Two shapes of transcript exist. A Message is one turn, either from the user
// or from the bot. An Entry pairs one user question with its bot answer and is
// created as a unit once the exchange settles.
package conversation

import (
	"time"
)

// Origin tags who produced a message.
type Origin string

const (
	OriginUser Origin = "user"
	OriginBot  Origin = "bot"
)

// Message is a single turn of the conversation.
type Message struct {
	ID        string    `json:"id" yaml:"id"`
	Origin    Origin    `json:"sender" yaml:"sender"`
	Text      string    `json:"text" yaml:"text"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Avatar    string    `json:"avatar,omitempty" yaml:"avatar,omitempty"`
}

func (m Message) IsUser() bool { return m.Origin == OriginUser }

// Entry is a paired exchange: the user's question and the bot's answer share
// one timestamp.
type Entry struct {
	Question  string    `json:"question" yaml:"question"`
	Answer    string    `json:"answer" yaml:"answer"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// Messages expands the entry into its user half followed by its bot half.
func (e Entry) Messages() []Message {
	return []Message{
		{Origin: OriginUser, Text: e.Question, Timestamp: e.Timestamp},
		{Origin: OriginBot, Text: e.Answer, Timestamp: e.Timestamp},
	}
}

// Flatten expands a sequence of entries into display order.
func Flatten(entries []Entry) []Message {
	out := make([]Message, 0, len(entries)*2)
	for _, e := range entries {
		out = append(out, e.Messages()...)
	}
	return out
}
