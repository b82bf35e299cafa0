package session

import (
	"strings"
	"time"

	"github.com/go-go-golems/chatwidget/pkg/conversation"
	"github.com/go-go-golems/chatwidget/pkg/exchange"
	"github.com/google/uuid"
)

// EchoPolicy decides when the user's own text enters the conversation store.
type EchoPolicy int

const (
	// EchoOptimistic appends the user message as soon as the request is issued
	// and the bot message when it settles.
	EchoOptimistic EchoPolicy = iota
	// EchoOnSettle appends nothing until settle, then one paired entry.
	EchoOnSettle
)

func (p EchoPolicy) String() string {
	if p == EchoOnSettle {
		return "on-settle"
	}
	return "optimistic"
}

// User identifies who is chatting.
type User struct {
	ID     string `mapstructure:"id" yaml:"id"`
	Name   string `mapstructure:"name" yaml:"name"`
	Avatar string `mapstructure:"avatar" yaml:"avatar,omitempty"`
	Email  string `mapstructure:"email" yaml:"email,omitempty"`
}

// Coordinator is the exchange state machine. It is a value type; the same
// coordinator serves both ownership modes, differing only in Policy.
type Coordinator struct {
	Policy     EchoPolicy
	User       User
	UserAvatar string
	BotAvatar  string
	// NewID generates message identifiers. Defaults to random UUIDs.
	NewID func() string
}

func (c Coordinator) newID() string {
	if c.NewID != nil {
		return c.NewID()
	}
	return uuid.NewString()
}

// Reduce applies ev to s. Events that violate a guard return s unchanged and
// no effects.
func (c Coordinator) Reduce(s State, ev Event) (State, []Effect) {
	switch e := ev.(type) {
	case Toggled:
		s.Open = !s.Open
		if s.Open {
			return s, []Effect{FocusInput{}, ScrollToLatest{}}
		}
		return s, nil

	case InputChanged:
		if s.Pending {
			// input is locked while a request is in flight
			return s, nil
		}
		s.Input = e.Text
		return s, nil

	case Submitted:
		if !s.CanSubmit() {
			return s, nil
		}
		text := trim(s.Input)
		at := e.At
		if at.IsZero() {
			at = time.Now()
		}
		s.Input = ""
		s.Pending = true
		s.Outgoing = text

		var effects []Effect
		if c.Policy == EchoOptimistic {
			effects = append(effects, AppendMessage{Message: conversation.Message{
				ID:        c.newID(),
				Origin:    conversation.OriginUser,
				Text:      text,
				Timestamp: at,
				Avatar:    c.userAvatar(),
			}})
		}
		effects = append(effects,
			SendRequest{Request: exchange.NewRequest(text, c.User.ID, at)},
			ScrollToLatest{},
		)
		return s, effects

	case Settled:
		if !s.Pending || e.Question != s.Outgoing {
			return s, nil
		}
		at := e.At
		if at.IsZero() {
			at = time.Now()
		}
		question := s.Outgoing
		s.Pending = false
		s.Outgoing = ""

		var effects []Effect
		answer := exchange.ApologyReply
		if e.Err != nil {
			effects = append(effects, LogFailure{Question: question, Err: e.Err})
		} else {
			answer = e.Response.ReplyText()
		}

		switch c.Policy {
		case EchoOnSettle:
			effects = append(effects, AppendEntry{Entry: conversation.Entry{
				Question:  question,
				Answer:    answer,
				Timestamp: at,
			}})
		default:
			effects = append(effects, AppendMessage{Message: conversation.Message{
				ID:        c.newID(),
				Origin:    conversation.OriginBot,
				Text:      answer,
				Timestamp: at,
				Avatar:    c.BotAvatar,
			}})
		}

		if e.Err == nil {
			effects = append(effects, NotifySave{Record: SaveRecord{
				Question: question,
				Answer:   answer,
				UserID:   c.User.ID,
			}})
		}
		effects = append(effects, ScrollToLatest{}, FocusInput{})
		return s, effects
	}
	return s, nil
}

func (c Coordinator) userAvatar() string {
	if c.UserAvatar != "" {
		return c.UserAvatar
	}
	return c.User.Avatar
}

func trim(s string) string {
	return strings.TrimSpace(s)
}
