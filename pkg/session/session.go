package session

import (
	"context"
	"time"

	"github.com/go-go-golems/chatwidget/pkg/conversation"
	"github.com/go-go-golems/chatwidget/pkg/exchange"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ErrNotSubmitted is returned by Ask when the submit guard rejects the text.
var ErrNotSubmitted = errors.New("session: nothing to submit or a request is already pending")

// Ownership selects who owns the conversation sequence.
type Ownership string

const (
	OwnershipInternal Ownership = "internal"
	OwnershipExternal Ownership = "external"
)

// store is the append side of a conversation sequence as the runtime sees it.
type store interface {
	apply(Effect) bool
	messages() []conversation.Message
	len() int
}

type messageStore struct {
	log *conversation.Log[conversation.Message]
}

func (s messageStore) apply(e Effect) bool {
	am, ok := e.(AppendMessage)
	if !ok {
		return false
	}
	s.log.Append(am.Message)
	return true
}

func (s messageStore) messages() []conversation.Message { return s.log.All() }
func (s messageStore) len() int                         { return s.log.Len() }

type entryStore struct {
	ext *conversation.External[conversation.Entry]
}

func (s entryStore) apply(e Effect) bool {
	ae, ok := e.(AppendEntry)
	if !ok {
		return false
	}
	s.ext.Append(ae.Entry)
	return true
}

func (s entryStore) messages() []conversation.Message { return conversation.Flatten(s.ext.All()) }
func (s entryStore) len() int                         { return s.ext.Len() }

// Session is one mounted chat widget instance. It is driven from a single
// event loop and is not safe for concurrent use.
type Session struct {
	coord  Coordinator
	state  State
	store  store
	sender exchange.Sender
	onSave SaveFunc
	now    func() time.Time

	ownership Ownership
	seed      []conversation.Message
	external  *conversation.External[conversation.Entry]
}

type Option func(*Session) error

func WithUser(u User) Option {
	return func(s *Session) error {
		s.coord.User = u
		return nil
	}
}

func WithAvatars(user, bot string) Option {
	return func(s *Session) error {
		s.coord.UserAvatar = user
		s.coord.BotAvatar = bot
		return nil
	}
}

// WithInitialMessages seeds an internally owned conversation.
func WithInitialMessages(msgs []conversation.Message) Option {
	return func(s *Session) error {
		if s.ownership == OwnershipExternal {
			return errors.New("session: initial messages cannot be combined with an external conversation")
		}
		s.ownership = OwnershipInternal
		s.seed = msgs
		return nil
	}
}

// WithExternalConversation hands ownership of the sequence to the caller.
// Exchanges are then appended as paired entries once they settle.
func WithExternalConversation(get func() []conversation.Entry, set func(conversation.Update[conversation.Entry])) Option {
	return func(s *Session) error {
		if s.seed != nil {
			return errors.New("session: initial messages cannot be combined with an external conversation")
		}
		ext, err := conversation.NewExternal(get, set)
		if err != nil {
			return err
		}
		s.ownership = OwnershipExternal
		s.external = ext
		return nil
	}
}

// WithOwner mounts a session over a reference external owner.
func WithOwner(o *conversation.Owner[conversation.Entry]) Option {
	return WithExternalConversation(o.Get, o.Set)
}

func WithOnSave(f SaveFunc) Option {
	return func(s *Session) error {
		s.onSave = f
		return nil
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) error {
		s.now = now
		return nil
	}
}

func WithIDGenerator(f func() string) Option {
	return func(s *Session) error {
		s.coord.NewID = f
		return nil
	}
}

// New mounts a session. Without an ownership option the session owns an
// empty conversation.
func New(sender exchange.Sender, opts ...Option) (*Session, error) {
	if sender == nil {
		return nil, errors.New("session: nil sender")
	}
	s := &Session{
		sender:    sender,
		now:       time.Now,
		ownership: OwnershipInternal,
	}
	for _, o := range opts {
		if err := o(s); err != nil {
			return nil, err
		}
	}

	switch s.ownership {
	case OwnershipExternal:
		s.coord.Policy = EchoOnSettle
		s.store = entryStore{ext: s.external}
	default:
		s.coord.Policy = EchoOptimistic
		s.store = messageStore{log: conversation.NewLog(s.seed...)}
	}
	return s, nil
}

func (s *Session) State() State         { return s.state }
func (s *Session) Phase() Phase         { return s.state.Phase() }
func (s *Session) Ownership() Ownership { return s.ownership }
func (s *Session) Policy() EchoPolicy   { return s.coord.Policy }
func (s *Session) User() User           { return s.coord.User }
func (s *Session) Len() int             { return s.store.len() }

// Messages returns the conversation in display order.
func (s *Session) Messages() []conversation.Message {
	return s.store.messages()
}

// Dispatch feeds ev through the reducer and applies store, save and log
// effects. The remaining effects are returned for the host to carry out.
func (s *Session) Dispatch(ev Event) []Effect {
	next, effects := s.coord.Reduce(s.state, ev)
	s.state = next

	var host []Effect
	for _, e := range effects {
		if s.store.apply(e) {
			continue
		}
		switch e := e.(type) {
		case NotifySave:
			s.notify(e.Record)
		case LogFailure:
			logFailure(e)
		case AppendMessage, AppendEntry:
			log.Warn().Str("ownership", string(s.ownership)).Msg("session: append effect does not match store")
		default:
			host = append(host, e)
		}
	}
	return host
}

func (s *Session) Toggle() []Effect {
	return s.Dispatch(Toggled{})
}

func (s *Session) SetInput(text string) []Effect {
	return s.Dispatch(InputChanged{Text: text})
}

func (s *Session) Submit() []Effect {
	return s.Dispatch(Submitted{At: s.now()})
}

// Perform carries out a SendRequest effect. It blocks for the duration of the
// remote call and returns the event to dispatch once it settles.
func (s *Session) Perform(ctx context.Context, req SendRequest) Settled {
	resp, err := s.sender.Send(ctx, req.Request)
	return Settled{
		Question: req.Request.Message,
		Response: resp,
		Err:      err,
		At:       s.now(),
	}
}

// Ask runs one complete exchange synchronously and returns the bot text that
// was appended.
func (s *Session) Ask(ctx context.Context, text string) (string, error) {
	s.SetInput(text)
	var req *SendRequest
	for _, e := range s.Submit() {
		if sr, ok := e.(SendRequest); ok {
			req = &sr
		}
	}
	if req == nil {
		return "", ErrNotSubmitted
	}

	settled := s.Perform(ctx, *req)
	s.Dispatch(settled)
	if settled.Err != nil {
		return exchange.ApologyReply, nil
	}
	return settled.Response.ReplyText(), nil
}

func (s *Session) notify(r SaveRecord) {
	if s.onSave == nil {
		return
	}
	defer func() {
		if p := recover(); p != nil {
			log.Error().Interface("panic", p).Msg("session: save callback panicked")
		}
	}()
	s.onSave(r)
}

func logFailure(e LogFailure) {
	ev := log.Error().Err(e.Err).Int("question_len", len(e.Question))
	if se, ok := exchange.AsStatus(e.Err); ok {
		ev = ev.Int("status", se.StatusCode)
	}
	ev.Bool("transport", exchange.IsTransport(e.Err)).Msg("session: exchange failed")
}
