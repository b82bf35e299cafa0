package session

import (
	"fmt"
	"testing"
	"time"

	"github.com/go-go-golems/chatwidget/pkg/conversation"
	"github.com/go-go-golems/chatwidget/pkg/exchange"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("m%d", n)
	}
}

func testCoordinator(p EchoPolicy) Coordinator {
	return Coordinator{Policy: p, User: User{ID: "u1", Name: "Ada"}, NewID: seqIDs()}
}

func TestReduce_ToggleOpensWithFocus(t *testing.T) {
	c := testCoordinator(EchoOptimistic)

	s, effects := c.Reduce(State{}, Toggled{})
	require.True(t, s.Open)
	require.Equal(t, []Effect{FocusInput{}, ScrollToLatest{}}, effects)

	s, effects = c.Reduce(s, Toggled{})
	require.False(t, s.Open)
	require.Empty(t, effects)
}

func TestReduce_Phases(t *testing.T) {
	c := testCoordinator(EchoOptimistic)
	s := State{}
	require.Equal(t, PhaseIdle, s.Phase())

	s, _ = c.Reduce(s, InputChanged{Text: "  "})
	require.Equal(t, PhaseIdle, s.Phase())

	s, _ = c.Reduce(s, InputChanged{Text: "hi"})
	require.Equal(t, PhaseComposing, s.Phase())

	s, _ = c.Reduce(s, Submitted{At: t0})
	require.Equal(t, PhasePending, s.Phase())

	s, _ = c.Reduce(s, Settled{Question: "hi", Response: exchange.Response{Answer: "yo"}, At: t0})
	require.Equal(t, PhaseIdle, s.Phase())
}

func TestReduce_WhitespaceSubmitIsNoop(t *testing.T) {
	c := testCoordinator(EchoOptimistic)
	before := State{Open: true, Input: "   "}

	after, effects := c.Reduce(before, Submitted{At: t0})
	require.Equal(t, before, after)
	require.Empty(t, effects)
}

func TestReduce_SubmitOptimisticEcho(t *testing.T) {
	c := testCoordinator(EchoOptimistic)

	s, effects := c.Reduce(State{Open: true, Input: "  Hi  "}, Submitted{At: t0})
	require.Equal(t, State{Open: true, Pending: true, Outgoing: "Hi"}, s)
	require.Len(t, effects, 3)

	am, ok := effects[0].(AppendMessage)
	require.True(t, ok)
	require.Equal(t, conversation.Message{ID: "m1", Origin: conversation.OriginUser, Text: "Hi", Timestamp: t0}, am.Message)

	sr, ok := effects[1].(SendRequest)
	require.True(t, ok)
	require.Equal(t, exchange.Request{Message: "Hi", UserID: "u1", Timestamp: "2024-06-01T10:00:00.000Z"}, sr.Request)
	require.Equal(t, ScrollToLatest{}, effects[2])
}

func TestReduce_SubmitPairedDefersAppend(t *testing.T) {
	c := testCoordinator(EchoOnSettle)

	_, effects := c.Reduce(State{Input: "Hi"}, Submitted{At: t0})
	for _, e := range effects {
		_, isAppend := e.(AppendMessage)
		require.False(t, isAppend)
		_, isEntry := e.(AppendEntry)
		require.False(t, isEntry)
	}
}

func TestReduce_GuardWhilePending(t *testing.T) {
	c := testCoordinator(EchoOptimistic)
	pending := State{Pending: true, Outgoing: "first"}

	for i := 0; i < 10; i++ {
		s, effects := c.Reduce(pending, Submitted{At: t0})
		require.Equal(t, pending, s)
		require.Empty(t, effects)

		s, effects = c.Reduce(pending, InputChanged{Text: "second"})
		require.Equal(t, pending, s)
		require.Empty(t, effects)
	}
}

func TestReduce_SettleSuccess(t *testing.T) {
	c := testCoordinator(EchoOptimistic)
	settledAt := t0.Add(2 * time.Second)

	s, effects := c.Reduce(State{Open: true, Pending: true, Outgoing: "hello"}, Settled{
		Question: "hello",
		Response: exchange.Response{Answer: "X"},
		At:       settledAt,
	})
	require.Equal(t, State{Open: true}, s)

	require.Equal(t, AppendMessage{Message: conversation.Message{
		ID: "m1", Origin: conversation.OriginBot, Text: "X", Timestamp: settledAt,
	}}, effects[0])
	require.Equal(t, NotifySave{Record: SaveRecord{Question: "hello", Answer: "X", UserID: "u1"}}, effects[1])
}

func TestReduce_SettleFallback(t *testing.T) {
	c := testCoordinator(EchoOnSettle)

	_, effects := c.Reduce(State{Pending: true, Outgoing: "hello"}, Settled{Question: "hello", At: t0})
	require.Equal(t, AppendEntry{Entry: conversation.Entry{
		Question: "hello", Answer: exchange.FallbackReply, Timestamp: t0,
	}}, effects[0])
	require.Equal(t, NotifySave{Record: SaveRecord{Question: "hello", Answer: exchange.FallbackReply, UserID: "u1"}}, effects[1])
}

func TestReduce_SettleFailure(t *testing.T) {
	for _, policy := range []EchoPolicy{EchoOptimistic, EchoOnSettle} {
		t.Run(policy.String(), func(t *testing.T) {
			c := testCoordinator(policy)
			cause := errors.New("connection refused")

			s, effects := c.Reduce(State{Pending: true, Outgoing: "hello"}, Settled{Question: "hello", Err: cause, At: t0})
			require.False(t, s.Pending)
			require.Empty(t, s.Outgoing)

			var botText string
			for _, e := range effects {
				switch e := e.(type) {
				case NotifySave:
					t.Fatalf("save callback must not fire on failure")
				case AppendMessage:
					botText = e.Message.Text
				case AppendEntry:
					botText = e.Entry.Answer
				}
			}
			require.Equal(t, exchange.ApologyReply, botText)
			require.Equal(t, LogFailure{Question: "hello", Err: cause}, effects[0])
		})
	}
}

func TestReduce_StaleSettleIgnored(t *testing.T) {
	c := testCoordinator(EchoOptimistic)

	idle := State{Input: "draft"}
	s, effects := c.Reduce(idle, Settled{Question: "old", Response: exchange.Response{Answer: "late"}})
	require.Equal(t, idle, s)
	require.Empty(t, effects)

	pending := State{Pending: true, Outgoing: "current"}
	s, effects = c.Reduce(pending, Settled{Question: "old"})
	require.Equal(t, pending, s)
	require.Empty(t, effects)
}
