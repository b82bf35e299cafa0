package conversation

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestLog_AppendKeepsOrder(t *testing.T) {
	l := NewLog(Message{ID: "seed", Origin: OriginBot, Text: "welcome"})
	l.Append(Message{ID: "1", Origin: OriginUser, Text: "hi"})
	l.Append(Message{ID: "2", Origin: OriginBot, Text: "hello"})

	got := l.All()
	ids := make([]string, 0, len(got))
	for _, m := range got {
		ids = append(ids, m.ID)
	}
	if diff := cmp.Diff([]string{"seed", "1", "2"}, ids); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}

	last, ok := l.Last()
	require.True(t, ok)
	require.Equal(t, "hello", last.Text)
}

func TestLog_AllReturnsCopy(t *testing.T) {
	l := NewLog[Message]()
	l.Append(Message{ID: "1", Text: "original"})

	snapshot := l.All()
	snapshot[0].Text = "mutated"

	require.Equal(t, "original", l.All()[0].Text)
}

func TestLog_SeedIsCopied(t *testing.T) {
	seed := []Message{{ID: "a"}}
	l := NewLog(seed...)
	seed[0].ID = "changed"
	require.Equal(t, "a", l.All()[0].ID)
}

func TestNewExternal_RequiresInitializedSequence(t *testing.T) {
	var items []Entry
	_, err := NewExternal(func() []Entry { return items }, func(Update[Entry]) {})
	require.ErrorIs(t, err, ErrUninitialized)

	items = []Entry{}
	s, err := NewExternal(func() []Entry { return items }, func(u Update[Entry]) { items = u.Resolve(items) })
	require.NoError(t, err)
	require.Equal(t, 0, s.Len())

	_, err = NewExternal[Entry](nil, nil)
	require.Error(t, err)
}

func TestExternal_AppendNeverMutatesGivenSlice(t *testing.T) {
	backing := make([]Entry, 1, 8)
	backing[0] = Entry{Question: "q0", Answer: "a0"}
	given := backing

	var received []Update[Entry]
	current := given
	s, err := NewExternal(func() []Entry { return current }, func(u Update[Entry]) {
		received = append(received, u)
		current = u.Resolve(current)
	})
	require.NoError(t, err)

	s.Append(Entry{Question: "q1", Answer: "a1"})

	require.Len(t, received, 1)
	require.Len(t, given, 1)
	// spare capacity in the owner's slice must not have been written to
	require.Equal(t, Entry{}, backing[:2][1])
	require.Equal(t, []Entry{{Question: "q0", Answer: "a0"}, {Question: "q1", Answer: "a1"}}, s.All())
}

func TestUpdate_ReplaceLiteral(t *testing.T) {
	u := Update[Entry]{Replace: []Entry{{Question: "x"}}}
	require.Equal(t, []Entry{{Question: "x"}}, u.Resolve([]Entry{{Question: "old"}}))
}

func TestOwner_StoreAppends(t *testing.T) {
	o := NewOwner[Entry]()
	s := o.Store()
	s.Append(Entry{Question: "a"})
	s.Append(Entry{Question: "b"})
	require.Equal(t, []Entry{{Question: "a"}, {Question: "b"}}, o.Get())
}

func TestFlatten(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	got := Flatten([]Entry{{Question: "hi", Answer: "hello", Timestamp: ts}})
	require.Equal(t, []Message{
		{Origin: OriginUser, Text: "hi", Timestamp: ts},
		{Origin: OriginBot, Text: "hello", Timestamp: ts},
	}, got)
}

func TestLoadSeed(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	doc := `
messages:
  - sender: bot
    text: Welcome back!
  - id: fixed
    sender: User
    text: thanks
    timestamp: 2024-04-30T10:00:00Z
`
	msgs, err := LoadSeed(strings.NewReader(doc), now)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, OriginBot, msgs[0].Origin)
	require.NotEmpty(t, msgs[0].ID)
	require.Equal(t, now, msgs[0].Timestamp)
	require.Equal(t, "fixed", msgs[1].ID)
	require.Equal(t, OriginUser, msgs[1].Origin)
	require.Equal(t, 2024, msgs[1].Timestamp.Year())
}

func TestLoadSeed_Errors(t *testing.T) {
	_, err := LoadSeed(strings.NewReader("messages:\n  - sender: robot\n    text: x\n"), time.Now())
	require.Error(t, err)

	msgs, err := LoadSeed(strings.NewReader(""), time.Now())
	require.NoError(t, err)
	require.Empty(t, msgs)
}
