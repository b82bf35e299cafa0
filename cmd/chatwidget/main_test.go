package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-go-golems/chatwidget/pkg/config"
	"github.com/go-go-golems/chatwidget/pkg/devbot"
	"github.com/go-go-golems/chatwidget/pkg/exchange"
	"github.com/go-go-golems/chatwidget/pkg/savehook"
	"github.com/go-go-golems/chatwidget/pkg/session"
	"github.com/mitchellh/go-homedir"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"":        zerolog.InfoLevel,
		"debug":   zerolog.DebugLevel,
		" WARN ":  zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"trace":   zerolog.TraceLevel,
	}
	for in, want := range cases {
		got, err := parseLogLevel(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}

	_, err := parseLogLevel("loud")
	require.Error(t, err)
}

func TestOpenSinks_None(t *testing.T) {
	sink, err := openSinks(config.SaveSettings{})
	require.NoError(t, err)
	require.Nil(t, sink)
}

func TestOpenSinks_SQLiteAndExtra(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.db")
	hub := savehook.NewHub()

	sink, err := openSinks(config.SaveSettings{SQLite: path}, hub)
	require.NoError(t, err)
	multi, ok := sink.(savehook.Multi)
	require.True(t, ok)
	require.Len(t, multi, 2)
	require.NoError(t, sink.Close())
}

func TestWidgetSession_SQLitePathUnderHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	disable := homedir.DisableCache
	homedir.DisableCache = true
	t.Cleanup(func() { homedir.DisableCache = disable })

	s := testSettings("http://unused.example/chat")
	s.Save.SQLite = "~/chat.db"

	ws, err := newWidgetSessionWithSender(s, cannedSender{answer: "Hello there!"})
	require.NoError(t, err)
	_, err = ws.Ask(context.Background(), "hi")
	require.NoError(t, err)
	require.NoError(t, ws.Close())

	require.FileExists(t, filepath.Join(home, "chat.db"))

	rows, err := loadExchanges(context.Background(), "~/chat.db", savehook.ExchangeQuery{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "hi", rows[0].Question)
	require.Equal(t, "Hello there!", rows[0].Answer)
}

func testSettings(endpoint string) config.Settings {
	s := config.Defaults()
	s.User = session.User{ID: "u1", Name: "Ada"}
	s.APIEndpoint = endpoint
	s.APIKey = "k"
	s.ChatbotID = "b1"
	return s
}

func TestWidgetSession_SavesToSQLite(t *testing.T) {
	bot := devbot.New(devbot.Settings{APIKey: "k"}, nil)
	srv := httptest.NewServer(devbot.NewRouter(bot, nil))
	defer srv.Close()

	dbPath := filepath.Join(t.TempDir(), "saved.db")
	s := testSettings(srv.URL + "/chat")
	s.Save.SQLite = dbPath

	ws, err := newWidgetSession(s)
	require.NoError(t, err)

	reply, err := ws.Ask(context.Background(), "hi")
	require.NoError(t, err)
	require.Equal(t, "Hello there!", reply)
	require.NoError(t, ws.Close())

	dsn, err := savehook.SQLiteDSNForFile(dbPath)
	require.NoError(t, err)
	store, err := savehook.NewSQLiteSink(dsn)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	rows, err := store.List(context.Background(), savehook.ExchangeQuery{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "hi", rows[0].Question)
	require.Equal(t, "Hello there!", rows[0].Answer)
}

type cannedSender struct{ answer string }

func (c cannedSender) Send(context.Context, exchange.Request) (exchange.Response, error) {
	return exchange.Response{Answer: c.answer}, nil
}

func TestWidgetSession_ExternalOwnership(t *testing.T) {
	s := testSettings("http://unused.example/chat")
	s.Ownership = session.OwnershipExternal

	ws, err := newWidgetSessionWithSender(s, cannedSender{answer: "Sure."})
	require.NoError(t, err)
	require.NotNil(t, ws.owner)
	require.Equal(t, session.EchoOnSettle, ws.Policy())

	_, err = ws.Ask(context.Background(), "Can you help?")
	require.NoError(t, err)
	entries := ws.owner.Get()
	require.Len(t, entries, 1)
	require.Equal(t, "Sure.", entries[0].Answer)
}

func TestWidgetSession_SeedFile(t *testing.T) {
	seed := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, writeFile(seed, "messages:\n  - sender: bot\n    text: Welcome back\n"))

	s := testSettings("http://unused.example/chat")
	s.InitialMessages = seed
	ws, err := newWidgetSessionWithSender(s, cannedSender{answer: "ok"})
	require.NoError(t, err)
	require.Equal(t, 1, ws.Len())
	require.Equal(t, "Welcome back", ws.Messages()[0].Text)
}

func TestAskCommand(t *testing.T) {
	bot := devbot.New(devbot.Settings{APIKey: "k", BotIDs: []string{"b1"}}, nil)
	srv := httptest.NewServer(devbot.NewRouter(bot, nil))
	defer srv.Close()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{
		"ask",
		"--log-file", filepath.Join(t.TempDir(), "test.log"),
		"--api-endpoint", srv.URL + "/chat",
		"--api-key", "k",
		"--chatbot-id", "b1",
		"--user-id", "u42",
		"what", "is", "up",
	})
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	require.Equal(t, "You said: what is up\n", out.String())
	require.Equal(t, 1, bot.Exchanges("u42"))
}

func TestAskCommand_WrongKeyPrintsApology(t *testing.T) {
	bot := devbot.New(devbot.Settings{APIKey: "right"}, nil)
	srv := httptest.NewServer(devbot.NewRouter(bot, nil))
	defer srv.Close()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{
		"ask",
		"--log-file", filepath.Join(t.TempDir(), "test.log"),
		"--api-endpoint", srv.URL + "/chat",
		"--api-key", "wrong",
		"--chatbot-id", "b1",
		"hi",
	})
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	require.Equal(t, exchange.ApologyReply+"\n", out.String())
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o600)
}
