package devbot

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-go-golems/chatwidget/pkg/exchange"
	"github.com/go-go-golems/chatwidget/pkg/session"
	"github.com/stretchr/testify/require"
)

func setupRouter(s Settings) (*chi.Mux, *Handler) {
	h := New(s, nil)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r, h
}

func post(t *testing.T, r http.Handler, target, auth, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestHandleChat_Answers(t *testing.T) {
	r, h := setupRouter(Settings{APIKey: "k", BotIDs: []string{"b1"}})

	resp := post(t, r, "/chat?Botid=b1", "Bearer k", `{"message":"Hi","userId":"u1","timestamp":"2024-01-01T00:00:00.000Z"}`)
	require.Equal(t, http.StatusOK, resp.Code)
	require.JSONEq(t, `{"answer":"Hello there!"}`, resp.Body.String())
	require.Equal(t, 1, h.Exchanges("u1"))
}

func TestHandleChat_Rejections(t *testing.T) {
	r, _ := setupRouter(Settings{APIKey: "k", BotIDs: []string{"b1"}})

	require.Equal(t, http.StatusUnauthorized, post(t, r, "/chat?Botid=b1", "Bearer nope", `{"message":"hi"}`).Code)
	require.Equal(t, http.StatusNotFound, post(t, r, "/chat?Botid=other", "Bearer k", `{"message":"hi"}`).Code)
	require.Equal(t, http.StatusBadRequest, post(t, r, "/chat?Botid=b1", "Bearer k", `not json`).Code)
	require.Equal(t, http.StatusBadRequest, post(t, r, "/chat?Botid=b1", "Bearer k", `{"message":"  "}`).Code)
}

func TestHandleChat_EmptyAnswerOmitsField(t *testing.T) {
	h := New(Settings{}, func(string, exchange.Request) string { return "" })
	r := chi.NewRouter()
	h.RegisterRoutes(r)

	resp := post(t, r, "/chat", "", `{"message":"anything"}`)
	require.Equal(t, http.StatusOK, resp.Code)
	require.JSONEq(t, `{}`, resp.Body.String())
}

func TestSessionAgainstDevbot(t *testing.T) {
	h := New(Settings{APIKey: "secret", BotIDs: []string{"bot-1"}}, nil)
	srv := httptest.NewServer(NewRouter(h, nil))
	t.Cleanup(srv.Close)

	client, err := exchange.NewClient(srv.URL+"/chat", "secret", "bot-1")
	require.NoError(t, err)

	var saved []session.SaveRecord
	s, err := session.New(client,
		session.WithUser(session.User{ID: "u1", Name: "Ada"}),
		session.WithOnSave(func(r session.SaveRecord) { saved = append(saved, r) }),
	)
	require.NoError(t, err)

	answer, err := s.Ask(context.Background(), "Hi")
	require.NoError(t, err)
	require.Equal(t, "Hello there!", answer)

	answer, err = s.Ask(context.Background(), "what's up")
	require.NoError(t, err)
	require.Equal(t, "You said: what's up", answer)

	require.Equal(t, 4, s.Len())
	require.Equal(t, []session.SaveRecord{
		{Question: "Hi", Answer: "Hello there!", UserID: "u1"},
		{Question: "what's up", Answer: "You said: what's up", UserID: "u1"},
	}, saved)
	require.Equal(t, 2, h.Exchanges("u1"))
}

func TestSessionAgainstDevbot_WrongKeyApologizes(t *testing.T) {
	h := New(Settings{APIKey: "secret"}, nil)
	srv := httptest.NewServer(NewRouter(h, nil))
	t.Cleanup(srv.Close)

	client, err := exchange.NewClient(srv.URL+"/chat", "wrong", "bot-1")
	require.NoError(t, err)
	s, err := session.New(client)
	require.NoError(t, err)

	answer, err := s.Ask(context.Background(), "Hi")
	require.NoError(t, err)
	require.Equal(t, exchange.ApologyReply, answer)
}
