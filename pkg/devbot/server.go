// Package devbot is a small bot endpoint that speaks the widget's wire
// contract. It exists for demos and integration tests, not for production.
package devbot

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-go-golems/chatwidget/pkg/exchange"
	"github.com/rs/zerolog/log"
)

// Responder produces an answer for a message. Returning an empty answer makes
// the handler omit the field.
type Responder func(botID string, req exchange.Request) string

// Settings configure the development bot.
type Settings struct {
	APIKey string
	// BotIDs restricts accepted Botid values. Empty accepts any.
	BotIDs []string
	// Delay is added before each answer to make the pending state visible.
	Delay time.Duration
}

// Handler serves POST /chat.
type Handler struct {
	settings  Settings
	responder Responder

	mu    sync.Mutex
	count map[string]int
}

func New(s Settings, r Responder) *Handler {
	if r == nil {
		r = EchoResponder
	}
	return &Handler{settings: s, responder: r, count: map[string]int{}}
}

// EchoResponder answers with a canned greeting or echoes the message back.
func EchoResponder(_ string, req exchange.Request) string {
	msg := strings.TrimSpace(req.Message)
	switch strings.ToLower(msg) {
	case "hi", "hello", "hey":
		return "Hello there!"
	case "":
		return ""
	}
	return fmt.Sprintf("You said: %s", msg)
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

// Exchanges returns how many questions each user asked.
func (h *Handler) Exchanges(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count[userID]
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	if h.settings.APIKey != "" {
		if r.Header.Get("Authorization") != "Bearer "+h.settings.APIKey {
			respondError(w, http.StatusUnauthorized, "invalid api key")
			return
		}
	}
	botID := r.URL.Query().Get("Botid")
	if !h.acceptsBot(botID) {
		respondError(w, http.StatusNotFound, "unknown bot")
		return
	}

	var req exchange.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respondError(w, http.StatusBadRequest, "message is required")
		return
	}

	h.mu.Lock()
	h.count[req.UserID]++
	h.mu.Unlock()

	if h.settings.Delay > 0 {
		select {
		case <-time.After(h.settings.Delay):
		case <-r.Context().Done():
			return
		}
	}

	log.Debug().Str("bot_id", botID).Str("user_id", req.UserID).Msg("devbot: answering")
	body := map[string]string{}
	if answer := h.responder(botID, req); answer != "" {
		body["answer"] = answer
	}
	respondJSON(w, http.StatusOK, body)
}

func (h *Handler) acceptsBot(id string) bool {
	if len(h.settings.BotIDs) == 0 {
		return true
	}
	for _, b := range h.settings.BotIDs {
		if b == id {
			return true
		}
	}
	return false
}

// NewRouter builds the full dev server: the chat endpoint and, when a monitor
// is given, a websocket feed of saved exchanges at /ws/exchanges.
func NewRouter(h *Handler, monitor http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(zerologRequests)

	h.RegisterRoutes(r)
	if monitor != nil {
		r.Handle("/ws/exchanges", monitor)
	}
	return r
}

func zerologRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("devbot: request")
	})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Warn().Err(err).Msg("devbot: failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
