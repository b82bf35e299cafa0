package savehook

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Hub broadcasts saved exchanges to every connected websocket client. It is
// both a Sink and an http.Handler that accepts subscribers.
type Hub struct {
	mu           sync.Mutex
	conns        map[*websocket.Conn]struct{}
	upgrader     websocket.Upgrader
	writeTimeout time.Duration
	closed       bool
}

var _ Sink = &Hub{}
var _ http.Handler = &Hub{}

func NewHub() *Hub {
	return &Hub{
		conns: map[*websocket.Conn]struct{}{},
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		writeTimeout: 5 * time.Second,
	}
}

// ServeHTTP upgrades the request and keeps the connection until the client
// goes away. Subscribers only receive; anything they send is discarded.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("component", "savehook").Msg("ws upgrade failed")
		return
	}
	if !h.add(conn) {
		_ = conn.Close()
		return
	}
	log.Debug().Str("component", "savehook").Str("remote", r.RemoteAddr).Msg("ws subscriber connected")

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(conn)
}

func (h *Hub) add(conn *websocket.Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.conns[conn] = struct{}{}
	return true
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
	_ = conn.Close()
}

func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Save broadcasts rec to all subscribers. Failing connections are dropped; the
// save itself never fails because of them.
func (h *Hub) Save(_ context.Context, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "ws save hub: marshal")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		_ = conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Warn().Err(err).Str("component", "savehook").Msg("ws broadcast failed, dropping connection")
			delete(h.conns, conn)
			_ = conn.Close()
		}
	}
	return nil
}

func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for conn := range h.conns {
		_ = conn.Close()
		delete(h.conns, conn)
	}
	return nil
}
