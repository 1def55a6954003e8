// Package ws implements the WebSocket adapter that pushes session and record
// change notifications to the browsers of the affected user.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/Strob0t/rentalmanager/internal/domain/user"
)

const writeTimeout = 5 * time.Second

// Message is the envelope for all WebSocket messages.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// conn wraps a single WebSocket connection owned by one user.
type conn struct {
	ws     *websocket.Conn
	cancel context.CancelFunc
	userID string
}

// Hub tracks live connections per user.
type Hub struct {
	mu             sync.RWMutex
	conns          map[*conn]struct{}
	originPatterns []string
}

// NewHub creates a hub. originPatterns restricts the Origin header of
// upgrade requests; empty allows same-origin only.
func NewHub(originPatterns ...string) *Hub {
	return &Hub{
		conns:          make(map[*conn]struct{}),
		originPatterns: originPatterns,
	}
}

// HandleWS upgrades an authenticated request. The user must already be in
// the request context (the auth middleware accepts ?token= on this route).
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	u := user.FromContext(r.Context())
	if u == nil {
		http.Error(w, `{"error":"authorization required"}`, http.StatusUnauthorized)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		slog.Error("websocket accept failed", "error", err)
		return
	}

	// The request context ends when the handler returns, so the read loop gets its own.
	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	c := &conn{ws: ws, cancel: cancel, userID: u.ID}

	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()

	slog.Info("websocket connected", "remote", r.RemoteAddr, "user_id", u.ID)

	go func() {
		defer func() {
			h.remove(c)
			_ = ws.Close(websocket.StatusNormalClosure, "")
		}()
		for {
			if _, _, err := ws.Read(ctx); err != nil {
				return
			}
		}
	}()
}

// SendToUser writes msg to every connection of userID.
func (h *Hub) SendToUser(ctx context.Context, userID string, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("websocket marshal failed", "error", err)
		return
	}

	h.mu.RLock()
	targets := make([]*conn, 0, len(h.conns))
	for c := range h.conns {
		if c.userID == userID {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		wctx, cancel := context.WithTimeout(ctx, writeTimeout)
		err := c.ws.Write(wctx, websocket.MessageText, data)
		cancel()
		if err != nil {
			slog.Debug("websocket write failed", "user_id", userID, "error", err)
			h.remove(c)
		}
	}
}

// BroadcastEvent marshals payload and sends it to userID's connections.
// It satisfies broadcast.Broadcaster.
func (h *Hub) BroadcastEvent(ctx context.Context, userID, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}
	h.SendToUser(ctx, userID, Message{Type: eventType, Payload: data})
}

// ConnectionCount returns the number of active connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *Hub) remove(c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[c]; ok {
		c.cancel()
		delete(h.conns, c)
		slog.Info("websocket disconnected", "user_id", c.userID)
	}
}
