package http

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/adipras/ngobrol/internal/config"
	"github.com/adipras/ngobrol/internal/delivery/ws"
)

// Handler wires the HTTP surface: the websocket upgrade, the upload read
// path, and a health endpoint. Rendering is left to whatever client is
// served from the static directory.
type Handler struct {
	hub      *ws.Hub
	cfg      *config.Config
	upgrader websocket.Upgrader
}

// NewHandler creates the HTTP handler set.
func NewHandler(hub *ws.Hub, cfg *config.Config) *Handler {
	h := &Handler{hub: hub, cfg: cfg}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return h.isOriginAllowed(r.Header.Get("Origin"))
		},
	}
	return h
}

// isOriginAllowed checks if the origin is in the allowed list.
// Empty origin is allowed (same-origin requests).
func (h *Handler) isOriginAllowed(origin string) bool {
	if origin == "" {
		return true
	}
	for _, allowed := range h.cfg.AllowedOrigins {
		if allowed == "*" || origin == allowed {
			return true
		}
	}
	return false
}

// HandleWebSocket upgrades HTTP to WebSocket and starts the client pumps.
// The connection has no session until it sends a login event.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	client := ws.NewClient(h.hub, conn)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}

// HandleHealth reports liveness and the current connection count.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"clients": h.hub.ClientCount(),
	})
}
