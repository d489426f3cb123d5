package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/adipras/ngobrol/internal/chat"
	"github.com/adipras/ngobrol/internal/domain"
)

// Envelope is the outbound wire frame wrapping one event.
type Envelope struct {
	ID      string           `json:"id"`
	Event   domain.EventKind `json:"event"`
	Payload any              `json:"payload"`
	At      time.Time        `json:"at"`
}

// Frame is the inbound wire frame from a client.
type Frame struct {
	Event   domain.EventKind `json:"event"`
	Payload json.RawMessage  `json:"payload"`
}

type inbound struct {
	from  chat.ConnID
	frame Frame
}

// Hub is the transport adapter between websocket connections and the Router.
// Its run loop handles one inbound event at a time, so router dispatches and
// the resulting fan-outs form a single serialized stream: every member of a
// room sees chat messages in log order.
type Hub struct {
	mu         sync.RWMutex
	clients    map[chat.ConnID]*Client
	register   chan *Client
	unregister chan *Client
	inbound    chan inbound
	router     *chat.Router

	maxMessageSize int64
}

// NewHub creates a hub dispatching into router. maxMessageSize bounds a
// single inbound websocket frame.
func NewHub(router *chat.Router, maxMessageSize int64) *Hub {
	return &Hub{
		clients:        make(map[chat.ConnID]*Client),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		inbound:        make(chan inbound, 256),
		router:         router,
		maxMessageSize: maxMessageSize,
	}
}

// Run starts the hub's main event loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; !ok {
				h.mu.Unlock()
				continue // already unregistered, e.g. close raced with an error
			}
			delete(h.clients, client.ID)
			close(client.send)
			h.mu.Unlock()

			// A network drop surfaces as a disconnect event; the former
			// room learns about it. Removal is idempotent inside.
			h.Deliver(h.router.Disconnect(client.ID))

		case in := <-h.inbound:
			h.Deliver(h.router.Dispatch(in.from, in.frame.Event, in.frame.Payload))
		}
	}
}

// Deliver sends each delivery to its target client. Targets that are gone or
// whose buffers are full are skipped; delivery is best effort while connected.
func (h *Hub) Deliver(deliveries []chat.Delivery) {
	if len(deliveries) == 0 {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, d := range deliveries {
		client, ok := h.clients[d.To]
		if !ok {
			continue
		}
		data, err := json.Marshal(Envelope{
			ID:      uuid.New().String(),
			Event:   d.Event,
			Payload: d.Payload,
			At:      time.Now(),
		})
		if err != nil {
			continue
		}
		select {
		case client.send <- data:
		default:
			// Buffer full; drop rather than stall the loop.
		}
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.register <- c
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(c *Client) {
	h.unregister <- c
}

// Forward queues one inbound frame for dispatch.
func (h *Hub) Forward(from chat.ConnID, frame Frame) {
	h.inbound <- inbound{from: from, frame: frame}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
