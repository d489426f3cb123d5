package chat

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/adipras/ngobrol/internal/domain"
)

// FileStore persists uploaded bytes under a flat directory.
type FileStore interface {
	Save(filename string, data []byte) error
}

// Delivery is one outbound event addressed to one connection. The transport
// adapter sends these in order; delivering to a connection that is already
// gone is a no-op, not an error.
type Delivery struct {
	To      ConnID
	Event   domain.EventKind
	Payload any
}

// Router is the core state machine. It owns the registry, the room directory
// inside it, and the message log, and serializes every dispatch behind one
// mutex so handlers see the three structures as a single resource. Handlers
// either fully apply or fully no-op; failures become a single errorEvent
// delivery to the issuer.
type Router struct {
	mu        sync.Mutex
	registry  *Registry
	log       *MessageLog
	files     FileStore
	maxUpload int64

	clock func() time.Time
}

// NewRouter creates a router backed by files for uploads. maxUpload caps the
// decoded size of one upload; 0 means unlimited.
func NewRouter(files FileStore, maxUpload int64) *Router {
	return &Router{
		registry:  NewRegistry(),
		log:       NewMessageLog(),
		files:     files,
		maxUpload: maxUpload,
		clock:     time.Now,
	}
}

type handlerFunc func(rt *Router, from ConnID, payload json.RawMessage) ([]Delivery, error)

// handlers is the dispatch table. One entry per inbound event kind.
var handlers = map[domain.EventKind]handlerFunc{
	domain.EventLogin:       (*Router).handleLogin,
	domain.EventJoinRoom:    (*Router).handleJoinRoom,
	domain.EventChatMessage: (*Router).handleChatMessage,
	domain.EventTyping:      (*Router).handleTyping,
	domain.EventFileUpload:  (*Router).handleFileUpload,
	domain.EventReaction:    (*Router).handleReaction,
}

// Dispatch runs the handler for one inbound event and returns the fan-out.
// An unknown event kind or a handler failure yields only an errorEvent to
// the issuing connection.
func (rt *Router) Dispatch(from ConnID, kind domain.EventKind, payload json.RawMessage) []Delivery {
	h, ok := handlers[kind]
	if !ok {
		return ErrorDeliveries(from, fmt.Errorf("%w: unknown event %q", domain.ErrMalformedPayload, kind))
	}
	out, err := h(rt, from, payload)
	if err != nil {
		return ErrorDeliveries(from, err)
	}
	return out
}

// Disconnect tears down the connection's session and notifies its former
// room. Safe to call more than once; repeats return no deliveries.
func (rt *Router) Disconnect(from ConnID) []Delivery {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	c, ok := rt.registry.Remove(from)
	if !ok {
		return nil
	}
	return rt.presenceDeliveries(c.Room, domain.EventUserLeft, c.Username)
}

// ErrorDeliveries converts a router error into the single errorEvent
// delivery the issuer receives.
func ErrorDeliveries(to ConnID, err error) []Delivery {
	return []Delivery{{
		To:    to,
		Event: domain.EventError,
		Payload: domain.ErrorPayload{
			Kind:   domain.ErrorKind(err),
			Detail: err.Error(),
		},
	}}
}

func (rt *Router) handleLogin(from ConnID, payload json.RawMessage) ([]Delivery, error) {
	var p domain.LoginPayload
	if err := decode(payload, &p); err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.Username) == "" {
		return nil, fmt.Errorf("%w: username required", domain.ErrMalformedPayload)
	}
	room := p.Room
	if room == "" {
		room = domain.DefaultRoom
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	c, err := rt.registry.Login(from, p.Username, room)
	if err != nil {
		return nil, err
	}

	out := []Delivery{{
		To:      from,
		Event:   domain.EventLoadHistory,
		Payload: domain.HistoryPayload{Messages: rt.log.History(room)},
	}}
	return append(out, rt.presenceDeliveries(room, domain.EventUserJoined, c.Username)...), nil
}

func (rt *Router) handleJoinRoom(from ConnID, payload json.RawMessage) ([]Delivery, error) {
	var p domain.JoinRoomPayload
	if err := decode(payload, &p); err != nil {
		return nil, err
	}
	if p.Room == "" {
		return nil, fmt.Errorf("%w: room required", domain.ErrMalformedPayload)
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	c, ok := rt.registry.Get(from)
	if !ok {
		return nil, domain.ErrNotLoggedIn
	}

	history := Delivery{
		To:      from,
		Event:   domain.EventLoadHistory,
		Payload: domain.HistoryPayload{Messages: rt.log.History(p.Room)},
	}

	// Re-joining the current room only re-syncs history.
	if c.Room == p.Room {
		return []Delivery{history}, nil
	}

	oldRoom, err := rt.registry.SetRoom(from, p.Room)
	if err != nil {
		return nil, err
	}

	out := []Delivery{history}
	// The departed room is told, so its presence list stays correct.
	out = append(out, rt.presenceDeliveries(oldRoom, domain.EventUserLeft, c.Username)...)
	out = append(out, rt.presenceDeliveries(p.Room, domain.EventUserJoined, c.Username)...)
	return out, nil
}

func (rt *Router) handleChatMessage(from ConnID, payload json.RawMessage) ([]Delivery, error) {
	var p domain.ChatPayload
	if err := decode(payload, &p); err != nil {
		return nil, err
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	c, ok := rt.registry.Get(from)
	if !ok {
		return nil, domain.ErrNotLoggedIn
	}

	msg := domain.Message{
		Sender:  c.Username,
		Room:    c.Room,
		Body:    p.Body,
		Kind:    domain.MessageText,
		SentAt:  rt.clock(),
		Private: p.To != "",
	}
	if p.To != "" {
		msg.Recipient = p.To
	}
	return rt.logAndRoute(c, msg)
}

func (rt *Router) handleTyping(from ConnID, payload json.RawMessage) ([]Delivery, error) {
	var p domain.TypingPayload
	if err := decode(payload, &p); err != nil {
		return nil, err
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	c, ok := rt.registry.Get(from)
	if !ok {
		return nil, domain.ErrNotLoggedIn
	}

	event := domain.TypingEventPayload{Username: c.Username}
	var out []Delivery
	if p.To != "" {
		// Typing is ephemeral; an absent recipient is a silent no-op.
		for _, id := range rt.registry.LookupByUsername(p.To) {
			out = append(out, Delivery{To: id, Event: domain.EventTyping, Payload: event})
		}
		return out, nil
	}
	for _, id := range rt.registry.MembersOf(c.Room) {
		if id == from {
			continue
		}
		out = append(out, Delivery{To: id, Event: domain.EventTyping, Payload: event})
	}
	return out, nil
}

func (rt *Router) handleFileUpload(from ConnID, payload json.RawMessage) ([]Delivery, error) {
	var p domain.FileUploadPayload
	if err := decode(payload, &p); err != nil {
		return nil, err
	}
	name := filepath.Base(strings.TrimSpace(p.Filename))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return nil, fmt.Errorf("%w: invalid filename %q", domain.ErrMalformedPayload, p.Filename)
	}
	data, err := base64.StdEncoding.DecodeString(p.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: file data is not valid base64", domain.ErrMalformedPayload)
	}
	if rt.maxUpload > 0 && int64(len(data)) > rt.maxUpload {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", domain.ErrMalformedPayload, rt.maxUpload)
	}

	// Writing to storage is the only blocking I/O in the core; it must not
	// happen under the state lock. The session is checked first so an
	// anonymous connection cannot make the server write files.
	rt.mu.Lock()
	if _, ok := rt.registry.Get(from); !ok {
		rt.mu.Unlock()
		return nil, domain.ErrNotLoggedIn
	}
	rt.mu.Unlock()

	if err := rt.files.Save(name, data); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageWriteFailed, err)
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	// The connection may have disconnected while the write was in flight.
	c, ok := rt.registry.Get(from)
	if !ok {
		return nil, domain.ErrNotLoggedIn
	}

	msg := domain.Message{
		Sender:   c.Username,
		Room:     c.Room,
		Filename: name,
		Kind:     domain.MessageFile,
		SentAt:   rt.clock(),
		Private:  p.To != "",
	}
	if p.To != "" {
		msg.Recipient = p.To
	}
	return rt.logAndRoute(c, msg)
}

func (rt *Router) handleReaction(from ConnID, payload json.RawMessage) ([]Delivery, error) {
	var p domain.ReactionPayload
	if err := decode(payload, &p); err != nil {
		return nil, err
	}
	if p.Symbol == "" {
		return nil, fmt.Errorf("%w: reaction symbol required", domain.ErrMalformedPayload)
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	c, ok := rt.registry.Get(from)
	if !ok {
		return nil, domain.ErrNotLoggedIn
	}
	msg, err := rt.log.AddReaction(p.MessageIndex, c.Username, p.Symbol)
	if err != nil {
		return nil, err
	}

	event := domain.ReactionEventPayload{
		MessageIndex: p.MessageIndex,
		Symbol:       p.Symbol,
		Username:     c.Username,
	}
	// The reaction goes to the same audience the message itself reached.
	var out []Delivery
	for _, id := range rt.audienceOf(msg) {
		out = append(out, Delivery{To: id, Event: domain.EventReaction, Payload: event})
	}
	return out, nil
}

// logAndRoute appends msg and fans it out: room broadcast to every member of
// the sender's room, or private delivery to the sender plus every connection
// matching the recipient username. Caller holds the state lock.
func (rt *Router) logAndRoute(sender *Connection, msg domain.Message) ([]Delivery, error) {
	if msg.Private {
		targets := rt.registry.LookupByUsername(msg.Recipient)
		if len(targets) == 0 {
			return nil, fmt.Errorf("%w: %q", domain.ErrRecipientNotFound, msg.Recipient)
		}
		index := rt.log.Append(msg)
		stored, _ := rt.log.Get(index)
		out := []Delivery{{To: sender.ID, Event: domain.EventPrivateMessage, Payload: stored.Snapshot()}}
		for _, id := range targets {
			if id == sender.ID {
				continue
			}
			out = append(out, Delivery{To: id, Event: domain.EventPrivateMessage, Payload: stored.Snapshot()})
		}
		return out, nil
	}

	index := rt.log.Append(msg)
	stored, _ := rt.log.Get(index)
	var out []Delivery
	for _, id := range rt.registry.MembersOf(msg.Room) {
		out = append(out, Delivery{To: id, Event: domain.EventChatMessage, Payload: stored.Snapshot()})
	}
	return out, nil
}

// audienceOf resolves who a logged message was delivered to: current room
// members for broadcasts, sender plus recipient connections for privates.
// Caller holds the state lock.
func (rt *Router) audienceOf(msg *domain.Message) []ConnID {
	if !msg.Private {
		return rt.registry.MembersOf(msg.Room)
	}
	seen := make(map[ConnID]struct{})
	var out []ConnID
	for _, name := range []string{msg.Sender, msg.Recipient} {
		for _, id := range rt.registry.LookupByUsername(name) {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

// presenceDeliveries builds the userJoined/userLeft notification plus the
// refreshed onlineUsers list for every current member of room. Caller holds
// the state lock.
func (rt *Router) presenceDeliveries(room string, event domain.EventKind, username string) []Delivery {
	members := rt.registry.MembersOf(room)
	names := rt.registry.UsernamesOf(room)
	out := make([]Delivery, 0, 2*len(members))
	for _, id := range members {
		out = append(out, Delivery{To: id, Event: event, Payload: domain.UserEventPayload{Username: username}})
		out = append(out, Delivery{To: id, Event: domain.EventOnlineUsers, Payload: domain.OnlineUsersPayload{Usernames: names}})
	}
	return out
}

// ClientCount reports live sessions, for the health endpoint.
func (rt *Router) ClientCount() int {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.registry.Len()
}

func decode(payload json.RawMessage, v any) error {
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}
	return nil
}
