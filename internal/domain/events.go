package domain

// EventKind names an event on the websocket wire.
type EventKind string

// Inbound events (client -> server).
const (
	EventLogin       EventKind = "login"
	EventJoinRoom    EventKind = "joinRoom"
	EventChatMessage EventKind = "chatMessage"
	EventTyping      EventKind = "typing"
	EventFileUpload  EventKind = "fileUpload"
	EventReaction    EventKind = "reaction"
)

// Outbound events (server -> client). EventChatMessage, EventTyping and
// EventReaction are reused in both directions.
const (
	EventLoadHistory    EventKind = "loadHistory"
	EventPrivateMessage EventKind = "privateMessage"
	EventUserJoined     EventKind = "userJoined"
	EventUserLeft       EventKind = "userLeft"
	EventOnlineUsers    EventKind = "onlineUsers"
	EventError          EventKind = "errorEvent"
)

// LoginPayload starts a session on a connection. An empty Room falls back
// to DefaultRoom.
type LoginPayload struct {
	Username string `json:"username"`
	Room     string `json:"room"`
}

// JoinRoomPayload moves the connection to another room.
type JoinRoomPayload struct {
	Room string `json:"room"`
}

// ChatPayload carries a text message. A non-empty To makes it private.
type ChatPayload struct {
	Body string `json:"body"`
	To   string `json:"to,omitempty"`
}

// TypingPayload signals that the sender is typing. A non-empty To targets
// a single username instead of the sender's room.
type TypingPayload struct {
	To string `json:"to,omitempty"`
}

// FileUploadPayload carries a base64-encoded file.
type FileUploadPayload struct {
	Filename string `json:"filename"`
	Data     string `json:"data"`
	To       string `json:"to,omitempty"`
}

// ReactionPayload attaches a reaction symbol to a logged message.
type ReactionPayload struct {
	MessageIndex int    `json:"messageIndex"`
	Symbol       string `json:"symbol"`
}

// HistoryPayload replays a room's prior messages to one client.
type HistoryPayload struct {
	Messages []Message `json:"messages"`
}

// UserEventPayload is the body of userJoined and userLeft events.
type UserEventPayload struct {
	Username string `json:"username"`
}

// OnlineUsersPayload is a room presence snapshot.
type OnlineUsersPayload struct {
	Usernames []string `json:"usernames"`
}

// TypingEventPayload is the outbound typing indicator.
type TypingEventPayload struct {
	Username string `json:"username"`
}

// ReactionEventPayload is the outbound reaction notification.
type ReactionEventPayload struct {
	MessageIndex int    `json:"messageIndex"`
	Symbol       string `json:"symbol"`
	Username     string `json:"username"`
}

// ErrorPayload reports a failed operation back to the issuing connection.
type ErrorPayload struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail,omitempty"`
}
