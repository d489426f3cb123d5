package domain

import "time"

// MessageKind distinguishes plain text from file announcements.
type MessageKind string

const (
	MessageText MessageKind = "text"
	MessageFile MessageKind = "file"
)

// Reaction is one (reactor, symbol) annotation on a logged message.
// Duplicates from the same user are kept; the sequence is append-only.
type Reaction struct {
	Username string `json:"username"`
	Symbol   string `json:"symbol"`
}

// Message is one entry in the message log. Index is assigned by the log and
// never changes; it is the only identifier reactions may reference. All
// fields except Reactions are immutable after append.
type Message struct {
	Index     int         `json:"index"`
	Sender    string      `json:"sender"`
	Room      string      `json:"room"`
	Body      string      `json:"body,omitempty"`
	Filename  string      `json:"filename,omitempty"`
	Kind      MessageKind `json:"kind"`
	Private   bool        `json:"private"`
	Recipient string      `json:"recipient,omitempty"`
	SentAt    time.Time   `json:"sentAt"`
	Reactions []Reaction  `json:"reactions"`
}

// Snapshot returns a value copy safe to hand to another goroutine. The
// reactions slice is copied because the logged original keeps growing.
func (m *Message) Snapshot() Message {
	out := *m
	if len(m.Reactions) > 0 {
		out.Reactions = make([]Reaction, len(m.Reactions))
		copy(out.Reactions, m.Reactions)
	} else {
		out.Reactions = nil
	}
	return out
}
