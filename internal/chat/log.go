package chat

import (
	"iter"

	"github.com/adipras/ngobrol/internal/domain"
)

// MessageLog is the append-only record of every message sent during the
// process lifetime. Indices start at 0, grow by 1 per append, and are never
// reused or compacted: reactions reference messages by raw log position.
// Not safe for concurrent use; the Router serializes access.
type MessageLog struct {
	entries []*domain.Message
}

// NewMessageLog creates an empty log.
func NewMessageLog() *MessageLog {
	return &MessageLog{}
}

// Append stores the message, stamps its index and returns it.
func (l *MessageLog) Append(m domain.Message) int {
	m.Index = len(l.entries)
	l.entries = append(l.entries, &m)
	return m.Index
}

// Get returns the message at index.
func (l *MessageLog) Get(index int) (*domain.Message, error) {
	if index < 0 || index >= len(l.entries) {
		return nil, domain.ErrMessageNotFound
	}
	return l.entries[index], nil
}

// AddReaction appends a (username, symbol) pair to the message at index and
// returns the message. Duplicate reactions from the same user are kept; the
// sequence counts, it does not toggle.
func (l *MessageLog) AddReaction(index int, username, symbol string) (*domain.Message, error) {
	m, err := l.Get(index)
	if err != nil {
		return nil, err
	}
	m.Reactions = append(m.Reactions, domain.Reaction{Username: username, Symbol: symbol})
	return m, nil
}

// Len returns the number of logged messages.
func (l *MessageLog) Len() int {
	return len(l.entries)
}

// FilterByRoom yields the room's broadcast messages lazily in log order,
// for history replay to a joining client. Private messages are excluded;
// they were never visible to the room at large.
func (l *MessageLog) FilterByRoom(room string) iter.Seq[*domain.Message] {
	return func(yield func(*domain.Message) bool) {
		for _, m := range l.entries {
			if m.Room != room || m.Private {
				continue
			}
			if !yield(m) {
				return
			}
		}
	}
}

// History materializes FilterByRoom into snapshot copies for the wire.
func (l *MessageLog) History(room string) []domain.Message {
	out := make([]domain.Message, 0)
	for m := range l.FilterByRoom(room) {
		out = append(out, m.Snapshot())
	}
	return out
}
