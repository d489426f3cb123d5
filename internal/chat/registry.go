package chat

import (
	"sort"

	"github.com/adipras/ngobrol/internal/domain"
)

// ConnID is the transport-assigned identity of one live connection. It is
// stable for the connection's lifetime and opaque to the core.
type ConnID string

// Connection is the registry's record for one logged-in connection. Username
// is set once at login; Room changes via SetRoom only.
type Connection struct {
	ID       ConnID
	Username string
	Room     string

	// seq orders connections by registration, for lookup and presence lists.
	seq uint64
}

// Registry tracks every live session and, alongside it, the room directory.
// Both structures mutate in the same step so the directory can never lag the
// session records. Not safe for concurrent use; the Router serializes access.
type Registry struct {
	conns   map[ConnID]*Connection
	rooms   map[string]map[ConnID]struct{}
	nextSeq uint64
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[ConnID]*Connection),
		rooms: make(map[string]map[ConnID]struct{}),
	}
}

// Login creates the session record and joins the room. A connection that
// already has a record is rejected with ErrAlreadyLoggedIn; its existing
// session is untouched.
func (r *Registry) Login(id ConnID, username, room string) (*Connection, error) {
	if _, ok := r.conns[id]; ok {
		return nil, domain.ErrAlreadyLoggedIn
	}
	c := &Connection{ID: id, Username: username, Room: room, seq: r.nextSeq}
	r.nextSeq++
	r.conns[id] = c
	r.joinRoom(id, room)
	return c, nil
}

// Get returns the session record for a connection, if any.
func (r *Registry) Get(id ConnID) (*Connection, bool) {
	c, ok := r.conns[id]
	return c, ok
}

// SetRoom moves the connection to newRoom and returns the room it left.
// The leave and join happen in one step; no caller can observe the
// connection in zero or two rooms.
func (r *Registry) SetRoom(id ConnID, newRoom string) (oldRoom string, err error) {
	c, ok := r.conns[id]
	if !ok {
		return "", domain.ErrNotLoggedIn
	}
	oldRoom = c.Room
	if oldRoom == newRoom {
		return oldRoom, nil
	}
	r.leaveRoom(id, oldRoom)
	r.joinRoom(id, newRoom)
	c.Room = newRoom
	return oldRoom, nil
}

// Remove deletes the session record and its room membership. Idempotent:
// removing an unknown connection reports ok=false and does nothing, so a
// disconnect fired twice is harmless.
func (r *Registry) Remove(id ConnID) (*Connection, bool) {
	c, ok := r.conns[id]
	if !ok {
		return nil, false
	}
	r.leaveRoom(id, c.Room)
	delete(r.conns, id)
	return c, true
}

// LookupByUsername returns every connection logged in under username, in
// registration order. Usernames are not unique, so this may return several.
func (r *Registry) LookupByUsername(username string) []ConnID {
	var matches []*Connection
	for _, c := range r.conns {
		if c.Username == username {
			matches = append(matches, c)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].seq < matches[j].seq })
	ids := make([]ConnID, len(matches))
	for i, c := range matches {
		ids[i] = c.ID
	}
	return ids
}

// MembersOf returns the connections currently in room, in registration order.
func (r *Registry) MembersOf(room string) []ConnID {
	members := r.rooms[room]
	conns := make([]*Connection, 0, len(members))
	for id := range members {
		conns = append(conns, r.conns[id])
	}
	sort.Slice(conns, func(i, j int) bool { return conns[i].seq < conns[j].seq })
	ids := make([]ConnID, len(conns))
	for i, c := range conns {
		ids[i] = c.ID
	}
	return ids
}

// UsernamesOf returns the presence list for room, in registration order.
func (r *Registry) UsernamesOf(room string) []string {
	ids := r.MembersOf(room)
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = r.conns[id].Username
	}
	return names
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	return len(r.conns)
}

func (r *Registry) joinRoom(id ConnID, room string) {
	set, ok := r.rooms[room]
	if !ok {
		set = make(map[ConnID]struct{})
		r.rooms[room] = set
	}
	set[id] = struct{}{}
}

func (r *Registry) leaveRoom(id ConnID, room string) {
	set, ok := r.rooms[room]
	if !ok {
		return
	}
	delete(set, id)
	// Drop empty sets so abandoned rooms do not accumulate.
	if len(set) == 0 {
		delete(r.rooms, room)
	}
}
