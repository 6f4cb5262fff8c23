package runtime

import (
	"sync"

	"vendor-chat/contract"
	"vendor-chat/domain/chat"
)

type Set map[string]struct{}

// Registry tracks live sessions and their room memberships. It is the
// sole shared mutable membership state in the core; every mutation and
// every dispatch-time read goes through one RWMutex, so a broadcast
// sees exactly the members registered at dispatch time.
type Registry struct {
	mu           sync.RWMutex
	sessions     map[string]contract.EventSink     // session -> sink
	roomMembers  map[chat.ConversationID]Set       // room -> sessions
	sessionRooms map[string]map[chat.ConversationID]struct{} // inverse, bounds disconnect cleanup
}

func NewRegistry() *Registry {
	return &Registry{
		sessions:     make(map[string]contract.EventSink),
		roomMembers:  make(map[chat.ConversationID]Set),
		sessionRooms: make(map[string]map[chat.ConversationID]struct{}),
	}
}

// Connect registers a live session with an empty membership set.
func (r *Registry) Connect(sessionID string, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[sessionID] = sink
	r.sessionRooms[sessionID] = make(map[chat.ConversationID]struct{})
}

// Disconnect removes the session from every room it joined and drops
// it from the directory. A broadcast dispatched after Disconnect can
// no longer observe the session.
func (r *Registry) Disconnect(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for room := range r.sessionRooms[sessionID] {
		r.removeMember(room, sessionID)
	}
	delete(r.sessionRooms, sessionID)
	delete(r.sessions, sessionID)
}

// Subscribe assigns a connected session to a room. Re-subscribing is a
// no-op at the membership level: the set semantics keep memberships
// duplicate-free. Subscribing an unknown (already disconnected)
// session is ignored.
func (r *Registry) Subscribe(sessionID string, room chat.ConversationID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, connected := r.sessions[sessionID]; !connected {
		return
	}
	if _, ok := r.roomMembers[room]; !ok {
		r.roomMembers[room] = make(Set)
	}
	r.roomMembers[room][sessionID] = struct{}{}
	r.sessionRooms[sessionID][room] = struct{}{}
}

// Unsubscribe removes a session from one room. No-op if it was not a
// member.
func (r *Registry) Unsubscribe(sessionID string, room chat.ConversationID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.removeMember(room, sessionID)
	if rooms, ok := r.sessionRooms[sessionID]; ok {
		delete(rooms, room)
	}
}

// removeMember must be called with the write lock held. Empty member
// sets are removed entirely so the map does not grow with dead rooms.
func (r *Registry) removeMember(room chat.ConversationID, sessionID string) {
	members, ok := r.roomMembers[room]
	if !ok {
		return
	}
	delete(members, sessionID)
	if len(members) == 0 {
		delete(r.roomMembers, room)
	}
}

func (r *Registry) SinkFor(sessionID string) (contract.EventSink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sink, ok := r.sessions[sessionID]
	return sink, ok
}

// SinksForRoom resolves the current members of a room into their
// sinks, skipping exclude when non-empty. Returns nil for an unknown
// or empty room: broadcasting to it is a valid no-op.
func (r *Registry) SinksForRoom(room chat.ConversationID, exclude string) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.roomMembers[room]
	if !ok {
		return nil
	}
	var activeSinks []contract.EventSink
	for sessionID := range members {
		if sessionID == exclude {
			continue
		}
		if sink, exists := r.sessions[sessionID]; exists {
			activeSinks = append(activeSinks, sink)
		}
	}
	return activeSinks
}

// Rooms returns the rooms a session currently belongs to.
func (r *Registry) Rooms(sessionID string) []chat.ConversationID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := make([]chat.ConversationID, 0, len(r.sessionRooms[sessionID]))
	for room := range r.sessionRooms[sessionID] {
		rooms = append(rooms, room)
	}
	return rooms
}
