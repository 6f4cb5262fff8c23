package runtime

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"vendor-chat/domain/chat"
)

func TestRegistry_Subscribe_One_Room_One_Session(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	sessionID := uuid.NewString()
	room := chat.ConversationID(1)
	sink := newRecordingSink()

	// Given a connected session with no memberships
	registry.Connect(sessionID, sink)
	req.Empty(registry.Rooms(sessionID))

	// When it subscribes to a room
	registry.Subscribe(sessionID, room)

	// Then it is the room's only member
	sinks := registry.SinksForRoom(room, "")
	req.Len(sinks, 1)
	req.Contains(sinks, sink)
	req.Equal([]chat.ConversationID{room}, registry.Rooms(sessionID))
}

func TestRegistry_Subscribe_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	sessionID := uuid.NewString()
	room := chat.ConversationID(1)

	registry.Connect(sessionID, newRecordingSink())

	// When subscribing twice to the same room
	registry.Subscribe(sessionID, room)
	registry.Subscribe(sessionID, room)

	// Then membership holds no duplicates
	req.Len(registry.SinksForRoom(room, ""), 1)
	req.Len(registry.Rooms(sessionID), 1)
}

func TestRegistry_Subscribe_Unknown_Session_Is_Ignored(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	room := chat.ConversationID(1)

	// When a never-connected session subscribes
	registry.Subscribe(uuid.NewString(), room)

	// Then the room stays empty
	req.Nil(registry.SinksForRoom(room, ""))
}

func TestRegistry_Unsubscribe_One_Room(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	sessionID1 := uuid.NewString()
	sessionID2 := uuid.NewString()
	room := chat.ConversationID(1)
	sink1 := newRecordingSink()
	sink2 := newRecordingSink()

	registry.Connect(sessionID1, sink1)
	registry.Connect(sessionID2, sink2)
	registry.Subscribe(sessionID1, room)
	registry.Subscribe(sessionID2, room)

	// When one session unsubscribes
	registry.Unsubscribe(sessionID1, room)

	// Then only the other remains
	sinks := registry.SinksForRoom(room, "")
	req.Len(sinks, 1)
	req.Contains(sinks, sink2)
	req.Empty(registry.Rooms(sessionID1))

	// And unsubscribing a non-member is a no-op
	registry.Unsubscribe(sessionID1, room)
	req.Len(registry.SinksForRoom(room, ""), 1)
}

func TestRegistry_Disconnect_Removes_All_Memberships(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	sessionID := uuid.NewString()
	other := uuid.NewString()
	room1 := chat.ConversationID(1)
	room2 := chat.ConversationID(2)

	registry.Connect(sessionID, newRecordingSink())
	registry.Connect(other, newRecordingSink())
	registry.Subscribe(sessionID, room1)
	registry.Subscribe(sessionID, room2)
	registry.Subscribe(other, room1)

	// When the session disconnects
	registry.Disconnect(sessionID)

	// Then no room can reach it anymore
	req.Len(registry.SinksForRoom(room1, ""), 1)
	req.Nil(registry.SinksForRoom(room2, ""))
	req.Empty(registry.Rooms(sessionID))
	_, connected := registry.SinkFor(sessionID)
	req.False(connected)
}

func TestRegistry_SinksForRoom_Excludes_One_Session(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	sender := uuid.NewString()
	receiver := uuid.NewString()
	room := chat.ConversationID(1)
	senderSink := newRecordingSink()
	receiverSink := newRecordingSink()

	registry.Connect(sender, senderSink)
	registry.Connect(receiver, receiverSink)
	registry.Subscribe(sender, room)
	registry.Subscribe(receiver, room)

	// When resolving sinks excluding the sender
	sinks := registry.SinksForRoom(room, sender)

	// Then only the receiver is returned
	req.Len(sinks, 1)
	req.Contains(sinks, receiverSink)

	// And with no exclusion, both are
	req.Len(registry.SinksForRoom(room, ""), 2)
}
