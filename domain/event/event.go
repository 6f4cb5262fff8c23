package event

import (
	"vendor-chat/domain/chat"
)

// DomainEvent is anything delivered to a session sink. Every event is
// scoped to exactly one conversation.
type DomainEvent interface {
	ConversationID() chat.ConversationID
}

// MessageCreated is broadcast to the whole room, sender included, once
// a message has been durably persisted. Vendor carries the denormalized
// display fields for vendor-sent messages, nil otherwise.
type MessageCreated struct {
	Message chat.Message
	Vendor  *chat.Vendor
}

func (m MessageCreated) ConversationID() chat.ConversationID {
	return m.Message.Conversation
}

// HistorySnapshot is a point-in-time ordered read of a conversation's
// full history, delivered to exactly one joining session.
type HistorySnapshot struct {
	Conversation chat.ConversationID
	Messages     []MessageCreated
}

func (h HistorySnapshot) ConversationID() chat.ConversationID {
	return h.Conversation
}

// RoomJoined acknowledges a join to the joining session only.
type RoomJoined struct {
	Conversation chat.ConversationID
}

func (r RoomJoined) ConversationID() chat.ConversationID {
	return r.Conversation
}

// TypingIndicator reaches every room member except the sender.
type TypingIndicator struct {
	Conversation chat.ConversationID
	IsTyping     bool
	Sender       chat.SenderType
}

func (t TypingIndicator) ConversationID() chat.ConversationID {
	return t.Conversation
}

// OperationFailed reports a rejected operation to the originating
// session only. Code is one of the wire error codes.
type OperationFailed struct {
	Conversation chat.ConversationID
	Code         string
	Reason       string
}

func (o OperationFailed) ConversationID() chat.ConversationID {
	return o.Conversation
}
