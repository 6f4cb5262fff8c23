package server

import (
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/samber/lo"

	"vendor-chat/domain/event"
	"vendor-chat/errors"
)

// Client -> server events.
const (
	eventJoinRoom    = "join-room"
	eventSendMessage = "send-message"
	eventTyping      = "typing"
)

// Server -> client events.
const (
	eventRoomJoined      = "room-joined"
	eventHistorySnapshot = "history-snapshot"
	eventMessageCreated  = "message-created"
	eventTypingIndicator = "typing-indicator"
	eventError           = "error"
)

// Envelope is the tagged variant every frame carries; Data is decoded
// against the fixed per-event schema at the boundary.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type joinRoomPayload struct {
	ConversationID int64 `json:"conversation_id" validate:"required"`
}

type sendMessagePayload struct {
	ConversationID int64  `json:"conversation_id" validate:"required"`
	Content        string `json:"content" validate:"required"`
	SenderType     string `json:"sender_type" validate:"required,oneof=user vendor"`
	VendorID       *int64 `json:"vendor_id,omitempty"`
}

type typingPayload struct {
	ConversationID int64  `json:"conversation_id" validate:"required"`
	IsTyping       bool   `json:"is_typing"`
	SenderType     string `json:"sender_type" validate:"required,oneof=user vendor"`
}

type vendorRef struct {
	Name    string `json:"name"`
	Company string `json:"company"`
}

type messagePayload struct {
	ID             int64      `json:"id"`
	ConversationID int64      `json:"conversation_id"`
	Content        string     `json:"content"`
	SenderType     string     `json:"sender_type"`
	VendorID       *int64     `json:"vendor_id,omitempty"`
	CreatedAt      string     `json:"created_at"`
	Vendor         *vendorRef `json:"vendor,omitempty"`
}

type roomJoinedPayload struct {
	ConversationID int64 `json:"conversation_id"`
}

type historySnapshotPayload struct {
	Messages []messagePayload `json:"messages"`
}

type typingIndicatorPayload struct {
	IsTyping   bool   `json:"is_typing"`
	SenderType string `json:"sender_type"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func toMessagePayload(m event.MessageCreated) messagePayload {
	payload := messagePayload{
		ID:             m.Message.ID,
		ConversationID: int64(m.Message.Conversation),
		Content:        m.Message.Content,
		SenderType:     string(m.Message.SenderType),
		VendorID:       (*int64)(m.Message.VendorID),
		CreatedAt:      m.Message.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if m.Vendor != nil {
		payload.Vendor = &vendorRef{Name: m.Vendor.Name, Company: m.Vendor.Company}
	}
	return payload
}

// encodeEvent maps a domain event onto its wire envelope. Unknown
// event types are not a bug worth killing the connection for: they are
// skipped.
func encodeEvent(e event.DomainEvent) (Envelope, bool) {
	var (
		name    string
		payload any
	)
	switch evt := e.(type) {
	case event.RoomJoined:
		name = eventRoomJoined
		payload = roomJoinedPayload{ConversationID: int64(evt.Conversation)}
	case event.HistorySnapshot:
		name = eventHistorySnapshot
		payload = historySnapshotPayload{
			Messages: lo.Map(evt.Messages, func(m event.MessageCreated, _ int) messagePayload {
				return toMessagePayload(m)
			}),
		}
	case event.MessageCreated:
		name = eventMessageCreated
		payload = toMessagePayload(evt)
	case event.TypingIndicator:
		name = eventTypingIndicator
		payload = typingIndicatorPayload{IsTyping: evt.IsTyping, SenderType: string(evt.Sender)}
	case event.OperationFailed:
		name = eventError
		payload = errorPayload{Code: evt.Code, Message: evt.Reason}
	default:
		return Envelope{}, false
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, false
	}
	return Envelope{Event: name, Data: data}, true
}

// Wire error codes.
const (
	codeNotFound    = "not_found"
	codeValidation  = "validation"
	codePersistence = "persistence"
)

func errorCode(err error) string {
	switch {
	case stderrors.Is(err, errors.ErrConversationNotFound),
		stderrors.Is(err, errors.ErrVendorNotFound):
		return codeNotFound
	case stderrors.Is(err, errors.ErrEmptyContent),
		stderrors.Is(err, errors.ErrVendorRequired),
		stderrors.Is(err, errors.ErrInvalidSenderType):
		return codeValidation
	default:
		return codePersistence
	}
}
