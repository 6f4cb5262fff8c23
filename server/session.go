package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"

	"vendor-chat/domain/chat"
	"vendor-chat/domain/event"
	"vendor-chat/services"
	"vendor-chat/sink"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// session binds one WebSocket connection to one registry session. The
// read pump parses envelopes and calls the chat service; the write
// pump is the single writer on the connection, draining the session
// sink so per-recipient order is preserved.
type session struct {
	id       string
	conn     *websocket.Conn
	sink     *sink.SessionSink
	service  services.IChatService
	validate *validator.Validate
	log      *slog.Logger
}

func (s *session) readPump(ctx context.Context) {
	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				s.log.Warn("Unexpected close", "session_id", s.id, "error", err)
			} else {
				s.log.Debug(fmt.Sprintf("Session %s disconnected", s.id))
			}
			return
		}
		s.handle(ctx, raw)
	}
}

func (s *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case evt, ok := <-s.sink.Events():
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			envelope, known := encodeEvent(evt)
			if !known {
				continue
			}
			bytes, err := json.Marshal(envelope)
			if err != nil {
				s.log.Error("Failed to encode outbound event", "session_id", s.id, "error", err)
				continue
			}
			if err = s.conn.WriteMessage(websocket.TextMessage, bytes); err != nil {
				s.log.Debug("Write failed, session gone", "session_id", s.id, "error", err)
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handle dispatches one inbound envelope. Failures are reported to
// this session only, through the same ordered delivery path as every
// other event.
func (s *session) handle(ctx context.Context, raw []byte) {
	var envelope Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		s.fail(ctx, 0, codeValidation, "malformed envelope")
		return
	}

	switch envelope.Event {
	case eventJoinRoom:
		var payload joinRoomPayload
		if !s.decode(ctx, envelope.Data, &payload) {
			return
		}
		conversation := chat.ConversationID(payload.ConversationID)
		if err := s.service.JoinRoom(ctx, s.id, conversation); err != nil {
			s.fail(ctx, conversation, errorCode(err), err.Error())
		}

	case eventSendMessage:
		var payload sendMessagePayload
		if !s.decode(ctx, envelope.Data, &payload) {
			return
		}
		cmd := chat.PostMessageCommand{
			Conversation: chat.ConversationID(payload.ConversationID),
			SessionID:    s.id,
			Content:      payload.Content,
			Sender:       chat.SenderType(payload.SenderType),
			VendorID:     (*chat.VendorID)(payload.VendorID),
		}
		if err := s.service.PostMessage(ctx, cmd); err != nil {
			s.fail(ctx, cmd.Conversation, errorCode(err), err.Error())
		}

	case eventTyping:
		var payload typingPayload
		if !s.decode(ctx, envelope.Data, &payload) {
			return
		}
		s.service.Typing(ctx, chat.TypingCommand{
			Conversation: chat.ConversationID(payload.ConversationID),
			SessionID:    s.id,
			IsTyping:     payload.IsTyping,
			Sender:       chat.SenderType(payload.SenderType),
		})

	default:
		s.fail(ctx, 0, codeValidation, fmt.Sprintf("unknown event %q", envelope.Event))
	}
}

// decode unmarshals and validates a payload against its schema,
// reporting a validation error to the session on failure.
func (s *session) decode(ctx context.Context, data json.RawMessage, payload any) bool {
	if err := json.Unmarshal(data, payload); err != nil {
		s.fail(ctx, 0, codeValidation, "malformed payload")
		return false
	}
	if err := s.validate.Struct(payload); err != nil {
		s.fail(ctx, 0, codeValidation, err.Error())
		return false
	}
	return true
}

func (s *session) fail(ctx context.Context, conversation chat.ConversationID, code, reason string) {
	_ = s.sink.Consume(ctx, event.OperationFailed{
		Conversation: conversation,
		Code:         code,
		Reason:       reason,
	})
}
