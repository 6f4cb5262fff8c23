// Package server exposes the conversation core over one WebSocket
// endpoint (real-time events) and a small REST API (conversation and
// vendor CRUD).
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"vendor-chat/services"
	"vendor-chat/sink"
)

// WSHandler upgrades HTTP requests into chat sessions. One persistent
// connection is one session: connect allocates it, the read loop
// returning tears it down everywhere.
type WSHandler struct {
	log        *slog.Logger
	service    services.IChatService
	bufferSize int
	upgrader   websocket.Upgrader
	validate   *validator.Validate
}

func NewWSHandler(log *slog.Logger, service services.IChatService, bufferSize int) *WSHandler {
	return &WSHandler{
		log:        log,
		service:    service,
		bufferSize: bufferSize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The UI is served from a different origin in development,
			// same openness as the original gateway's CORS settings.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		validate: validator.New(),
	}
}

func (h *WSHandler) Handle(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("WebSocket upgrade failed", "error", err)
		return
	}

	sessionID := uuid.NewString()
	sessionSink := sink.NewSessionSink(h.log, h.bufferSize)
	h.service.Connect(sessionID, sessionSink)
	h.log.Info("Session connected", "session_id", sessionID, "remote", conn.RemoteAddr().String())

	s := &session{
		id:       sessionID,
		conn:     conn,
		sink:     sessionSink,
		service:  h.service,
		validate: h.validate,
		log:      h.log,
	}

	ctx, cancel := context.WithCancel(context.Background())
	go s.writePump()
	s.readPump(ctx)

	// Disconnect before closing the sink: once the session leaves the
	// registry no new broadcast can target it, and the closed sink
	// swallows anything already in flight.
	cancel()
	h.service.Disconnect(sessionID)
	sessionSink.Close()
	_ = conn.Close()
	h.log.Info("Session disconnected", "session_id", sessionID)
}
