// Package runtime wires sessions, rooms, and room workers together.
// It orchestrates delivery without containing domain rules.
package runtime

import (
	"context"
	"log/slog"
	"sync"

	"vendor-chat/contract"
	"vendor-chat/domain/chat"
	"vendor-chat/repositories"
	"vendor-chat/runtime/workers"
)

// Router maps conversations to their room workers. It is an explicit
// instance owned by the composition root and injected wherever rooms
// are needed, never ambient state. Workers are created lazily on first
// join or send and supervised from then on; empty rooms are retained
// until shutdown, which has no observable effect.
type Router struct {
	mu         sync.Mutex
	log        *slog.Logger
	registry   contract.IRegistry
	messages   repositories.IMessageRepository
	vendors    repositories.IVendorRepository
	supervisor contract.ISupervisor
	bufferSize int
	rooms      map[chat.ConversationID]*workers.RoomWorker
}

func NewRouter(log *slog.Logger, registry contract.IRegistry,
	messages repositories.IMessageRepository, vendors repositories.IVendorRepository,
	supervisor contract.ISupervisor, bufferSize int) *Router {
	return &Router{
		log:        log,
		registry:   registry,
		messages:   messages,
		vendors:    vendors,
		supervisor: supervisor,
		bufferSize: bufferSize,
		rooms:      make(map[chat.ConversationID]*workers.RoomWorker),
	}
}

// room returns the worker for a conversation, starting one under
// supervision on first use.
func (r *Router) room(conversation chat.ConversationID) *workers.RoomWorker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if worker, ok := r.rooms[conversation]; ok {
		return worker
	}
	worker := workers.NewRoomWorker(conversation, r.registry, r.messages, r.vendors, r.bufferSize, r.log)
	r.rooms[conversation] = worker
	r.supervisor.Start(worker)
	r.log.Debug("Room worker started", "room", int64(conversation))
	return worker
}

// Join is idempotent at the membership level; re-joining still
// triggers a fresh history delivery, which is what reconnect-and-
// resync relies on.
func (r *Router) Join(ctx context.Context, sessionID string, conversation chat.ConversationID) error {
	return r.room(conversation).Join(ctx, sessionID)
}

func (r *Router) Leave(ctx context.Context, sessionID string, conversation chat.ConversationID) {
	r.mu.Lock()
	worker, ok := r.rooms[conversation]
	r.mu.Unlock()
	if !ok {
		return
	}
	worker.Leave(ctx, sessionID)
}

func (r *Router) Post(ctx context.Context, cmd chat.PostMessageCommand) error {
	return r.room(cmd.Conversation).Post(ctx, cmd)
}

func (r *Router) Typing(ctx context.Context, cmd chat.TypingCommand) {
	r.mu.Lock()
	worker, ok := r.rooms[cmd.Conversation]
	r.mu.Unlock()
	if !ok {
		// Nobody has ever joined: relaying to an empty room is a no-op.
		return
	}
	worker.Typing(ctx, cmd)
}
