package workers

import (
	"context"
	"fmt"
	"log/slog"

	"vendor-chat/contract"
	"vendor-chat/domain/chat"
	"vendor-chat/domain/event"
	"vendor-chat/repositories"
)

type requestKind int

const (
	kindJoin requestKind = iota
	kindLeave
	kindPost
	kindTyping
)

type roomRequest struct {
	kind      requestKind
	sessionID string
	post      chat.PostMessageCommand
	typing    chat.TypingCommand
	done      chan error
}

// RoomWorker is the single sequencer of one conversation. Every join,
// send, and typing relay for the room flows through its mailbox, which
// gives two guarantees at once: persist-then-broadcast is serialized
// per conversation (broadcast order matches store order), and a join's
// history read plus membership registration can never interleave with
// a concurrent send.
type RoomWorker struct {
	conversation chat.ConversationID
	registry     contract.IRegistry
	messages     repositories.IMessageRepository
	vendors      repositories.IVendorRepository
	requests     chan roomRequest
	log          *slog.Logger
}

func NewRoomWorker(conversation chat.ConversationID, registry contract.IRegistry,
	messages repositories.IMessageRepository, vendors repositories.IVendorRepository,
	bufferSize int, log *slog.Logger) *RoomWorker {
	return &RoomWorker{
		conversation: conversation,
		registry:     registry,
		messages:     messages,
		vendors:      vendors,
		requests:     make(chan roomRequest, bufferSize),
		log:          log,
	}
}

// Join registers the session in the room and delivers the history
// snapshot to it. It returns once the worker has processed the join,
// so membership is effective when Join returns.
func (w *RoomWorker) Join(ctx context.Context, sessionID string) error {
	return w.submit(ctx, roomRequest{kind: kindJoin, sessionID: sessionID, done: make(chan error, 1)})
}

// Leave removes the session's membership. No-op if not a member.
func (w *RoomWorker) Leave(ctx context.Context, sessionID string) {
	select {
	case w.requests <- roomRequest{kind: kindLeave, sessionID: sessionID}:
	case <-ctx.Done():
	}
}

// Post persists the message and, only on success, broadcasts it to the
// whole room, sender included. The returned error is the caller's only
// failure signal: nothing unpersisted is ever delivered.
func (w *RoomWorker) Post(ctx context.Context, cmd chat.PostMessageCommand) error {
	return w.submit(ctx, roomRequest{kind: kindPost, post: cmd, done: make(chan error, 1)})
}

// Typing relays a transient presence signal to everyone except the
// sender. Best effort: a full mailbox drops it.
func (w *RoomWorker) Typing(ctx context.Context, cmd chat.TypingCommand) {
	select {
	case w.requests <- roomRequest{kind: kindTyping, typing: cmd}:
	case <-ctx.Done():
	default:
		w.log.Debug(fmt.Sprintf("Room %d mailbox full, dropping typing signal", w.conversation))
	}
}

func (w *RoomWorker) submit(ctx context.Context, req roomRequest) error {
	select {
	case w.requests <- req:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *RoomWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping room worker", "room", int64(w.conversation))
			return ctx.Err()
		case req, ok := <-w.requests:
			if !ok {
				return nil
			}
			w.handle(ctx, req)
		}
	}
}

func (w *RoomWorker) handle(ctx context.Context, req roomRequest) {
	switch req.kind {
	case kindJoin:
		req.done <- w.join(ctx, req.sessionID)
	case kindLeave:
		w.registry.Unsubscribe(req.sessionID, w.conversation)
	case kindPost:
		req.done <- w.post(ctx, req.post)
	case kindTyping:
		w.relayTyping(ctx, req.typing)
	}
}

// join reads history first and registers membership second. Since this
// worker is also the only writer of new messages, nothing can land in
// the gap; the snapshot is a consistent point-in-time read.
func (w *RoomWorker) join(ctx context.Context, sessionID string) error {
	messages, err := w.messages.ListByConversation(w.conversation)
	if err != nil {
		return err
	}
	hydrated := w.hydrate(messages)

	w.registry.Subscribe(sessionID, w.conversation)

	sink, ok := w.registry.SinkFor(sessionID)
	if !ok {
		// Disconnected while the join was queued.
		w.registry.Unsubscribe(sessionID, w.conversation)
		return nil
	}
	if err = sink.Consume(ctx, event.RoomJoined{Conversation: w.conversation}); err != nil {
		return err
	}
	return sink.Consume(ctx, event.HistorySnapshot{Conversation: w.conversation, Messages: hydrated})
}

func (w *RoomWorker) post(ctx context.Context, cmd chat.PostMessageCommand) error {
	message, err := w.messages.Store(cmd)
	if err != nil {
		return err
	}
	evt := event.MessageCreated{Message: message, Vendor: w.vendorOf(message)}
	for _, sink := range w.registry.SinksForRoom(w.conversation, "") {
		if err := sink.Consume(ctx, evt); err != nil {
			w.log.Warn("Failed to deliver message to a member", "room", int64(w.conversation), "error", err)
		}
	}
	return nil
}

func (w *RoomWorker) relayTyping(ctx context.Context, cmd chat.TypingCommand) {
	evt := event.TypingIndicator{
		Conversation: w.conversation,
		IsTyping:     cmd.IsTyping,
		Sender:       cmd.Sender,
	}
	for _, sink := range w.registry.SinksForRoom(w.conversation, cmd.SessionID) {
		// Loss is acceptable for presence, drop errors silently.
		_ = sink.Consume(ctx, evt)
	}
}

// hydrate attaches vendor display fields to vendor-sent messages.
func (w *RoomWorker) hydrate(messages []chat.Message) []event.MessageCreated {
	cache := make(map[chat.VendorID]*chat.Vendor)
	hydrated := make([]event.MessageCreated, 0, len(messages))
	for _, message := range messages {
		evt := event.MessageCreated{Message: message}
		if message.SenderType == chat.SenderVendor && message.VendorID != nil {
			if vendor, ok := cache[*message.VendorID]; ok {
				evt.Vendor = vendor
			} else {
				evt.Vendor = w.lookupVendor(*message.VendorID)
				cache[*message.VendorID] = evt.Vendor
			}
		}
		hydrated = append(hydrated, evt)
	}
	return hydrated
}

func (w *RoomWorker) vendorOf(message chat.Message) *chat.Vendor {
	if message.SenderType != chat.SenderVendor || message.VendorID == nil {
		return nil
	}
	return w.lookupVendor(*message.VendorID)
}

func (w *RoomWorker) lookupVendor(id chat.VendorID) *chat.Vendor {
	vendor, err := w.vendors.Get(id)
	if err != nil {
		w.log.Warn("Vendor lookup failed while hydrating message", "vendor_id", int64(id), "error", err)
		return nil
	}
	return &vendor
}
