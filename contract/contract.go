package contract

import (
	"context"
	"reflect"

	"vendor-chat/domain/chat"
	"vendor-chat/domain/event"
)

// Worker doesn't protect itself.
// Can be silly, focused. The supervisor owns recovery and restarts.
type Worker interface {
	Run(ctx context.Context) error
}

type ISupervisor interface {
	Run(ctx context.Context)
	Start(worker Worker)
	Stop()
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes, avoiding the need
// for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink is one session's delivery endpoint. Consume must never
// block the caller beyond ctx: a slow or gone consumer drops events.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

type IRegistry interface {
	Connect(sessionID string, sink EventSink)
	Disconnect(sessionID string)
	Subscribe(sessionID string, room chat.ConversationID)
	Unsubscribe(sessionID string, room chat.ConversationID)
	SinkFor(sessionID string) (EventSink, bool)
	SinksForRoom(room chat.ConversationID, exclude string) []EventSink
	Rooms(sessionID string) []chat.ConversationID
}

type IRouter interface {
	Join(ctx context.Context, sessionID string, room chat.ConversationID) error
	Leave(ctx context.Context, sessionID string, room chat.ConversationID)
	Post(ctx context.Context, cmd chat.PostMessageCommand) error
	Typing(ctx context.Context, cmd chat.TypingCommand)
}
