package sink

import (
	"context"
	"log/slog"
	"sync"

	"vendor-chat/domain/event"
)

// SessionSink is one session's buffered delivery channel. Room workers
// write into it, the session's write pump drains it, so per-recipient
// order is exactly enqueue order.
//
// The sink deduplicates messages by id across the history snapshot and
// later broadcasts: a message persisted while a (re-)join was in
// flight arrives once, never twice.
type SessionSink struct {
	log *slog.Logger

	mu     sync.Mutex
	events chan event.DomainEvent
	closed bool
	seen   map[int64]struct{}
}

func NewSessionSink(log *slog.Logger, bufferSize int) *SessionSink {
	return &SessionSink{
		log:    log,
		events: make(chan event.DomainEvent, bufferSize),
		seen:   make(map[int64]struct{}),
	}
}

// Consume is called by room workers. It never blocks: a closed sink
// swallows the event (the session is gone, which is transport noise,
// not a caller error) and a full buffer drops it with a log line.
func (s *SessionSink) Consume(ctx context.Context, e event.DomainEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	switch evt := e.(type) {
	case event.HistorySnapshot:
		for _, m := range evt.Messages {
			s.seen[m.Message.ID] = struct{}{}
		}
	case event.MessageCreated:
		if _, duplicate := s.seen[evt.Message.ID]; duplicate {
			return nil
		}
		s.seen[evt.Message.ID] = struct{}{}
	}

	select {
	case s.events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		s.log.Warn("Session buffer full, dropping event")
		return nil
	}
}

// Events is drained by the session's write pump. The channel closes
// when the sink closes.
func (s *SessionSink) Events() <-chan event.DomainEvent {
	return s.events
}

// Close makes the sink refuse further events and closes the delivery
// channel. Safe against concurrent Consume calls; idempotent.
func (s *SessionSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	close(s.events)
}
