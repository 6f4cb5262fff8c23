package sink

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"vendor-chat/domain/chat"
	"vendor-chat/domain/event"
)

func message(id int64, content string) event.MessageCreated {
	return event.MessageCreated{Message: chat.Message{
		ID:           id,
		Conversation: 1,
		Content:      content,
		SenderType:   chat.SenderUser,
		CreatedAt:    time.Now().UTC(),
	}}
}

func Test_SessionSink_Preserves_Enqueue_Order(t *testing.T) {
	req := require.New(t)
	s := NewSessionSink(slog.Default(), 8)
	ctx := context.Background()

	req.NoError(s.Consume(ctx, message(1, "first")))
	req.NoError(s.Consume(ctx, message(2, "second")))
	req.NoError(s.Consume(ctx, message(3, "third")))

	for _, want := range []string{"first", "second", "third"} {
		got := (<-s.Events()).(event.MessageCreated)
		req.Equal(want, got.Message.Content)
	}
}

func Test_SessionSink_Deduplicates_Snapshot_Against_Broadcast(t *testing.T) {
	req := require.New(t)
	s := NewSessionSink(slog.Default(), 8)
	ctx := context.Background()

	// Given a snapshot already containing message 1
	snapshot := event.HistorySnapshot{
		Conversation: 1,
		Messages:     []event.MessageCreated{message(1, "already seen")},
	}
	req.NoError(s.Consume(ctx, snapshot))

	// When the same message arrives again as a broadcast
	req.NoError(s.Consume(ctx, message(1, "already seen")))
	req.NoError(s.Consume(ctx, message(2, "new")))

	// Then the duplicate is dropped, the rest flows through in order
	req.IsType(event.HistorySnapshot{}, <-s.Events())
	next := (<-s.Events()).(event.MessageCreated)
	req.Equal(int64(2), next.Message.ID)
	select {
	case e := <-s.Events():
		req.Failf("unexpected event", "%v", e)
	default:
	}
}

func Test_SessionSink_NonMessage_Events_Are_Never_Deduplicated(t *testing.T) {
	req := require.New(t)
	s := NewSessionSink(slog.Default(), 8)
	ctx := context.Background()

	typing := event.TypingIndicator{Conversation: 1, IsTyping: true, Sender: chat.SenderVendor}
	req.NoError(s.Consume(ctx, typing))
	req.NoError(s.Consume(ctx, typing))

	req.Equal(typing, <-s.Events())
	req.Equal(typing, <-s.Events())
}

func Test_SessionSink_Full_Buffer_Drops_Instead_Of_Blocking(t *testing.T) {
	req := require.New(t)
	s := NewSessionSink(slog.Default(), 1)
	ctx := context.Background()

	req.NoError(s.Consume(ctx, message(1, "kept")))

	done := make(chan struct{})
	go func() {
		_ = s.Consume(ctx, message(2, "dropped"))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		req.Fail("Consume must not block on a full buffer")
	}

	got := (<-s.Events()).(event.MessageCreated)
	req.Equal(int64(1), got.Message.ID)
}

func Test_SessionSink_Close_Is_Terminal_And_Idempotent(t *testing.T) {
	req := require.New(t)
	s := NewSessionSink(slog.Default(), 8)
	ctx := context.Background()

	s.Close()
	s.Close()

	// A late broadcast against a closed sink is swallowed, not an error
	req.NoError(s.Consume(ctx, message(1, "too late")))

	_, open := <-s.Events()
	req.False(open)
}
