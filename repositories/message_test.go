package repositories

import (
	"log/slog"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	"vendor-chat/domain/chat"
	"vendor-chat/errors"
)

func newTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// seedConversation creates a vendor and a conversation referencing it.
func seedConversation(t *testing.T, db *badger.DB) (chat.Vendor, chat.Conversation) {
	t.Helper()
	req := require.New(t)

	vendors, err := NewVendorRepository(db, slog.Default())
	req.NoError(err)
	t.Cleanup(func() { _ = vendors.Close() })
	vendor, err := vendors.Create(chat.CreateVendorCommand{
		Name:    "Alice Smith",
		Email:   "alice@acme.test",
		Company: "Acme Consulting",
		Skills:  []string{"React", "Go"},
	})
	req.NoError(err)

	conversations, err := NewConversationRepository(db, slog.Default())
	req.NoError(err)
	t.Cleanup(func() { _ = conversations.Close() })
	conversation, err := conversations.Create(chat.CreateConversationCommand{
		Title:    "Frontend contractors",
		VendorID: vendor.ID,
		Type:     "vendor_chat",
	})
	req.NoError(err)

	return vendor, conversation
}

func Test_Store_Assigns_Monotonic_Ids_And_List_Preserves_Order(t *testing.T) {
	req := require.New(t)
	db := newTestDB(t)
	_, conversation := seedConversation(t, db)

	repository, err := NewMessageRepository(db, slog.Default())
	req.NoError(err)
	defer repository.Close()

	// When three messages are stored in sequence
	contents := []string{"first", "second", "third"}
	for _, content := range contents {
		_, err = repository.Store(chat.PostMessageCommand{
			Conversation: conversation.ID,
			Content:      content,
			Sender:       chat.SenderUser,
		})
		req.NoError(err)
	}

	// Then the history comes back complete, oldest first
	messages, err := repository.ListByConversation(conversation.ID)
	req.NoError(err)
	req.Len(messages, len(contents))
	for i, message := range messages {
		req.Equal(contents[i], message.Content)
		req.Equal(chat.SenderUser, message.SenderType)
		req.Nil(message.VendorID)
	}

	// And ids are strictly increasing, timestamps never go backwards
	for i := 1; i < len(messages); i++ {
		req.Greater(messages[i].ID, messages[i-1].ID)
		req.False(messages[i].CreatedAt.Before(messages[i-1].CreatedAt))
	}
}

func Test_Store_Unknown_Conversation_Fails_NotFound(t *testing.T) {
	req := require.New(t)
	db := newTestDB(t)

	repository, err := NewMessageRepository(db, slog.Default())
	req.NoError(err)
	defer repository.Close()

	// When storing into a conversation that does not exist
	_, err = repository.Store(chat.PostMessageCommand{
		Conversation: 42,
		Content:      "hello?",
		Sender:       chat.SenderUser,
	})

	// Then nothing is persisted
	req.ErrorIs(err, errors.ErrConversationNotFound)
	messages, err := repository.ListByConversation(42)
	req.NoError(err)
	req.Empty(messages)
}

func Test_Store_Empty_Content_Fails_Validation(t *testing.T) {
	req := require.New(t)
	db := newTestDB(t)
	_, conversation := seedConversation(t, db)

	repository, err := NewMessageRepository(db, slog.Default())
	req.NoError(err)
	defer repository.Close()

	for _, content := range []string{"", "   ", "\n\t"} {
		_, err = repository.Store(chat.PostMessageCommand{
			Conversation: conversation.ID,
			Content:      content,
			Sender:       chat.SenderUser,
		})
		req.ErrorIs(err, errors.ErrEmptyContent)
	}

	messages, err := repository.ListByConversation(conversation.ID)
	req.NoError(err)
	req.Empty(messages)
}

func Test_Store_Vendor_Sender_Requires_VendorID(t *testing.T) {
	req := require.New(t)
	db := newTestDB(t)
	vendor, conversation := seedConversation(t, db)

	repository, err := NewMessageRepository(db, slog.Default())
	req.NoError(err)
	defer repository.Close()

	// Missing vendor_id is rejected
	_, err = repository.Store(chat.PostMessageCommand{
		Conversation: conversation.ID,
		Content:      "quote attached",
		Sender:       chat.SenderVendor,
	})
	req.ErrorIs(err, errors.ErrVendorRequired)

	// With a vendor_id the message persists and keeps the reference
	stored, err := repository.Store(chat.PostMessageCommand{
		Conversation: conversation.ID,
		Content:      "quote attached",
		Sender:       chat.SenderVendor,
		VendorID:     &vendor.ID,
	})
	req.NoError(err)
	req.NotNil(stored.VendorID)
	req.Equal(vendor.ID, *stored.VendorID)

	messages, err := repository.ListByConversation(conversation.ID)
	req.NoError(err)
	req.Len(messages, 1)
	req.Equal(stored.ID, messages[0].ID)
}

func Test_Store_Touches_Conversation_UpdatedAt(t *testing.T) {
	req := require.New(t)
	db := newTestDB(t)
	_, conversation := seedConversation(t, db)

	conversations, err := NewConversationRepository(db, slog.Default())
	req.NoError(err)
	defer conversations.Close()
	repository, err := NewMessageRepository(db, slog.Default())
	req.NoError(err)
	defer repository.Close()

	before, err := conversations.Get(conversation.ID)
	req.NoError(err)

	stored, err := repository.Store(chat.PostMessageCommand{
		Conversation: conversation.ID,
		Content:      "bump",
		Sender:       chat.SenderUser,
	})
	req.NoError(err)

	after, err := conversations.Get(conversation.ID)
	req.NoError(err)
	req.False(after.UpdatedAt.Before(before.UpdatedAt))
	req.Equal(stored.CreatedAt, after.UpdatedAt)
}
