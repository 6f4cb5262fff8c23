package repositories

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"

	"vendor-chat/domain/chat"
	"vendor-chat/errors"
)

type IMessageRepository interface {
	Store(cmd chat.PostMessageCommand) (chat.Message, error)
	ListByConversation(conversation chat.ConversationID) ([]chat.Message, error)
}

// MessageRepository persists messages in BadgerDB. Message ids come
// from a badger sequence, so the id order is the persistence order and
// serves as the tie-breaker the total per-conversation order relies on.
type MessageRepository struct {
	db  *badger.DB
	seq *badger.Sequence
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) (*MessageRepository, error) {
	seq, err := db.GetSequence([]byte("seq:message"), 100)
	if err != nil {
		return nil, err
	}
	return &MessageRepository{db: db, seq: seq, log: log}, nil
}

// Close releases the id sequence. Unused ids in the current lease are
// lost, which only leaves gaps, never reorders.
func (m *MessageRepository) Close() error {
	return m.seq.Release()
}

// diskMessage is the stored representation of a message.
type diskMessage struct {
	ID           int64           `json:"id"`
	Conversation int64           `json:"conversation_id"`
	Content      string          `json:"content"`
	SenderType   chat.SenderType `json:"sender_type"`
	VendorID     *int64          `json:"vendor_id,omitempty"`
	At           time.Time       `json:"created_at"`
}

// Store validates and persists a message, touching the parent
// conversation's UpdatedAt in the same transaction. The conversation
// must already exist; nothing is written otherwise.
func (m *MessageRepository) Store(cmd chat.PostMessageCommand) (chat.Message, error) {
	if strings.TrimSpace(cmd.Content) == "" {
		return chat.Message{}, errors.ErrEmptyContent
	}
	if !cmd.Sender.Valid() {
		return chat.Message{}, errors.ErrInvalidSenderType
	}
	if cmd.Sender == chat.SenderVendor && cmd.VendorID == nil {
		return chat.Message{}, errors.ErrVendorRequired
	}

	next, err := m.seq.Next()
	if err != nil {
		return chat.Message{}, err
	}
	id := int64(next) + 1
	// Round(0) strips the monotonic reading so stored and re-read
	// timestamps compare equal.
	now := time.Now().UTC().Round(0)

	dm := diskMessage{
		ID:           id,
		Conversation: int64(cmd.Conversation),
		Content:      cmd.Content,
		SenderType:   cmd.Sender,
		At:           now,
	}
	if cmd.Sender == chat.SenderVendor {
		dm.VendorID = (*int64)(cmd.VendorID)
	}
	bytes, err := json.Marshal(dm)
	if err != nil {
		return chat.Message{}, err
	}

	err = m.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(conversationKey(cmd.Conversation))
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return errors.ErrConversationNotFound
		}
		if err != nil {
			return err
		}

		// The conversation list is ordered by recent activity, so a
		// stored message moves its conversation to the front.
		var dc diskConversation
		if err = item.Value(func(value []byte) error {
			return json.Unmarshal(value, &dc)
		}); err != nil {
			return err
		}
		dc.UpdatedAt = now
		touched, err := json.Marshal(dc)
		if err != nil {
			return err
		}
		if err = txn.Set(conversationKey(cmd.Conversation), touched); err != nil {
			return err
		}

		return txn.Set(messageKey(cmd.Conversation, id), bytes)
	})
	if err != nil {
		return chat.Message{}, err
	}
	return toMessage(dm), nil
}

// ListByConversation returns the complete current history of a
// conversation, oldest first. The padded composite key makes the
// forward prefix scan come back already sorted.
func (m *MessageRepository) ListByConversation(conversation chat.ConversationID) ([]chat.Message, error) {
	var diskMessages []diskMessage
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := messagePrefix(conversation)
		options := badger.DefaultIteratorOptions
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var dm diskMessage
			if err := it.Item().Value(func(value []byte) error {
				return json.Unmarshal(value, &dm)
			}); err != nil {
				return err
			}
			diskMessages = append(diskMessages, dm)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lo.Map(diskMessages, func(dm diskMessage, _ int) chat.Message {
		return toMessage(dm)
	}), nil
}

func toMessage(dm diskMessage) chat.Message {
	return chat.Message{
		ID:           dm.ID,
		Conversation: chat.ConversationID(dm.Conversation),
		Content:      dm.Content,
		SenderType:   dm.SenderType,
		VendorID:     (*chat.VendorID)(dm.VendorID),
		CreatedAt:    dm.At.UTC(),
	}
}
