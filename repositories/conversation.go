package repositories

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"

	"vendor-chat/domain/chat"
	"vendor-chat/errors"
)

type IConversationRepository interface {
	Create(cmd chat.CreateConversationCommand) (chat.Conversation, error)
	Get(id chat.ConversationID) (chat.Conversation, error)
	List() ([]chat.Conversation, error)
}

type ConversationRepository struct {
	db  *badger.DB
	seq *badger.Sequence
	log *slog.Logger
}

func NewConversationRepository(db *badger.DB, log *slog.Logger) (*ConversationRepository, error) {
	seq, err := db.GetSequence([]byte("seq:conversation"), 10)
	if err != nil {
		return nil, err
	}
	return &ConversationRepository{db: db, seq: seq, log: log}, nil
}

func (c *ConversationRepository) Close() error {
	return c.seq.Release()
}

type diskConversation struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	VendorID      int64     `json:"vendor_id"`
	Type          string    `json:"type"`
	RequisitionID *int64    `json:"requisition_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Create persists a new conversation after checking the referenced
// vendor exists in the same transaction.
func (c *ConversationRepository) Create(cmd chat.CreateConversationCommand) (chat.Conversation, error) {
	next, err := c.seq.Next()
	if err != nil {
		return chat.Conversation{}, err
	}
	now := time.Now().UTC().Round(0)
	dc := diskConversation{
		ID:            int64(next) + 1,
		Title:         cmd.Title,
		VendorID:      int64(cmd.VendorID),
		Type:          cmd.Type,
		RequisitionID: cmd.RequisitionID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	bytes, err := json.Marshal(dc)
	if err != nil {
		return chat.Conversation{}, err
	}

	err = c.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(vendorKey(cmd.VendorID)); err != nil {
			if stderrors.Is(err, badger.ErrKeyNotFound) {
				return errors.ErrVendorNotFound
			}
			return err
		}
		return txn.Set(conversationKey(chat.ConversationID(dc.ID)), bytes)
	})
	if err != nil {
		return chat.Conversation{}, err
	}
	return toConversation(dc), nil
}

func (c *ConversationRepository) Get(id chat.ConversationID) (chat.Conversation, error) {
	var dc diskConversation
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(conversationKey(id))
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return errors.ErrConversationNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			return json.Unmarshal(value, &dc)
		})
	})
	if err != nil {
		return chat.Conversation{}, err
	}
	return toConversation(dc), nil
}

// List returns every conversation, most recently updated first.
func (c *ConversationRepository) List() ([]chat.Conversation, error) {
	var diskConversations []diskConversation
	err := c.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Prefix = conversationPrefix
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(conversationPrefix); it.ValidForPrefix(conversationPrefix); it.Next() {
			var dc diskConversation
			if err := it.Item().Value(func(value []byte) error {
				return json.Unmarshal(value, &dc)
			}); err != nil {
				return err
			}
			diskConversations = append(diskConversations, dc)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(diskConversations, func(i, j int) bool {
		if !diskConversations[i].UpdatedAt.Equal(diskConversations[j].UpdatedAt) {
			return diskConversations[i].UpdatedAt.After(diskConversations[j].UpdatedAt)
		}
		return diskConversations[i].ID > diskConversations[j].ID
	})
	return lo.Map(diskConversations, func(dc diskConversation, _ int) chat.Conversation {
		return toConversation(dc)
	}), nil
}

func toConversation(dc diskConversation) chat.Conversation {
	return chat.Conversation{
		ID:            chat.ConversationID(dc.ID),
		Title:         dc.Title,
		VendorID:      chat.VendorID(dc.VendorID),
		Type:          dc.Type,
		RequisitionID: dc.RequisitionID,
		CreatedAt:     dc.CreatedAt.UTC(),
		UpdatedAt:     dc.UpdatedAt.UTC(),
	}
}
