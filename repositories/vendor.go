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

const vendorStatusActive = "active"

type IVendorRepository interface {
	Create(cmd chat.CreateVendorCommand) (chat.Vendor, error)
	Get(id chat.VendorID) (chat.Vendor, error)
	List() ([]chat.Vendor, error)
}

type VendorRepository struct {
	db  *badger.DB
	seq *badger.Sequence
	log *slog.Logger
}

func NewVendorRepository(db *badger.DB, log *slog.Logger) (*VendorRepository, error) {
	seq, err := db.GetSequence([]byte("seq:vendor"), 10)
	if err != nil {
		return nil, err
	}
	return &VendorRepository{db: db, seq: seq, log: log}, nil
}

func (v *VendorRepository) Close() error {
	return v.seq.Release()
}

type diskVendor struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Company   string    `json:"company"`
	Skills    []string  `json:"skills"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func (v *VendorRepository) Create(cmd chat.CreateVendorCommand) (chat.Vendor, error) {
	next, err := v.seq.Next()
	if err != nil {
		return chat.Vendor{}, err
	}
	dv := diskVendor{
		ID:        int64(next) + 1,
		Name:      cmd.Name,
		Email:     cmd.Email,
		Company:   cmd.Company,
		Skills:    cmd.Skills,
		Status:    vendorStatusActive,
		CreatedAt: time.Now().UTC().Round(0),
	}
	bytes, err := json.Marshal(dv)
	if err != nil {
		return chat.Vendor{}, err
	}
	err = v.db.Update(func(txn *badger.Txn) error {
		return txn.Set(vendorKey(chat.VendorID(dv.ID)), bytes)
	})
	if err != nil {
		return chat.Vendor{}, err
	}
	return toVendor(dv), nil
}

func (v *VendorRepository) Get(id chat.VendorID) (chat.Vendor, error) {
	var dv diskVendor
	err := v.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(vendorKey(id))
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return errors.ErrVendorNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			return json.Unmarshal(value, &dv)
		})
	})
	if err != nil {
		return chat.Vendor{}, err
	}
	return toVendor(dv), nil
}

// List returns active vendors, newest first.
func (v *VendorRepository) List() ([]chat.Vendor, error) {
	var diskVendors []diskVendor
	err := v.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Prefix = vendorPrefix
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(vendorPrefix); it.ValidForPrefix(vendorPrefix); it.Next() {
			var dv diskVendor
			if err := it.Item().Value(func(value []byte) error {
				return json.Unmarshal(value, &dv)
			}); err != nil {
				return err
			}
			if dv.Status == vendorStatusActive {
				diskVendors = append(diskVendors, dv)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(diskVendors, func(i, j int) bool {
		if !diskVendors[i].CreatedAt.Equal(diskVendors[j].CreatedAt) {
			return diskVendors[i].CreatedAt.After(diskVendors[j].CreatedAt)
		}
		return diskVendors[i].ID > diskVendors[j].ID
	})
	return lo.Map(diskVendors, func(dv diskVendor, _ int) chat.Vendor {
		return toVendor(dv)
	}), nil
}

func toVendor(dv diskVendor) chat.Vendor {
	return chat.Vendor{
		ID:        chat.VendorID(dv.ID),
		Name:      dv.Name,
		Email:     dv.Email,
		Company:   dv.Company,
		Skills:    dv.Skills,
		Status:    dv.Status,
		CreatedAt: dv.CreatedAt.UTC(),
	}
}
