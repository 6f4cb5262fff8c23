package chat

import "time"

// Conversation is the durable room identity. It is never deleted;
// UpdatedAt moves forward whenever a message is stored in it.
type Conversation struct {
	ID            ConversationID
	Title         string
	VendorID      VendorID
	Type          string
	RequisitionID *int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Vendor is referenced by conversations and vendor-sent messages.
// Name and Company are the denormalized display fields delivered
// alongside vendor messages.
type Vendor struct {
	ID        VendorID
	Name      string
	Email     string
	Company   string
	Skills    []string
	Status    string
	CreatedAt time.Time
}
