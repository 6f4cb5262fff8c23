// Package chat contains the core concepts of the conversation system.
// Entities are immutable once created and carry no runtime, network,
// or storage logic.
package chat

import "time"

type ConversationID int64

type VendorID int64

// SenderType discriminates which side of a conversation authored a message.
type SenderType string

const (
	SenderUser   SenderType = "user"
	SenderVendor SenderType = "vendor"
)

func (s SenderType) Valid() bool {
	return s == SenderUser || s == SenderVendor
}

// Message is an immutable, append-only chat event. The ID is assigned
// monotonically by the message store and defines the total order of a
// conversation together with CreatedAt.
type Message struct {
	ID           int64
	Conversation ConversationID
	Content      string
	SenderType   SenderType
	VendorID     *VendorID
	CreatedAt    time.Time
}
