package repositories

import (
	"fmt"

	"vendor-chat/domain/chat"
)

// Keys are zero-padded to 19 digits so that lexicographic order in
// BadgerDB matches numeric order. Message keys are composite
// (conversation, then monotonic message id), which makes a forward
// prefix scan return a conversation's history oldest-first.
func messageKey(conversation chat.ConversationID, id int64) []byte {
	return []byte(fmt.Sprintf("msg:%019d:%019d", conversation, id))
}

func messagePrefix(conversation chat.ConversationID) []byte {
	return []byte(fmt.Sprintf("msg:%019d:", conversation))
}

func conversationKey(id chat.ConversationID) []byte {
	return []byte(fmt.Sprintf("conv:%019d", id))
}

func vendorKey(id chat.VendorID) []byte {
	return []byte(fmt.Sprintf("vendor:%019d", id))
}

var (
	conversationPrefix = []byte("conv:")
	vendorPrefix       = []byte("vendor:")
)
