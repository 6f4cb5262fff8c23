package chat

type Command interface {
	ConversationID() ConversationID
}

// PostMessageCommand carries a message sending intent. VendorID is
// required when Sender is SenderVendor and ignored otherwise.
type PostMessageCommand struct {
	Conversation ConversationID
	SessionID    string
	Content      string
	Sender       SenderType
	VendorID     *VendorID
}

func (p PostMessageCommand) ConversationID() ConversationID {
	return p.Conversation
}

// TypingCommand is a transient presence signal. It is never persisted
// and never delivered back to the originating session.
type TypingCommand struct {
	Conversation ConversationID
	SessionID    string
	IsTyping     bool
	Sender       SenderType
}

func (t TypingCommand) ConversationID() ConversationID {
	return t.Conversation
}

type CreateConversationCommand struct {
	Title         string
	VendorID      VendorID
	Type          string
	RequisitionID *int64
}

type CreateVendorCommand struct {
	Name    string
	Email   string
	Company string
	Skills  []string
}
