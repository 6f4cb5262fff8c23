package services

import (
	"context"
	"log/slog"
	"strings"

	"vendor-chat/contract"
	"vendor-chat/domain/chat"
	"vendor-chat/errors"
	"vendor-chat/repositories"
)

type IChatService interface {
	Connect(sessionID string, sink contract.EventSink)
	Disconnect(sessionID string)
	JoinRoom(ctx context.Context, sessionID string, conversation chat.ConversationID) error
	LeaveRoom(ctx context.Context, sessionID string, conversation chat.ConversationID)
	PostMessage(ctx context.Context, cmd chat.PostMessageCommand) error
	Typing(ctx context.Context, cmd chat.TypingCommand)

	CreateConversation(cmd chat.CreateConversationCommand) (chat.Conversation, error)
	GetConversation(id chat.ConversationID) (chat.Conversation, error)
	ListConversations() ([]chat.Conversation, error)
	CreateVendor(cmd chat.CreateVendorCommand) (chat.Vendor, error)
	GetVendor(id chat.VendorID) (chat.Vendor, error)
	ListVendors() ([]chat.Vendor, error)
}

// ChatService fronts the room router for the transport layer and
// rejects invalid operations before anything is dispatched: a refused
// join adds no membership, a refused send persists and broadcasts
// nothing.
type ChatService struct {
	log           *slog.Logger
	registry      contract.IRegistry
	router        contract.IRouter
	conversations repositories.IConversationRepository
	vendors       repositories.IVendorRepository
}

func NewChatService(log *slog.Logger, registry contract.IRegistry, router contract.IRouter,
	conversations repositories.IConversationRepository, vendors repositories.IVendorRepository) *ChatService {
	return &ChatService{
		log:           log,
		registry:      registry,
		router:        router,
		conversations: conversations,
		vendors:       vendors,
	}
}

func (s *ChatService) Connect(sessionID string, sink contract.EventSink) {
	s.registry.Connect(sessionID, sink)
}

func (s *ChatService) Disconnect(sessionID string) {
	s.registry.Disconnect(sessionID)
}

func (s *ChatService) JoinRoom(ctx context.Context, sessionID string, conversation chat.ConversationID) error {
	if _, err := s.conversations.Get(conversation); err != nil {
		return err
	}
	return s.router.Join(ctx, sessionID, conversation)
}

func (s *ChatService) LeaveRoom(ctx context.Context, sessionID string, conversation chat.ConversationID) {
	s.router.Leave(ctx, sessionID, conversation)
}

// PostMessage validates, then hands the message to the conversation's
// room worker, which persists and broadcasts it in order.
func (s *ChatService) PostMessage(ctx context.Context, cmd chat.PostMessageCommand) error {
	if strings.TrimSpace(cmd.Content) == "" {
		return errors.ErrEmptyContent
	}
	if !cmd.Sender.Valid() {
		return errors.ErrInvalidSenderType
	}
	if cmd.Sender == chat.SenderVendor {
		if cmd.VendorID == nil {
			return errors.ErrVendorRequired
		}
		if _, err := s.vendors.Get(*cmd.VendorID); err != nil {
			return err
		}
	}
	if _, err := s.conversations.Get(cmd.Conversation); err != nil {
		return err
	}
	return s.router.Post(ctx, cmd)
}

func (s *ChatService) Typing(ctx context.Context, cmd chat.TypingCommand) {
	s.router.Typing(ctx, cmd)
}

func (s *ChatService) CreateConversation(cmd chat.CreateConversationCommand) (chat.Conversation, error) {
	return s.conversations.Create(cmd)
}

func (s *ChatService) GetConversation(id chat.ConversationID) (chat.Conversation, error) {
	return s.conversations.Get(id)
}

func (s *ChatService) ListConversations() ([]chat.Conversation, error) {
	return s.conversations.List()
}

func (s *ChatService) CreateVendor(cmd chat.CreateVendorCommand) (chat.Vendor, error) {
	return s.vendors.Create(cmd)
}

func (s *ChatService) GetVendor(id chat.VendorID) (chat.Vendor, error) {
	return s.vendors.Get(id)
}

func (s *ChatService) ListVendors() ([]chat.Vendor, error) {
	return s.vendors.List()
}
