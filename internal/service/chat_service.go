package service

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/nextbenchapp/nextbench/internal/events"
	"github.com/nextbenchapp/nextbench/internal/model"
	"gorm.io/gorm"
)

var ErrNotMember = errors.New("you are not a member of this conversation")

// Replying to someone else's message within this window earns the
// quick-reply reward.
const quickReplyWindow = 5 * time.Minute

// ConversationStore is the slice of the conversation repository the chat
// service uses.
type ConversationStore interface {
	Create(conv *model.Conversation) error
	FindByID(id uuid.UUID) (*model.Conversation, error)
	FindDirectConversation(userA, userB uuid.UUID) (*model.Conversation, error)
	GetUserConversations(userID uuid.UUID) ([]model.Conversation, error)
	AddMember(conversationID, userID uuid.UUID) error
	RemoveMember(conversationID, userID uuid.UUID) error
	IsMember(conversationID, userID uuid.UUID) (bool, error)
	GetMemberIDs(conversationID uuid.UUID) ([]uuid.UUID, error)
	TouchUpdatedAt(conversationID uuid.UUID) error
	UpdateLastRead(conversationID, userID uuid.UUID) error
	Delete(conversationID uuid.UUID) error
}

// MessageStore is the slice of the message repository the chat service uses.
type MessageStore interface {
	Create(msg *model.Message) error
	FindByID(id uuid.UUID) (*model.Message, error)
	GetConversationMessages(conversationID, viewerID uuid.UUID) ([]model.Message, error)
	GetLastVisibleMessage(conversationID, viewerID uuid.UUID) (*model.Message, error)
	CountUnread(conversationID, viewerID uuid.UUID) (int64, error)
	MarkDeletedFor(messageID, userID uuid.UUID) error
}

// ChatService handles chat business logic
type ChatService struct {
	convStore ConversationStore
	msgStore  MessageStore
	bus       *events.Bus
}

func NewChatService(convStore ConversationStore, msgStore MessageStore, bus *events.Bus) *ChatService {
	return &ChatService{
		convStore: convStore,
		msgStore:  msgStore,
		bus:       bus,
	}
}

// GetOrCreateDirect finds the existing one-to-one conversation between the two
// users or creates it. Calling it twice with the same pair yields the same
// conversation.
func (s *ChatService) GetOrCreateDirect(myID, partnerID uuid.UUID) (*model.DirectConversationResponse, error) {
	conv, err := s.convStore.FindDirectConversation(myID, partnerID)
	if err == nil {
		msgs, mErr := s.msgStore.GetConversationMessages(conv.ID, myID)
		if mErr != nil {
			return nil, mErr
		}
		_ = s.convStore.UpdateLastRead(conv.ID, myID)

		return &model.DirectConversationResponse{
			Conversation: s.buildConversationResponse(*conv, myID),
			Messages:     msgs,
			IsNew:        false,
		}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	newConv := &model.Conversation{
		IsGroup:   false,
		CreatedBy: &myID,
		Members: []model.ConversationMember{
			{UserID: myID},
			{UserID: partnerID},
		},
	}
	if err := s.convStore.Create(newConv); err != nil {
		return nil, err
	}
	created, err := s.convStore.FindByID(newConv.ID)
	if err != nil {
		return nil, err
	}

	return &model.DirectConversationResponse{
		Conversation: s.buildConversationResponse(*created, myID),
		Messages:     []model.Message{},
		IsNew:        true,
	}, nil
}

// CreateGroupConversation creates a named group conversation. Used by study
// group provisioning.
func (s *ChatService) CreateGroupConversation(creatorID uuid.UUID, name string, memberIDs []uuid.UUID) (*model.Conversation, error) {
	members := []model.ConversationMember{{UserID: creatorID}}
	for _, id := range memberIDs {
		if id == creatorID {
			continue
		}
		members = append(members, model.ConversationMember{UserID: id})
	}

	conv := &model.Conversation{
		Name:      name,
		IsGroup:   true,
		CreatedBy: &creatorID,
		Members:   members,
	}
	if err := s.convStore.Create(conv); err != nil {
		return nil, err
	}
	return s.convStore.FindByID(conv.ID)
}

// ListConversations returns the user's conversations, most recently active
// first, each with its unread count and last message still visible to the
// viewer.
func (s *ChatService) ListConversations(userID uuid.UUID) ([]model.ConversationResponse, error) {
	conversations, err := s.convStore.GetUserConversations(userID)
	if err != nil {
		return nil, err
	}

	result := []model.ConversationResponse{}
	for i := range conversations {
		result = append(result, s.buildConversationResponse(conversations[i], userID))
	}
	return result, nil
}

func (s *ChatService) buildConversationResponse(conv model.Conversation, viewerID uuid.UUID) model.ConversationResponse {
	resp := model.ConversationResponse{Conversation: conv}

	if last, err := s.msgStore.GetLastVisibleMessage(conv.ID, viewerID); err == nil && last != nil {
		resp.LastMessage = &model.MessageSnapshot{
			Content:   last.Content,
			CreatedAt: last.CreatedAt,
		}
	}

	if unread, err := s.msgStore.CountUnread(conv.ID, viewerID); err == nil {
		resp.UnreadCount = int(unread)
	}

	// Direct chats take the other participant's identity
	if !conv.IsGroup {
		for i := range conv.Members {
			if conv.Members[i].UserID != viewerID && conv.Members[i].User.ID != uuid.Nil {
				other := conv.Members[i].User.ToResponse()
				resp.OtherUser = &other
				resp.Name = other.Name
				break
			}
		}
	}

	return resp
}

// History returns all messages in a conversation that the viewer has not
// deleted for themselves, oldest first.
func (s *ChatService) History(conversationID, viewerID uuid.UUID) ([]model.Message, error) {
	isMember, err := s.convStore.IsMember(conversationID, viewerID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, ErrNotMember
	}
	return s.msgStore.GetConversationMessages(conversationID, viewerID)
}

// Send persists a message and bumps the conversation's activity timestamp.
// Broadcast to the room happens over the socket, not here.
func (s *ChatService) Send(senderID uuid.UUID, senderName string, conversationID uuid.UUID, req model.SendMessageRequest) (*model.Message, error) {
	isMember, err := s.convStore.IsMember(conversationID, senderID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, ErrNotMember
	}

	// A reply to someone else's message inside the window counts as quick
	quickReply := false
	if prev, err := s.msgStore.GetLastVisibleMessage(conversationID, senderID); err == nil && prev != nil {
		if prev.SenderID != senderID && time.Since(prev.CreatedAt) <= quickReplyWindow {
			quickReply = true
		}
	}

	msg := &model.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        req.Content,
		FileURL:        req.FileURL,
		FileType:       req.FileType,
	}
	if err := s.msgStore.Create(msg); err != nil {
		return nil, err
	}
	_ = s.convStore.TouchUpdatedAt(conversationID)
	// Sender has seen their own message
	_ = s.convStore.UpdateLastRead(conversationID, senderID)

	if s.bus != nil {
		memberIDs, _ := s.convStore.GetMemberIDs(conversationID)
		s.bus.Publish(events.TopicMessageSent, events.MessageSent{
			SenderID:       senderID,
			SenderName:     senderName,
			ConversationID: conversationID,
			Content:        msg.Content,
			MemberIDs:      memberIDs,
			QuickReply:     quickReply,
		})
	}

	return s.msgStore.FindByID(msg.ID)
}

// MarkRead advances the caller's read cursor to now
func (s *ChatService) MarkRead(conversationID, userID uuid.UUID) error {
	isMember, err := s.convStore.IsMember(conversationID, userID)
	if err != nil {
		return err
	}
	if !isMember {
		return ErrNotMember
	}
	return s.convStore.UpdateLastRead(conversationID, userID)
}

// DeleteMessageForUser hides a message from the caller only. Deleting a
// message that is already gone or already hidden is a no-op.
func (s *ChatService) DeleteMessageForUser(messageID, userID uuid.UUID) error {
	msg, err := s.msgStore.FindByID(messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	isMember, err := s.convStore.IsMember(msg.ConversationID, userID)
	if err != nil {
		return err
	}
	if !isMember {
		return ErrNotMember
	}
	return s.msgStore.MarkDeletedFor(messageID, userID)
}

// LeaveConversation removes the caller's own membership. The conversation and
// its messages stay intact for the remaining members.
func (s *ChatService) LeaveConversation(conversationID, userID uuid.UUID) error {
	isMember, err := s.convStore.IsMember(conversationID, userID)
	if err != nil {
		return err
	}
	if !isMember {
		return ErrNotMember
	}
	return s.convStore.RemoveMember(conversationID, userID)
}

// AddMember adds a user to a group conversation
func (s *ChatService) AddMember(conversationID, userID uuid.UUID) error {
	return s.convStore.AddMember(conversationID, userID)
}

// RemoveMember removes another user from a group conversation. Used by study
// group kicks.
func (s *ChatService) RemoveMember(conversationID, userID uuid.UUID) error {
	return s.convStore.RemoveMember(conversationID, userID)
}

// MemberIDs lists the active member ids of a conversation
func (s *ChatService) MemberIDs(conversationID uuid.UUID) ([]uuid.UUID, error) {
	return s.convStore.GetMemberIDs(conversationID)
}

// IsMember reports whether the user is an active member of the conversation
func (s *ChatService) IsMember(conversationID, userID uuid.UUID) (bool, error) {
	return s.convStore.IsMember(conversationID, userID)
}

// DeleteConversation hard-deletes a conversation with its messages and
// memberships. Only used when the owning study group is deleted.
func (s *ChatService) DeleteConversation(conversationID uuid.UUID) error {
	return s.convStore.Delete(conversationID)
}
