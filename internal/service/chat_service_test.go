package service

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nextbenchapp/nextbench/internal/events"
	"github.com/nextbenchapp/nextbench/internal/model"
	"gorm.io/gorm"
)

// ========== In-memory stores ==========

type memConvStore struct {
	convs    map[uuid.UUID]*model.Conversation
	members  map[uuid.UUID]map[uuid.UUID]bool
	lastRead map[uuid.UUID]map[uuid.UUID]time.Time
}

func newMemConvStore() *memConvStore {
	return &memConvStore{
		convs:    make(map[uuid.UUID]*model.Conversation),
		members:  make(map[uuid.UUID]map[uuid.UUID]bool),
		lastRead: make(map[uuid.UUID]map[uuid.UUID]time.Time),
	}
}

func (s *memConvStore) Create(conv *model.Conversation) error {
	if conv.ID == uuid.Nil {
		conv.ID = uuid.New()
	}
	conv.CreatedAt = time.Now()
	conv.UpdatedAt = conv.CreatedAt
	s.convs[conv.ID] = conv
	s.members[conv.ID] = make(map[uuid.UUID]bool)
	for _, m := range conv.Members {
		s.members[conv.ID][m.UserID] = true
	}
	return nil
}

func (s *memConvStore) FindByID(id uuid.UUID) (*model.Conversation, error) {
	conv, ok := s.convs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return conv, nil
}

func (s *memConvStore) FindDirectConversation(userA, userB uuid.UUID) (*model.Conversation, error) {
	for id, conv := range s.convs {
		if conv.IsGroup {
			continue
		}
		if s.members[id][userA] && s.members[id][userB] {
			return conv, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memConvStore) GetUserConversations(userID uuid.UUID) ([]model.Conversation, error) {
	out := []model.Conversation{}
	for id, conv := range s.convs {
		if s.members[id][userID] {
			out = append(out, *conv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (s *memConvStore) AddMember(conversationID, userID uuid.UUID) error {
	if _, ok := s.members[conversationID]; !ok {
		return gorm.ErrRecordNotFound
	}
	s.members[conversationID][userID] = true
	return nil
}

func (s *memConvStore) RemoveMember(conversationID, userID uuid.UUID) error {
	delete(s.members[conversationID], userID)
	return nil
}

func (s *memConvStore) IsMember(conversationID, userID uuid.UUID) (bool, error) {
	return s.members[conversationID][userID], nil
}

func (s *memConvStore) GetMemberIDs(conversationID uuid.UUID) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	for id := range s.members[conversationID] {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *memConvStore) TouchUpdatedAt(conversationID uuid.UUID) error {
	if conv, ok := s.convs[conversationID]; ok {
		conv.UpdatedAt = time.Now()
	}
	return nil
}

func (s *memConvStore) UpdateLastRead(conversationID, userID uuid.UUID) error {
	if _, ok := s.lastRead[conversationID]; !ok {
		s.lastRead[conversationID] = make(map[uuid.UUID]time.Time)
	}
	s.lastRead[conversationID][userID] = time.Now()
	return nil
}

func (s *memConvStore) Delete(conversationID uuid.UUID) error {
	delete(s.convs, conversationID)
	delete(s.members, conversationID)
	return nil
}

type memMsgStore struct {
	order   []uuid.UUID
	msgs    map[uuid.UUID]*model.Message
	deleted map[uuid.UUID]map[uuid.UUID]bool
}

func newMemMsgStore() *memMsgStore {
	return &memMsgStore{
		msgs:    make(map[uuid.UUID]*model.Message),
		deleted: make(map[uuid.UUID]map[uuid.UUID]bool),
	}
}

func (s *memMsgStore) Create(msg *model.Message) error {
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	s.msgs[msg.ID] = msg
	s.order = append(s.order, msg.ID)
	return nil
}

func (s *memMsgStore) FindByID(id uuid.UUID) (*model.Message, error) {
	msg, ok := s.msgs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return msg, nil
}

func (s *memMsgStore) visible(msg *model.Message, viewerID uuid.UUID) bool {
	return !s.deleted[msg.ID][viewerID]
}

func (s *memMsgStore) GetConversationMessages(conversationID, viewerID uuid.UUID) ([]model.Message, error) {
	out := []model.Message{}
	for _, id := range s.order {
		msg := s.msgs[id]
		if msg.ConversationID == conversationID && s.visible(msg, viewerID) {
			out = append(out, *msg)
		}
	}
	return out, nil
}

func (s *memMsgStore) GetLastVisibleMessage(conversationID, viewerID uuid.UUID) (*model.Message, error) {
	for i := len(s.order) - 1; i >= 0; i-- {
		msg := s.msgs[s.order[i]]
		if msg.ConversationID == conversationID && s.visible(msg, viewerID) {
			return msg, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memMsgStore) CountUnread(conversationID, viewerID uuid.UUID) (int64, error) {
	var n int64
	for _, id := range s.order {
		msg := s.msgs[id]
		if msg.ConversationID == conversationID && msg.SenderID != viewerID && s.visible(msg, viewerID) {
			n++
		}
	}
	return n, nil
}

func (s *memMsgStore) MarkDeletedFor(messageID, userID uuid.UUID) error {
	if _, ok := s.msgs[messageID]; !ok {
		return nil
	}
	if _, ok := s.deleted[messageID]; !ok {
		s.deleted[messageID] = make(map[uuid.UUID]bool)
	}
	s.deleted[messageID][userID] = true
	return nil
}

// ========== Helpers ==========

func newTestChatService(t *testing.T) (*ChatService, *memConvStore, *memMsgStore, chan events.MessageSent) {
	t.Helper()

	convStore := newMemConvStore()
	msgStore := newMemMsgStore()

	bus := events.NewBus()
	sent := make(chan events.MessageSent, 16)
	bus.Subscribe(events.TopicMessageSent, func(ev events.Event) {
		if p, ok := ev.Payload.(events.MessageSent); ok {
			sent <- p
		}
	})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go bus.Run(ctx)

	return NewChatService(convStore, msgStore, bus), convStore, msgStore, sent
}

func awaitMessageSent(t *testing.T, ch chan events.MessageSent) events.MessageSent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("no message event published")
		return events.MessageSent{}
	}
}

// ========== Tests ==========

func TestGetOrCreateDirectIsIdempotent(t *testing.T) {
	svc, _, _, _ := newTestChatService(t)
	alice, bob := uuid.New(), uuid.New()

	first, err := svc.GetOrCreateDirect(alice, bob)
	if err != nil {
		t.Fatalf("GetOrCreateDirect: %v", err)
	}
	if !first.IsNew {
		t.Fatalf("expected first call to create the conversation")
	}

	// Same pair from the other side must reuse the conversation.
	second, err := svc.GetOrCreateDirect(bob, alice)
	if err != nil {
		t.Fatalf("GetOrCreateDirect (second): %v", err)
	}
	if second.IsNew {
		t.Fatalf("expected second call to find the existing conversation")
	}
	if first.Conversation.ID != second.Conversation.ID {
		t.Fatalf("expected the same conversation, got %s and %s",
			first.Conversation.ID, second.Conversation.ID)
	}
}

func TestSendRequiresMembership(t *testing.T) {
	svc, _, _, _ := newTestChatService(t)
	alice, bob, mallory := uuid.New(), uuid.New(), uuid.New()

	direct, err := svc.GetOrCreateDirect(alice, bob)
	if err != nil {
		t.Fatalf("GetOrCreateDirect: %v", err)
	}

	_, err = svc.Send(mallory, "Mallory", direct.Conversation.ID, model.SendMessageRequest{Content: "hi"})
	if err != ErrNotMember {
		t.Fatalf("expected ErrNotMember, got %v", err)
	}
}

func TestSendFlagsQuickReply(t *testing.T) {
	svc, _, _, sent := newTestChatService(t)
	alice, bob := uuid.New(), uuid.New()

	direct, err := svc.GetOrCreateDirect(alice, bob)
	if err != nil {
		t.Fatalf("GetOrCreateDirect: %v", err)
	}
	convID := direct.Conversation.ID

	// Opening message: nothing to reply to.
	if _, err := svc.Send(alice, "Alice", convID, model.SendMessageRequest{Content: "anyone selling a calculator?"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if ev := awaitMessageSent(t, sent); ev.QuickReply {
		t.Fatalf("first message must not count as a quick reply")
	}

	// Prompt reply from the other side.
	if _, err := svc.Send(bob, "Bob", convID, model.SendMessageRequest{Content: "yes! casio fx-991"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if ev := awaitMessageSent(t, sent); !ev.QuickReply {
		t.Fatalf("prompt reply to another user should count as a quick reply")
	}

	// Replying to yourself is not a quick reply.
	if _, err := svc.Send(bob, "Bob", convID, model.SendMessageRequest{Content: "500 rupees"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if ev := awaitMessageSent(t, sent); ev.QuickReply {
		t.Fatalf("follow-up to your own message must not count as a quick reply")
	}
}

func TestDeleteMissingMessageIsNoop(t *testing.T) {
	svc, _, _, _ := newTestChatService(t)

	if err := svc.DeleteMessageForUser(uuid.New(), uuid.New()); err != nil {
		t.Fatalf("deleting a missing message should be a no-op, got %v", err)
	}
}

func TestDeleteMessageHidesOnlyForRequester(t *testing.T) {
	svc, _, _, _ := newTestChatService(t)
	alice, bob := uuid.New(), uuid.New()

	direct, err := svc.GetOrCreateDirect(alice, bob)
	if err != nil {
		t.Fatalf("GetOrCreateDirect: %v", err)
	}
	convID := direct.Conversation.ID

	msg, err := svc.Send(alice, "Alice", convID, model.SendMessageRequest{Content: "oops"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if err := svc.DeleteMessageForUser(msg.ID, alice); err != nil {
		t.Fatalf("DeleteMessageForUser: %v", err)
	}
	// Deleting again is still fine.
	if err := svc.DeleteMessageForUser(msg.ID, alice); err != nil {
		t.Fatalf("repeat delete: %v", err)
	}

	aliceView, err := svc.History(convID, alice)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(aliceView) != 0 {
		t.Fatalf("expected message hidden for the deleter, got %d messages", len(aliceView))
	}

	bobView, err := svc.History(convID, bob)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(bobView) != 1 {
		t.Fatalf("expected message still visible for the other member, got %d", len(bobView))
	}
}

func TestLeaveConversationKeepsOtherMembers(t *testing.T) {
	svc, _, _, _ := newTestChatService(t)
	alice, bob := uuid.New(), uuid.New()

	direct, err := svc.GetOrCreateDirect(alice, bob)
	if err != nil {
		t.Fatalf("GetOrCreateDirect: %v", err)
	}
	convID := direct.Conversation.ID

	if err := svc.LeaveConversation(convID, alice); err != nil {
		t.Fatalf("LeaveConversation: %v", err)
	}

	if member, _ := svc.IsMember(convID, alice); member {
		t.Fatalf("expected the leaver's membership removed")
	}
	if member, _ := svc.IsMember(convID, bob); !member {
		t.Fatalf("expected the other member untouched")
	}

	// A non-member cannot leave.
	if err := svc.LeaveConversation(convID, alice); err != ErrNotMember {
		t.Fatalf("expected ErrNotMember, got %v", err)
	}
}

func TestHistoryRequiresMembership(t *testing.T) {
	svc, _, _, _ := newTestChatService(t)
	alice, bob := uuid.New(), uuid.New()

	direct, err := svc.GetOrCreateDirect(alice, bob)
	if err != nil {
		t.Fatalf("GetOrCreateDirect: %v", err)
	}

	if _, err := svc.History(direct.Conversation.ID, uuid.New()); err != ErrNotMember {
		t.Fatalf("expected ErrNotMember, got %v", err)
	}
}
