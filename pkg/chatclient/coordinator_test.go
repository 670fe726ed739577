package chatclient

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nextbenchapp/nextbench/internal/model"
)

// ========== Stubs ==========

type stubAPI struct {
	mu            sync.Mutex
	conversations []model.ConversationResponse
	listErr       error
	listCalls     int
	history       map[uuid.UUID][]model.Message
	historyGate   map[uuid.UUID]chan struct{}
	sendErr       error
	sent          []model.SendMessageRequest
	marked        []uuid.UUID
	deleteErr     error
	deleted       []uuid.UUID
	leaveErr      error
	left          []uuid.UUID
}

func newStubAPI() *stubAPI {
	return &stubAPI{
		history:     make(map[uuid.UUID][]model.Message),
		historyGate: make(map[uuid.UUID]chan struct{}),
	}
}

func (s *stubAPI) ListConversations(ctx context.Context) ([]model.ConversationResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]model.ConversationResponse, len(s.conversations))
	copy(out, s.conversations)
	return out, nil
}

func (s *stubAPI) CreateDirect(ctx context.Context, partnerID uuid.UUID) (*model.DirectConversationResponse, error) {
	return nil, errors.New("not implemented")
}

func (s *stubAPI) History(ctx context.Context, conversationID uuid.UUID) ([]model.Message, error) {
	s.mu.Lock()
	gate := s.historyGate[conversationID]
	msgs := s.history[conversationID]
	s.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return msgs, nil
}

func (s *stubAPI) Send(ctx context.Context, conversationID uuid.UUID, req model.SendMessageRequest) (*model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return nil, s.sendErr
	}
	s.sent = append(s.sent, req)
	return &model.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		Content:        req.Content,
		CreatedAt:      time.Now(),
	}, nil
}

func (s *stubAPI) MarkRead(ctx context.Context, conversationID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marked = append(s.marked, conversationID)
	return nil
}

func (s *stubAPI) DeleteMessage(ctx context.Context, messageID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, messageID)
	return nil
}

func (s *stubAPI) LeaveConversation(ctx context.Context, conversationID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.leaveErr != nil {
		return s.leaveErr
	}
	s.left = append(s.left, conversationID)
	return nil
}

func (s *stubAPI) markedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.marked)
}

type stubTransport struct {
	mu      sync.Mutex
	joined  []string
	left    []string
	typing  []string
	stopped []string
	emitted []*model.Message
}

func (s *stubTransport) JoinRoom(conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.joined = append(s.joined, conversationID)
}

func (s *stubTransport) LeaveRoom(conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.left = append(s.left, conversationID)
}

func (s *stubTransport) EmitTyping(conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.typing = append(s.typing, conversationID)
}

func (s *stubTransport) EmitStopTyping(conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = append(s.stopped, conversationID)
}

func (s *stubTransport) EmitMessage(msg *model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emitted = append(s.emitted, msg)
}

// ========== Helpers ==========

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("condition not met within deadline")
}

func makeConversation() model.ConversationResponse {
	return model.ConversationResponse{
		Conversation: model.Conversation{ID: uuid.New()},
	}
}

func openAndSettle(t *testing.T, c *Coordinator, conv model.ConversationResponse) {
	t.Helper()
	c.OpenChat(context.Background(), conv)
	waitFor(t, func() bool { return !c.Loading() })
}

// ========== Tests ==========

func TestSendMessageReplacesOptimisticOnEcho(t *testing.T) {
	api := newStubAPI()
	tr := &stubTransport{}
	self := uuid.New()
	c := NewCoordinator(self, api, tr)

	conv := makeConversation()
	openAndSettle(t, c, conv)

	msg, err := c.SendMessage(context.Background(), model.SendMessageRequest{Content: "hello"})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	msgs := c.Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message after send, got %d", len(msgs))
	}
	if !msgs[0].Optimistic {
		t.Fatalf("expected message to still be optimistic before the echo")
	}

	// Server echo of our own send.
	echo := *msg
	echo.SenderID = self
	c.HandleNewMessage(echo)

	msgs = c.Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected echo to replace optimistic entry, got %d messages", len(msgs))
	}
	if msgs[0].Optimistic {
		t.Fatalf("expected entry to be canonical after echo")
	}
	if msgs[0].ID != msg.ID {
		t.Fatalf("expected canonical id %s, got %s", msg.ID, msgs[0].ID)
	}
}

func TestOptimisticReplacementPreservesPosition(t *testing.T) {
	api := newStubAPI()
	tr := &stubTransport{}
	self := uuid.New()
	other := uuid.New()
	c := NewCoordinator(self, api, tr)

	conv := makeConversation()
	openAndSettle(t, c, conv)

	sent, err := c.SendMessage(context.Background(), model.SendMessageRequest{Content: "first"})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	// Another member's message lands before our echo does.
	c.HandleNewMessage(model.Message{
		ID:             uuid.New(),
		ConversationID: conv.ID,
		SenderID:       other,
		Content:        "second",
	})

	echo := *sent
	echo.SenderID = self
	c.HandleNewMessage(echo)

	msgs := c.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Content != "first" || msgs[1].Content != "second" {
		t.Fatalf("expected echo to keep the optimistic entry's position, got [%q, %q]",
			msgs[0].Content, msgs[1].Content)
	}
}

func TestDuplicateEchoIsIgnored(t *testing.T) {
	api := newStubAPI()
	tr := &stubTransport{}
	c := NewCoordinator(uuid.New(), api, tr)

	conv := makeConversation()
	openAndSettle(t, c, conv)

	msg := model.Message{
		ID:             uuid.New(),
		ConversationID: conv.ID,
		SenderID:       uuid.New(),
		Content:        "once",
	}
	c.HandleNewMessage(msg)
	c.HandleNewMessage(msg)

	if got := len(c.Messages()); got != 1 {
		t.Fatalf("expected duplicate delivery to be dropped, got %d messages", got)
	}
}

func TestStaleHistoryIsDiscarded(t *testing.T) {
	api := newStubAPI()
	tr := &stubTransport{}
	c := NewCoordinator(uuid.New(), api, tr)

	convA := makeConversation()
	convB := makeConversation()

	gate := make(chan struct{})
	api.historyGate[convA.ID] = gate
	api.history[convA.ID] = []model.Message{
		{ID: uuid.New(), ConversationID: convA.ID, Content: "from A"},
	}
	api.history[convB.ID] = []model.Message{
		{ID: uuid.New(), ConversationID: convB.ID, Content: "from B"},
	}

	// Open A, then switch to B while A's history is still in flight.
	c.OpenChat(context.Background(), convA)
	openAndSettle(t, c, convB)

	close(gate)
	// Give the stale fetch a chance to (incorrectly) apply itself.
	time.Sleep(20 * time.Millisecond)

	msgs := c.Messages()
	if len(msgs) != 1 || msgs[0].Content != "from B" {
		t.Fatalf("expected only conversation B's history, got %+v", msgs)
	}
}

func TestSendFailureRollsBackOptimisticEntry(t *testing.T) {
	api := newStubAPI()
	api.sendErr = errors.New("boom")
	tr := &stubTransport{}
	c := NewCoordinator(uuid.New(), api, tr)

	conv := makeConversation()
	openAndSettle(t, c, conv)

	if _, err := c.SendMessage(context.Background(), model.SendMessageRequest{Content: "doomed"}); err == nil {
		t.Fatalf("expected send error to propagate")
	}
	if got := len(c.Messages()); got != 0 {
		t.Fatalf("expected optimistic entry to be rolled back, got %d messages", got)
	}
	if len(tr.emitted) != 0 {
		t.Fatalf("expected no transport emit for a failed send")
	}
}

func TestUnreadAccounting(t *testing.T) {
	api := newStubAPI()
	tr := &stubTransport{}
	self := uuid.New()
	c := NewCoordinator(self, api, tr)

	active := makeConversation()
	background := makeConversation()
	api.conversations = []model.ConversationResponse{active, background}
	c.FetchConversations(context.Background())
	openAndSettle(t, c, active)

	// Opening the chat marks it read once history lands; settle that first.
	waitFor(t, func() bool { return api.markedCount() >= 1 })
	markedBefore := api.markedCount()

	// Message in a conversation that is not open: unread grows, entry moves
	// to the front.
	c.HandleNewMessage(model.Message{
		ID:             uuid.New(),
		ConversationID: background.ID,
		SenderID:       uuid.New(),
		Content:        "psst",
		CreatedAt:      time.Now(),
	})

	convs := c.Conversations()
	if convs[0].ID != background.ID {
		t.Fatalf("expected conversation with new message to move to the front")
	}
	if convs[0].UnreadCount != 1 {
		t.Fatalf("expected unread count 1, got %d", convs[0].UnreadCount)
	}
	if convs[0].LastMessage == nil || convs[0].LastMessage.Content != "psst" {
		t.Fatalf("expected last message snapshot to be refreshed")
	}

	// Message in the open conversation: no unread, but read server-side.
	c.HandleNewMessage(model.Message{
		ID:             uuid.New(),
		ConversationID: active.ID,
		SenderID:       uuid.New(),
		Content:        "hey",
		CreatedAt:      time.Now(),
	})

	waitFor(t, func() bool { return api.markedCount() > markedBefore })
	for _, conv := range c.Conversations() {
		if conv.ID == active.ID && conv.UnreadCount != 0 {
			t.Fatalf("open conversation must not accrue unread, got %d", conv.UnreadCount)
		}
	}
}

func TestOwnEchoDoesNotIncrementUnread(t *testing.T) {
	api := newStubAPI()
	tr := &stubTransport{}
	self := uuid.New()
	c := NewCoordinator(self, api, tr)

	conv := makeConversation()
	api.conversations = []model.ConversationResponse{conv}
	c.FetchConversations(context.Background())

	// Echo of our own message in a conversation we do not have open.
	c.HandleNewMessage(model.Message{
		ID:             uuid.New(),
		ConversationID: conv.ID,
		SenderID:       self,
		Content:        "sent elsewhere",
		CreatedAt:      time.Now(),
	})

	if got := c.Conversations()[0].UnreadCount; got != 0 {
		t.Fatalf("own message must not count as unread, got %d", got)
	}
}

func TestUnknownConversationTriggersListRefresh(t *testing.T) {
	api := newStubAPI()
	tr := &stubTransport{}
	c := NewCoordinator(uuid.New(), api, tr)

	fresh := makeConversation()
	api.conversations = []model.ConversationResponse{fresh}
	before := api.listCalls

	c.HandleNewMessage(model.Message{
		ID:             uuid.New(),
		ConversationID: fresh.ID,
		SenderID:       uuid.New(),
		Content:        "first contact",
	})

	waitFor(t, func() bool {
		api.mu.Lock()
		defer api.mu.Unlock()
		return api.listCalls > before
	})
	waitFor(t, func() bool { return len(c.Conversations()) == 1 })
}

func TestFetchConversationsKeepsStaleListOnError(t *testing.T) {
	api := newStubAPI()
	tr := &stubTransport{}
	c := NewCoordinator(uuid.New(), api, tr)

	conv := makeConversation()
	api.conversations = []model.ConversationResponse{conv}
	c.FetchConversations(context.Background())

	api.listErr = errors.New("network down")
	c.FetchConversations(context.Background())

	if got := len(c.Conversations()); got != 1 {
		t.Fatalf("expected stale list to survive a failed refresh, got %d entries", got)
	}
}

func TestFetchConversationsPrependsMissingActive(t *testing.T) {
	api := newStubAPI()
	tr := &stubTransport{}
	c := NewCoordinator(uuid.New(), api, tr)

	active := makeConversation()
	openAndSettle(t, c, active)

	other := makeConversation()
	api.conversations = []model.ConversationResponse{other}
	c.FetchConversations(context.Background())

	convs := c.Conversations()
	if len(convs) != 2 || convs[0].ID != active.ID {
		t.Fatalf("expected open conversation to be prepended to the fetched list")
	}
}

func TestDeleteMessageRemovesLocally(t *testing.T) {
	api := newStubAPI()
	tr := &stubTransport{}
	c := NewCoordinator(uuid.New(), api, tr)

	conv := makeConversation()
	msg := model.Message{ID: uuid.New(), ConversationID: conv.ID, Content: "regret"}
	api.history[conv.ID] = []model.Message{msg}
	openAndSettle(t, c, conv)
	waitFor(t, func() bool { return len(c.Messages()) == 1 })

	if err := c.DeleteMessage(context.Background(), msg.ID); err != nil {
		t.Fatalf("DeleteMessage: %v", err)
	}
	if got := len(c.Messages()); got != 0 {
		t.Fatalf("expected message removed locally, got %d", got)
	}
}

func TestDeleteMessageErrorKeepsLocalEntry(t *testing.T) {
	api := newStubAPI()
	api.deleteErr = errors.New("server said no")
	tr := &stubTransport{}
	c := NewCoordinator(uuid.New(), api, tr)

	conv := makeConversation()
	msg := model.Message{ID: uuid.New(), ConversationID: conv.ID, Content: "stays"}
	api.history[conv.ID] = []model.Message{msg}
	openAndSettle(t, c, conv)
	waitFor(t, func() bool { return len(c.Messages()) == 1 })

	if err := c.DeleteMessage(context.Background(), msg.ID); err == nil {
		t.Fatalf("expected delete error to propagate")
	}
	if got := len(c.Messages()); got != 1 {
		t.Fatalf("expected message to survive a failed delete, got %d", got)
	}
}

func TestDeleteConversationClearsOpenChat(t *testing.T) {
	api := newStubAPI()
	tr := &stubTransport{}
	c := NewCoordinator(uuid.New(), api, tr)

	conv := makeConversation()
	openAndSettle(t, c, conv)

	if err := c.DeleteConversation(context.Background(), conv.ID); err != nil {
		t.Fatalf("DeleteConversation: %v", err)
	}
	if c.Active() != nil {
		t.Fatalf("expected open chat to be cleared")
	}
	if got := len(c.Conversations()); got != 0 {
		t.Fatalf("expected conversation removed from list, got %d", got)
	}
	tr.mu.Lock()
	defer tr.mu.Unlock()
	if len(tr.left) == 0 || tr.left[len(tr.left)-1] != conv.ID.String() {
		t.Fatalf("expected room to be left")
	}
}

func TestTypingLifecycle(t *testing.T) {
	api := newStubAPI()
	tr := &stubTransport{}
	self := uuid.New()
	c := NewCoordinator(self, api, tr)

	conv := makeConversation()
	openAndSettle(t, c, conv)

	typer := uuid.New()
	ev := model.TypingEvent{ConversationID: conv.ID.String(), UserID: typer, Name: "Priya"}
	c.HandleTyping(ev)
	c.HandleTyping(ev)
	if got := len(c.TypingUsers()); got != 1 {
		t.Fatalf("expected typing set to deduplicate, got %d entries", got)
	}

	// Our own indicator echoed back must not show up.
	c.HandleTyping(model.TypingEvent{ConversationID: conv.ID.String(), UserID: self})
	if got := len(c.TypingUsers()); got != 1 {
		t.Fatalf("expected own typing echo to be ignored, got %d entries", got)
	}

	c.HandleStopTyping(ev)
	if got := len(c.TypingUsers()); got != 0 {
		t.Fatalf("expected stop_typing to clear the indicator, got %d entries", got)
	}

	// Indicators do not survive a conversation switch.
	c.HandleTyping(ev)
	openAndSettle(t, c, makeConversation())
	if got := len(c.TypingUsers()); got != 0 {
		t.Fatalf("expected typing set cleared on conversation switch, got %d entries", got)
	}
}

func TestReconnectRejoinsActiveRoom(t *testing.T) {
	api := newStubAPI()
	tr := &stubTransport{}
	c := NewCoordinator(uuid.New(), api, tr)

	conv := makeConversation()
	openAndSettle(t, c, conv)

	tr.mu.Lock()
	joinsBefore := len(tr.joined)
	tr.mu.Unlock()

	c.HandleReconnect()

	tr.mu.Lock()
	if len(tr.joined) != joinsBefore+1 || tr.joined[len(tr.joined)-1] != conv.ID.String() {
		tr.mu.Unlock()
		t.Fatalf("expected reconnect to re-join the open room")
	}
	tr.mu.Unlock()

	c.ClearChat()
	c.HandleReconnect() // no open chat, must not join anything

	tr.mu.Lock()
	joinsAfter := len(tr.joined)
	tr.mu.Unlock()
	if joinsAfter != joinsBefore+1 {
		t.Fatalf("expected no join without an open chat, got %d joins", joinsAfter)
	}
}

func TestClearChatIsIdempotent(t *testing.T) {
	api := newStubAPI()
	tr := &stubTransport{}
	c := NewCoordinator(uuid.New(), api, tr)

	c.ClearChat()

	conv := makeConversation()
	openAndSettle(t, c, conv)
	c.ClearChat()
	c.ClearChat()

	tr.mu.Lock()
	defer tr.mu.Unlock()
	if got := len(tr.left); got != 1 {
		t.Fatalf("expected exactly one leave, got %d", got)
	}
}
