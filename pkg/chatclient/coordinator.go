package chatclient

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nextbenchapp/nextbench/internal/model"
)

// Coordinator owns the client-side chat state: the conversation list, the
// currently open conversation with its message list and loading flag, and the
// set of users typing in it. All state is guarded by a single mutex so that
// transport callbacks and caller operations interleave atomically; slow work
// (history fetches, list refreshes, server-side read marks) runs in goroutines
// and re-acquires the lock to apply its result.
//
// Opening a conversation bumps a session counter. A history fetch remembers
// the counter it started under and applies its result only if the counter is
// unchanged when it returns. That is the only defense against stale results;
// in-flight requests are never cancelled.
type Coordinator struct {
	api       API
	transport Transport
	selfID    uuid.UUID

	mu            sync.Mutex
	conversations []model.ConversationResponse
	active        *model.ConversationResponse
	messages      []ChatMessage
	typing        []model.TypingEvent
	session       int
	loading       bool
}

// NewCoordinator returns a Coordinator for the given user. The transport's
// inbound events must be routed to the Handle* methods (Socket does this when
// constructed with the Coordinator as its EventHandler).
func NewCoordinator(selfID uuid.UUID, api API, transport Transport) *Coordinator {
	return &Coordinator{
		api:       api,
		transport: transport,
		selfID:    selfID,
	}
}

// ========== Snapshots ==========

// Conversations returns a copy of the current conversation list.
func (c *Coordinator) Conversations() []model.ConversationResponse {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.ConversationResponse, len(c.conversations))
	copy(out, c.conversations)
	return out
}

// Active returns a copy of the open conversation, or nil if none is open.
func (c *Coordinator) Active() *model.ConversationResponse {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return nil
	}
	conv := *c.active
	return &conv
}

// Messages returns a copy of the open conversation's message list.
func (c *Coordinator) Messages() []ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ChatMessage, len(c.messages))
	copy(out, c.messages)
	return out
}

// Loading reports whether a history fetch for the open conversation is still
// in flight.
func (c *Coordinator) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// TypingUsers returns the users currently typing in the open conversation.
func (c *Coordinator) TypingUsers() []model.TypingEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.TypingEvent, len(c.typing))
	copy(out, c.typing)
	return out
}

// ========== Conversation list ==========

// FetchConversations refreshes the conversation list from the server. On
// failure the stale list is kept and the error is only logged; the list is a
// cache and the next refresh will heal it. If a conversation is open but the
// fetched list does not contain it yet (races with creation), it is prepended
// so the open chat never vanishes from the list.
func (c *Coordinator) FetchConversations(ctx context.Context) {
	convs, err := c.api.ListConversations(ctx)
	if err != nil {
		log.Printf("chatclient: fetch conversations: %v", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil {
		found := false
		for i := range convs {
			if convs[i].ID == c.active.ID {
				found = true
				break
			}
		}
		if !found {
			convs = append([]model.ConversationResponse{*c.active}, convs...)
		}
	}
	c.conversations = convs
}

// ========== Open / close ==========

// OpenChat makes conv the active conversation: clears the message list, joins
// the realtime room and kicks off an async history fetch. The conversation is
// moved into the list (prepended if missing) and its local unread count is
// zeroed; the server-side read cursor is advanced once history arrives.
func (c *Coordinator) OpenChat(ctx context.Context, conv model.ConversationResponse) {
	c.mu.Lock()
	if c.active != nil && c.active.ID != conv.ID {
		c.transport.LeaveRoom(c.active.ID.String())
	}
	c.session++
	session := c.session
	conv.UnreadCount = 0
	c.active = &conv
	c.messages = nil
	c.typing = nil
	c.loading = true
	c.upsertConversationLocked(conv)
	c.mu.Unlock()

	c.transport.JoinRoom(conv.ID.String())

	go func() {
		history, err := c.api.History(ctx, conv.ID)

		c.mu.Lock()
		if c.session != session {
			// A newer OpenChat or ClearChat superseded this fetch.
			c.mu.Unlock()
			return
		}
		c.loading = false
		if err != nil {
			c.mu.Unlock()
			log.Printf("chatclient: fetch history for %s: %v", conv.ID, err)
			return
		}
		msgs := make([]ChatMessage, len(history))
		for i, m := range history {
			msgs[i] = ChatMessage{Message: m}
		}
		c.messages = msgs
		c.mu.Unlock()

		if err := c.api.MarkRead(ctx, conv.ID); err != nil {
			log.Printf("chatclient: mark read %s: %v", conv.ID, err)
		}
	}()
}

// OpenDirect finds or creates the direct conversation with the given user and
// opens it.
func (c *Coordinator) OpenDirect(ctx context.Context, partnerID uuid.UUID) (*model.ConversationResponse, error) {
	resp, err := c.api.CreateDirect(ctx, partnerID)
	if err != nil {
		return nil, err
	}
	c.OpenChat(ctx, resp.Conversation)
	conv := resp.Conversation
	return &conv, nil
}

// ClearChat closes the active conversation: leaves its room and discards the
// message list and typing state. Safe to call with no conversation open.
func (c *Coordinator) ClearChat() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearChatLocked()
}

func (c *Coordinator) clearChatLocked() {
	if c.active == nil {
		return
	}
	c.transport.LeaveRoom(c.active.ID.String())
	c.session++
	c.active = nil
	c.messages = nil
	c.typing = nil
	c.loading = false
}

// ========== Sending ==========

// SendMessage sends to the active conversation. It is a no-op error if no
// conversation is open.
func (c *Coordinator) SendMessage(ctx context.Context, req model.SendMessageRequest) (*model.Message, error) {
	c.mu.Lock()
	if c.active == nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("no active conversation")
	}
	convID := c.active.ID
	c.mu.Unlock()
	return c.SendMessageToID(ctx, convID, req)
}

// SendMessageToID sends a message to the given conversation. An optimistic
// entry is appended immediately when that conversation is the open one, so
// the sender sees their message before the round trip completes. Once the
// server returns the canonical record it is announced over the transport; the
// room echo replaces the optimistic entry in place. On persistence failure
// the optimistic entry is rolled back and the error returned.
func (c *Coordinator) SendMessageToID(ctx context.Context, conversationID uuid.UUID, req model.SendMessageRequest) (*model.Message, error) {
	tempID := fmt.Sprintf("tmp-%d", time.Now().UnixNano())

	c.mu.Lock()
	if c.active != nil && c.active.ID == conversationID {
		c.messages = append(c.messages, ChatMessage{
			Message: model.Message{
				ConversationID: conversationID,
				SenderID:       c.selfID,
				Content:        req.Content,
				FileURL:        req.FileURL,
				FileType:       req.FileType,
				CreatedAt:      time.Now(),
			},
			TempID:     tempID,
			Optimistic: true,
		})
	}
	c.mu.Unlock()

	msg, err := c.api.Send(ctx, conversationID, req)
	if err != nil {
		c.mu.Lock()
		for i := range c.messages {
			if c.messages[i].TempID == tempID {
				c.messages = append(c.messages[:i], c.messages[i+1:]...)
				break
			}
		}
		c.mu.Unlock()
		return nil, err
	}

	c.transport.EmitMessage(msg)

	c.mu.Lock()
	c.bumpConversationLocked(*msg, false)
	c.mu.Unlock()
	return msg, nil
}

// ========== Inbound events ==========

// HandleNewMessage processes a message arriving over the transport, including
// the echo of our own sends. For the open conversation an optimistic entry
// with matching content is replaced in place, a message already present is
// ignored, anything else is appended. The conversation list entry gets a
// fresh last-message snapshot and moves to the front; unread counts grow only
// for messages to conversations that are not open and were not sent by us.
func (c *Coordinator) HandleNewMessage(msg model.Message) {
	c.mu.Lock()

	activeConv := c.active != nil && c.active.ID == msg.ConversationID
	if activeConv {
		c.applyToOpenChatLocked(msg)
	}

	known := false
	for i := range c.conversations {
		if c.conversations[i].ID == msg.ConversationID {
			known = true
			break
		}
	}
	incrementUnread := !activeConv && msg.SenderID != c.selfID
	if known {
		c.bumpConversationLocked(msg, incrementUnread)
	}
	c.mu.Unlock()

	if !known {
		// Message for a conversation we have never seen, likely freshly
		// created by the other side. Pull the full list.
		go c.FetchConversations(context.Background())
	}
	if activeConv && msg.SenderID != c.selfID {
		// The user is looking at this conversation, so the message counts
		// as read right away.
		go func() {
			if err := c.api.MarkRead(context.Background(), msg.ConversationID); err != nil {
				log.Printf("chatclient: mark read %s: %v", msg.ConversationID, err)
			}
		}()
	}
}

// applyToOpenChatLocked reconciles an inbound message against the open
// conversation's list: optimistic replacement first, then id dedup, then
// append.
func (c *Coordinator) applyToOpenChatLocked(msg model.Message) {
	if msg.SenderID == c.selfID {
		for i := range c.messages {
			if c.messages[i].Optimistic && c.messages[i].Content == msg.Content {
				c.messages[i] = ChatMessage{Message: msg}
				return
			}
		}
	}
	for i := range c.messages {
		if c.messages[i].ID == msg.ID {
			return
		}
	}
	c.messages = append(c.messages, ChatMessage{Message: msg})
}

// HandleTyping records a typing indicator for the open conversation. The set
// is deduplicated per user; indicators only disappear on an explicit stop or
// a conversation switch.
func (c *Coordinator) HandleTyping(ev model.TypingEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil || c.active.ID.String() != ev.ConversationID || ev.UserID == c.selfID {
		return
	}
	for _, t := range c.typing {
		if t.UserID == ev.UserID {
			return
		}
	}
	c.typing = append(c.typing, ev)
}

// HandleStopTyping removes the user's typing indicator.
func (c *Coordinator) HandleStopTyping(ev model.TypingEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, t := range c.typing {
		if t.UserID == ev.UserID {
			c.typing = append(c.typing[:i], c.typing[i+1:]...)
			return
		}
	}
}

// HandleReconnect re-joins the open conversation's room after the transport
// re-established its connection. Room membership is connection state on the
// server and is lost on every drop.
func (c *Coordinator) HandleReconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil {
		c.transport.JoinRoom(c.active.ID.String())
	}
}

// ========== Typing ==========

// StartTyping announces to the open conversation's room that we are typing.
func (c *Coordinator) StartTyping() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil {
		c.transport.EmitTyping(c.active.ID.String())
	}
}

// StopTyping retracts our typing indicator.
func (c *Coordinator) StopTyping() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil {
		c.transport.EmitStopTyping(c.active.ID.String())
	}
}

// ========== Deletion ==========

// DeleteMessage soft-deletes a message for this user and removes it from the
// open conversation's list. The conversation list is refreshed afterwards in
// case the deleted message was a last-message snapshot.
func (c *Coordinator) DeleteMessage(ctx context.Context, messageID uuid.UUID) error {
	if err := c.api.DeleteMessage(ctx, messageID); err != nil {
		return err
	}

	c.mu.Lock()
	for i := range c.messages {
		if c.messages[i].ID == messageID {
			c.messages = append(c.messages[:i], c.messages[i+1:]...)
			break
		}
	}
	c.mu.Unlock()

	go c.FetchConversations(context.Background())
	return nil
}

// DeleteConversation removes this user's membership in the conversation and
// drops it from the local list; other members keep the conversation. If it
// was the open conversation the chat view is cleared.
func (c *Coordinator) DeleteConversation(ctx context.Context, conversationID uuid.UUID) error {
	if err := c.api.LeaveConversation(ctx, conversationID); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.conversations {
		if c.conversations[i].ID == conversationID {
			c.conversations = append(c.conversations[:i], c.conversations[i+1:]...)
			break
		}
	}
	if c.active != nil && c.active.ID == conversationID {
		c.clearChatLocked()
	}
	return nil
}

// ========== List bookkeeping ==========

// upsertConversationLocked ensures conv is present in the list, prepending it
// when missing and replacing the entry when present.
func (c *Coordinator) upsertConversationLocked(conv model.ConversationResponse) {
	for i := range c.conversations {
		if c.conversations[i].ID == conv.ID {
			c.conversations[i] = conv
			return
		}
	}
	c.conversations = append([]model.ConversationResponse{conv}, c.conversations...)
}

// bumpConversationLocked applies a new message to the list entry: refreshes
// the last-message snapshot, optionally grows the unread count and moves the
// conversation to the front.
func (c *Coordinator) bumpConversationLocked(msg model.Message, incrementUnread bool) {
	for i := range c.conversations {
		if c.conversations[i].ID != msg.ConversationID {
			continue
		}
		conv := c.conversations[i]
		conv.LastMessage = &model.MessageSnapshot{Content: msg.Content, CreatedAt: msg.CreatedAt}
		conv.UpdatedAt = msg.CreatedAt
		if incrementUnread {
			conv.UnreadCount++
		}
		c.conversations = append(c.conversations[:i], c.conversations[i+1:]...)
		c.conversations = append([]model.ConversationResponse{conv}, c.conversations...)
		return
	}
}
