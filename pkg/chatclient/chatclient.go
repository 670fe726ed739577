// Package chatclient is the client-side chat engine. The Coordinator owns the
// in-memory view of the user's conversations and the open conversation's
// message list, and mediates between the persistence API and the realtime
// transport: optimistic sends, echo reconciliation, typing indicators, unread
// counts and per-user deletion all live here.
package chatclient

import (
	"context"

	"github.com/google/uuid"
	"github.com/nextbenchapp/nextbench/internal/model"
)

// API is the persistence and query boundary the Coordinator talks to.
// Implemented by RESTClient and by test stubs.
type API interface {
	ListConversations(ctx context.Context) ([]model.ConversationResponse, error)
	CreateDirect(ctx context.Context, partnerID uuid.UUID) (*model.DirectConversationResponse, error)
	History(ctx context.Context, conversationID uuid.UUID) ([]model.Message, error)
	Send(ctx context.Context, conversationID uuid.UUID, req model.SendMessageRequest) (*model.Message, error)
	MarkRead(ctx context.Context, conversationID uuid.UUID) error
	DeleteMessage(ctx context.Context, messageID uuid.UUID) error
	LeaveConversation(ctx context.Context, conversationID uuid.UUID) error
}

// Transport is the realtime boundary. Implemented by Socket and by test stubs.
// Emits are fire-and-forget; delivery failures surface as missing echoes, not
// as errors.
type Transport interface {
	JoinRoom(conversationID string)
	LeaveRoom(conversationID string)
	EmitTyping(conversationID string)
	EmitStopTyping(conversationID string)
	EmitMessage(msg *model.Message)
}

// EventHandler receives inbound transport events. The Coordinator implements
// it; the Socket calls it from its read loop.
type EventHandler interface {
	HandleNewMessage(msg model.Message)
	HandleTyping(ev model.TypingEvent)
	HandleStopTyping(ev model.TypingEvent)
	HandleReconnect()
}

// ChatMessage is one entry in the visible message list. Optimistic entries
// are locally synthesized and carry a temp id until the server echo replaces
// them with the canonical record.
type ChatMessage struct {
	model.Message
	TempID     string `json:"temp_id,omitempty"`
	Optimistic bool   `json:"optimistic,omitempty"`
}
