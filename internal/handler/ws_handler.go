package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/nextbenchapp/nextbench/internal/model"
	"github.com/nextbenchapp/nextbench/internal/service"
	"github.com/nextbenchapp/nextbench/internal/ws"
	"github.com/nextbenchapp/nextbench/pkg/auth"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // In production, validate origin
	},
}

// WSHandler handles WebSocket connections
type WSHandler struct {
	hub         *ws.Hub
	chatService *service.ChatService
	jwtManager  *auth.JWTManager
}

func NewWSHandler(hub *ws.Hub, chatService *service.ChatService, jwtManager *auth.JWTManager) *WSHandler {
	return &WSHandler{
		hub:         hub,
		chatService: chatService,
		jwtManager:  jwtManager,
	}
}

// HandleWebSocket upgrades HTTP to WebSocket and manages the connection.
// Clients connect with: ws://host/ws?token=<jwt>
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	// WebSocket clients can't set an Authorization header
	tokenString := c.Query("token")
	if tokenString == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token required"})
		return
	}

	claims, err := h.jwtManager.ValidateToken(tokenString)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	client := ws.NewClient(h.hub, conn, claims.UserID, claims.Name)
	h.hub.Register(client)

	log.Printf("✅ WS Connected: UserID=%s Name=%s", claims.UserID, claims.Name)

	go client.WritePump()
	go client.ReadPump(h.handleWSMessage)
}

// handleWSMessage routes incoming WebSocket frames
func (h *WSHandler) handleWSMessage(client *ws.Client, event model.WSEvent) {
	switch event.Type {
	case model.WSEventJoinConversation:
		h.handleJoin(client, event)

	case model.WSEventLeaveConversation:
		h.handleLeave(client, event)

	case model.WSEventTyping:
		h.handleTyping(client, event, model.WSEventTyping)

	case model.WSEventStopTyping:
		h.handleTyping(client, event, model.WSEventStopTyping)

	case model.WSEventSendMessage:
		h.handleSendMessage(client, event)

	default:
		log.Printf("Unknown WebSocket event type: %s", event.Type)
	}
}

func parseRoomPayload(payload interface{}) (string, bool) {
	payloadBytes, _ := json.Marshal(payload)
	var room model.RoomEvent
	if err := json.Unmarshal(payloadBytes, &room); err != nil || room.ConversationID == "" {
		return "", false
	}
	if _, err := uuid.Parse(room.ConversationID); err != nil {
		return "", false
	}
	return room.ConversationID, true
}

// handleJoin subscribes the connection to a conversation room. Only members
// of the conversation may join.
func (h *WSHandler) handleJoin(client *ws.Client, event model.WSEvent) {
	room, ok := parseRoomPayload(event.Payload)
	if !ok {
		return
	}

	conversationID, _ := uuid.Parse(room)
	isMember, err := h.chatService.IsMember(conversationID, client.UserID)
	if err != nil || !isMember {
		log.Printf("ws: join rejected for %s on %s", client.UserID, room)
		return
	}

	h.hub.JoinRoom(client, room)
}

func (h *WSHandler) handleLeave(client *ws.Client, event model.WSEvent) {
	room, ok := parseRoomPayload(event.Payload)
	if !ok {
		return
	}
	h.hub.LeaveRoom(client, room)
}

// handleTyping re-emits a typing or stop_typing indicator to everyone else in
// the room.
func (h *WSHandler) handleTyping(client *ws.Client, event model.WSEvent, eventType string) {
	room, ok := parseRoomPayload(event.Payload)
	if !ok {
		return
	}

	h.hub.BroadcastToRoom(room, &model.WSEvent{
		Type: eventType,
		Payload: model.TypingEvent{
			ConversationID: room,
			UserID:         client.UserID,
			Name:           client.Name,
		},
	}, client.UserID)
}

// handleSendMessage re-broadcasts an already-persisted message to the whole
// room as new_message. The sender's other connections receive it too; clients
// reconcile the echo against their optimistic copy.
func (h *WSHandler) handleSendMessage(client *ws.Client, event model.WSEvent) {
	payloadBytes, _ := json.Marshal(event.Payload)
	var msg model.Message
	if err := json.Unmarshal(payloadBytes, &msg); err != nil {
		log.Printf("ws: parse send_message payload: %v", err)
		return
	}
	if msg.ConversationID == uuid.Nil {
		return
	}

	// Only the author may announce their own message
	if msg.SenderID != client.UserID {
		log.Printf("ws: send_message sender mismatch from %s", client.UserID)
		return
	}

	h.hub.BroadcastToRoom(msg.ConversationID.String(), &model.WSEvent{
		Type:    model.WSEventNewMessage,
		Payload: msg,
	}, uuid.Nil)
}
