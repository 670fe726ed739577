package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/nextbenchapp/nextbench/internal/model"
	"github.com/redis/go-redis/v9"
)

const redisChannel = "nextbench:chat"

// Hub manages WebSocket connections and room-scoped fan-out. Rooms are keyed
// by conversation id: a client joins the active conversation's room and every
// chat event is broadcast to that room only. Redis Pub/Sub carries room events
// across instances so members connected elsewhere still receive them.
type Hub struct {
	// userID -> set of connections (one user can have multiple tabs/devices)
	clients map[uuid.UUID]map[*Client]bool
	// conversation id -> set of connections currently in the room
	rooms map[string]map[*Client]bool
	mu    sync.RWMutex

	register   chan *Client
	unregister chan *Client

	rdb *redis.Client

	// Callback when user comes online/offline
	onStatusChange func(userID uuid.UUID, online bool)
}

// NewHub creates a new WebSocket Hub
func NewHub(rdb *redis.Client, onStatusChange func(userID uuid.UUID, online bool)) *Hub {
	return &Hub{
		clients:        make(map[uuid.UUID]map[*Client]bool),
		rooms:          make(map[string]map[*Client]bool),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		rdb:            rdb,
		onStatusChange: onStatusChange,
	}
}

// Run starts the Hub's main event loop
func (h *Hub) Run(ctx context.Context) {
	go h.subscribeRedis(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

// Register queues a client for registration with the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.UserID]; !ok {
		h.clients[client.UserID] = make(map[*Client]bool)
		// First connection: user just came online
		if h.onStatusChange != nil {
			go h.onStatusChange(client.UserID, true)
		}
	}
	h.clients[client.UserID][client] = true
	log.Printf("ws client connected: %s (connections: %d)", client.UserID, len(h.clients[client.UserID]))
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeClientLocked(client)
	log.Printf("ws client disconnected: %s", client.UserID)
}

// removeClientLocked detaches the connection from the user set and every room
// and closes its send channel. Safe to call twice for the same connection: a
// client already dropped (slow consumer) is a no-op, so the channel is never
// closed a second time.
func (h *Hub) removeClientLocked(client *Client) {
	clients, ok := h.clients[client.UserID]
	if !ok {
		return
	}
	if _, in := clients[client]; !in {
		return
	}

	delete(clients, client)
	close(client.send)

	if len(clients) == 0 {
		delete(h.clients, client.UserID)
		if h.onStatusChange != nil {
			go h.onStatusChange(client.UserID, false)
		}
	}

	for room := range client.rooms {
		h.removeFromRoomLocked(client, room)
	}
}

// JoinRoom adds the client's connection to a conversation room
func (h *Hub) JoinRoom(client *Client, conversationID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[conversationID]; !ok {
		h.rooms[conversationID] = make(map[*Client]bool)
	}
	h.rooms[conversationID][client] = true
	client.rooms[conversationID] = true
}

// LeaveRoom removes the client's connection from a conversation room
func (h *Hub) LeaveRoom(client *Client, conversationID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeFromRoomLocked(client, conversationID)
}

func (h *Hub) removeFromRoomLocked(client *Client, conversationID string) {
	if room, ok := h.rooms[conversationID]; ok {
		delete(room, client)
		if len(room) == 0 {
			delete(h.rooms, conversationID)
		}
	}
	delete(client.rooms, conversationID)
}

// RoomMembers returns the user ids with at least one connection in the room
func (h *Hub) RoomMembers(conversationID string) []uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[uuid.UUID]bool)
	ids := []uuid.UUID{}
	for client := range h.rooms[conversationID] {
		if !seen[client.UserID] {
			seen[client.UserID] = true
			ids = append(ids, client.UserID)
		}
	}
	return ids
}

// BroadcastToRoom sends an event to every connection in the conversation's
// room, on this instance and on peers via Redis. excludeUser skips all of one
// user's connections (uuid.Nil excludes no one).
func (h *Hub) BroadcastToRoom(conversationID string, event *model.WSEvent, excludeUser uuid.UUID) {
	h.publishToRedis(&roomFanout{
		Room:        conversationID,
		ExcludeUser: excludeUser,
		Event:       event,
	})
}

// deliverToLocalRoom fans an event out to the room's connections on this
// instance. Takes the write lock because a slow consumer is dropped from the
// hub's maps mid-iteration.
func (h *Hub) deliverToLocalRoom(conversationID string, event *model.WSEvent, excludeUser uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[conversationID]
	if !ok {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("ws: marshal event: %v", err)
		return
	}

	for client := range room {
		if excludeUser != uuid.Nil && client.UserID == excludeUser {
			continue
		}
		select {
		case client.send <- data:
		default:
			// Send buffer full: drop the connection
			h.removeClientLocked(client)
		}
	}
}

// IsUserOnline checks if a user has any active connections on this instance
func (h *Hub) IsUserOnline(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

// ========== Redis Pub/Sub for horizontal scaling ==========

// roomFanout wraps a room-scoped event for cross-instance delivery
type roomFanout struct {
	Room        string         `json:"room"`
	ExcludeUser uuid.UUID      `json:"exclude_user,omitempty"`
	Event       *model.WSEvent `json:"event"`
}

func (h *Hub) publishToRedis(data *roomFanout) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Printf("ws: marshal for redis: %v", err)
		return
	}

	if err := h.rdb.Publish(context.Background(), redisChannel, jsonData).Err(); err != nil {
		log.Printf("ws: publish to redis: %v", err)
	}
}

func (h *Hub) subscribeRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, redisChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	log.Println("ws: redis pub/sub subscriber started")

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-ch:
			var fanout roomFanout
			if err := json.Unmarshal([]byte(msg.Payload), &fanout); err != nil {
				log.Printf("ws: unmarshal redis message: %v", err)
				continue
			}
			if fanout.Event != nil && fanout.Room != "" {
				h.deliverToLocalRoom(fanout.Room, fanout.Event, fanout.ExcludeUser)
			}
		}
	}
}
