package ws

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/nextbenchapp/nextbench/internal/model"
)

func newTestClient(hub *Hub, name string) *Client {
	return NewClient(hub, nil, uuid.New(), name)
}

func TestRoomBookkeeping(t *testing.T) {
	hub := NewHub(nil, nil)
	room := uuid.New().String()

	alice := newTestClient(hub, "Alice")
	bob := newTestClient(hub, "Bob")
	hub.addClient(alice)
	hub.addClient(bob)

	hub.JoinRoom(alice, room)
	hub.JoinRoom(bob, room)

	members := hub.RoomMembers(room)
	if len(members) != 2 {
		t.Fatalf("expected 2 room members, got %d", len(members))
	}

	hub.LeaveRoom(alice, room)
	members = hub.RoomMembers(room)
	if len(members) != 1 || members[0] != bob.UserID {
		t.Fatalf("expected only bob left in the room, got %v", members)
	}

	// Last member leaving removes the room entirely.
	hub.LeaveRoom(bob, room)
	if got := hub.RoomMembers(room); len(got) != 0 {
		t.Fatalf("expected empty room, got %v", got)
	}
}

func TestSameUserWithTwoConnectionsCountsOnce(t *testing.T) {
	hub := NewHub(nil, nil)
	room := uuid.New().String()

	userID := uuid.New()
	phone := NewClient(hub, nil, userID, "Priya")
	laptop := NewClient(hub, nil, userID, "Priya")
	hub.addClient(phone)
	hub.addClient(laptop)

	hub.JoinRoom(phone, room)
	hub.JoinRoom(laptop, room)

	if members := hub.RoomMembers(room); len(members) != 1 {
		t.Fatalf("expected one distinct user in the room, got %d", len(members))
	}
}

func TestStatusChangeFiresOnFirstAndLastConnection(t *testing.T) {
	type change struct {
		userID uuid.UUID
		online bool
	}
	changes := make(chan change, 4)

	hub := NewHub(nil, func(userID uuid.UUID, online bool) {
		changes <- change{userID, online}
	})

	userID := uuid.New()
	phone := NewClient(hub, nil, userID, "Dev")
	laptop := NewClient(hub, nil, userID, "Dev")

	hub.addClient(phone)
	if got := <-changes; !got.online || got.userID != userID {
		t.Fatalf("expected online callback for first connection, got %+v", got)
	}
	if !hub.IsUserOnline(userID) {
		t.Fatalf("expected user online")
	}

	// Second connection of the same user: no callback.
	hub.addClient(laptop)
	hub.removeClient(laptop)
	select {
	case got := <-changes:
		t.Fatalf("unexpected status change while one connection remains: %+v", got)
	default:
	}

	hub.removeClient(phone)
	if got := <-changes; got.online {
		t.Fatalf("expected offline callback for last disconnect, got %+v", got)
	}
	if hub.IsUserOnline(userID) {
		t.Fatalf("expected user offline")
	}
}

func TestDisconnectLeavesAllRooms(t *testing.T) {
	hub := NewHub(nil, nil)
	roomA := uuid.New().String()
	roomB := uuid.New().String()

	client := newTestClient(hub, "Sam")
	hub.addClient(client)
	hub.JoinRoom(client, roomA)
	hub.JoinRoom(client, roomB)

	hub.removeClient(client)

	if got := hub.RoomMembers(roomA); len(got) != 0 {
		t.Fatalf("expected room A emptied on disconnect, got %v", got)
	}
	if got := hub.RoomMembers(roomB); len(got) != 0 {
		t.Fatalf("expected room B emptied on disconnect, got %v", got)
	}
}

func TestLocalDeliveryHonorsExclude(t *testing.T) {
	hub := NewHub(nil, nil)
	room := uuid.New().String()

	sender := newTestClient(hub, "Sender")
	receiver := newTestClient(hub, "Receiver")
	hub.addClient(sender)
	hub.addClient(receiver)
	hub.JoinRoom(sender, room)
	hub.JoinRoom(receiver, room)

	event := &model.WSEvent{
		Type:    model.WSEventTyping,
		Payload: model.TypingEvent{ConversationID: room, UserID: sender.UserID, Name: "Sender"},
	}
	hub.deliverToLocalRoom(room, event, sender.UserID)

	select {
	case data := <-receiver.send:
		var got model.WSEvent
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unmarshal delivered frame: %v", err)
		}
		if got.Type != model.WSEventTyping {
			t.Fatalf("expected typing event, got %s", got.Type)
		}
	default:
		t.Fatalf("receiver got nothing")
	}

	select {
	case <-sender.send:
		t.Fatalf("excluded sender must not receive the event")
	default:
	}
}

func TestSlowConsumerIsDroppedOnce(t *testing.T) {
	hub := NewHub(nil, nil)
	room := uuid.New().String()

	healthy := newTestClient(hub, "Healthy")
	slow := newTestClient(hub, "Slow")
	hub.addClient(healthy)
	hub.addClient(slow)
	hub.JoinRoom(healthy, room)
	hub.JoinRoom(slow, room)

	// Fill the slow connection's send buffer so the next delivery cannot
	// queue and has to drop it.
	for i := 0; i < cap(slow.send); i++ {
		slow.send <- []byte("{}")
	}

	event := &model.WSEvent{Type: model.WSEventNewMessage}
	hub.deliverToLocalRoom(room, event, uuid.Nil)

	members := hub.RoomMembers(room)
	if len(members) != 1 || members[0] != healthy.UserID {
		t.Fatalf("expected only the healthy connection left in the room, got %v", members)
	}
	if hub.IsUserOnline(slow.UserID) {
		t.Fatalf("expected dropped user to be offline")
	}

	// The connection's read pump still unregisters it afterwards; the second
	// removal must not close the send channel again.
	hub.removeClient(slow)

	select {
	case <-healthy.send:
	default:
		t.Fatalf("healthy connection got nothing")
	}
}

func TestOnStatusChangeGoroutine(t *testing.T) {
	// addClient fires the callback on a goroutine; callbacks touching the hub
	// must not deadlock.
	done := make(chan struct{})
	var hub *Hub
	hub = NewHub(nil, func(userID uuid.UUID, online bool) {
		hub.IsUserOnline(userID)
		close(done)
	})

	hub.addClient(newTestClient(hub, "X"))
	<-done
}
