package chatclient

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nextbenchapp/nextbench/internal/model"
)

const (
	socketSendBuffer  = 64
	reconnectBaseWait = time.Second
	reconnectMaxWait  = 30 * time.Second
)

// Socket implements Transport over a websocket connection to the /ws
// endpoint. It reconnects with exponential backoff when the connection drops
// and notifies the EventHandler after every re-established connection so room
// membership can be restored.
type Socket struct {
	url     string
	handler EventHandler
	send    chan model.WSEvent
}

// NewSocket prepares a socket for the given endpoint, e.g.
// "ws://localhost:8080/ws?token=<jwt>". Nothing connects until Run is called.
func NewSocket(url string, handler EventHandler) *Socket {
	return &Socket{
		url:     url,
		handler: handler,
		send:    make(chan model.WSEvent, socketSendBuffer),
	}
}

// Run connects and keeps the connection alive until ctx is cancelled. It
// blocks; run it in its own goroutine.
func (s *Socket) Run(ctx context.Context) {
	wait := reconnectBaseWait
	first := true

	for {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)
		if err != nil {
			log.Printf("chatclient: websocket dial: %v", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
			if wait *= 2; wait > reconnectMaxWait {
				wait = reconnectMaxWait
			}
			continue
		}
		wait = reconnectBaseWait

		if !first {
			s.handler.HandleReconnect()
		}
		first = false

		s.pump(ctx, conn)
		conn.Close()

		select {
		case <-ctx.Done():
			return
		default:
		}
		log.Println("chatclient: websocket disconnected, reconnecting")
	}
}

// pump services one connection: writes queued events and dispatches inbound
// frames until the connection fails or ctx is cancelled.
func (s *Socket) pump(ctx context.Context, conn *websocket.Conn) {
	readErr := make(chan error, 1)
	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			s.dispatch(data)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case err := <-readErr:
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("chatclient: websocket read: %v", err)
			}
			return
		case ev := <-s.send:
			if err := conn.WriteJSON(ev); err != nil {
				log.Printf("chatclient: websocket write: %v", err)
				return
			}
		}
	}
}

// inboundEvent defers payload decoding until the type is known.
type inboundEvent struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func (s *Socket) dispatch(data []byte) {
	var ev inboundEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		log.Printf("chatclient: malformed frame: %v", err)
		return
	}

	switch ev.Type {
	case model.WSEventNewMessage:
		var msg model.Message
		if err := json.Unmarshal(ev.Payload, &msg); err != nil {
			log.Printf("chatclient: malformed new_message payload: %v", err)
			return
		}
		s.handler.HandleNewMessage(msg)
	case model.WSEventTyping, model.WSEventStopTyping:
		var typing model.TypingEvent
		if err := json.Unmarshal(ev.Payload, &typing); err != nil {
			log.Printf("chatclient: malformed typing payload: %v", err)
			return
		}
		if ev.Type == model.WSEventTyping {
			s.handler.HandleTyping(typing)
		} else {
			s.handler.HandleStopTyping(typing)
		}
	}
}

// emit queues an event for the write loop, dropping it when the buffer is
// full; a dropped emit surfaces as a missing echo, never as an error.
func (s *Socket) emit(ev model.WSEvent) {
	select {
	case s.send <- ev:
	default:
		log.Printf("chatclient: send buffer full, dropping %s", ev.Type)
	}
}

func (s *Socket) JoinRoom(conversationID string) {
	s.emit(model.WSEvent{
		Type:    model.WSEventJoinConversation,
		Payload: model.RoomEvent{ConversationID: conversationID},
	})
}

func (s *Socket) LeaveRoom(conversationID string) {
	s.emit(model.WSEvent{
		Type:    model.WSEventLeaveConversation,
		Payload: model.RoomEvent{ConversationID: conversationID},
	})
}

func (s *Socket) EmitTyping(conversationID string) {
	s.emit(model.WSEvent{
		Type:    model.WSEventTyping,
		Payload: model.RoomEvent{ConversationID: conversationID},
	})
}

func (s *Socket) EmitStopTyping(conversationID string) {
	s.emit(model.WSEvent{
		Type:    model.WSEventStopTyping,
		Payload: model.RoomEvent{ConversationID: conversationID},
	})
}

func (s *Socket) EmitMessage(msg *model.Message) {
	s.emit(model.WSEvent{
		Type:    model.WSEventSendMessage,
		Payload: msg,
	})
}
