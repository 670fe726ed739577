// Package events provides an in-process publish/subscribe bus with typed
// topics. Mutations publish facts ("listing created", "rating submitted");
// observers such as gamification awards and notification writers subscribe,
// keeping that logic out of the request path.
package events

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"
)

// Topic names a category of domain event
type Topic string

const (
	TopicListingCreated    Topic = "listing.created"
	TopicRatingSubmitted   Topic = "rating.submitted"
	TopicMessageSent       Topic = "message.sent"
	TopicStudyGroupJoined  Topic = "studygroup.joined"
	TopicSkillSwapProposed Topic = "skillswap.proposed"
	TopicSkillSwapAccepted Topic = "skillswap.accepted"
	TopicDailyActive       Topic = "user.daily_active"
	TopicDealCompleted     Topic = "deal.completed"
)

// Event is one published fact
type Event struct {
	Topic   Topic
	Payload interface{}
}

// ListingCreated is published for products, services, events and skill swaps
type ListingCreated struct {
	OwnerID uuid.UUID
	Kind    string // product, service, event, skill_swap, study_group
	ItemID  uuid.UUID
}

type RatingSubmitted struct {
	RaterID uuid.UUID
	OwnerID uuid.UUID // owner of the rated listing
	Stars   int
}

type MessageSent struct {
	SenderID       uuid.UUID
	SenderName     string
	ConversationID uuid.UUID
	Content        string
	MemberIDs      []uuid.UUID
	QuickReply     bool // replied within the quick-reply window
}

// DailyActive marks a user's first activity of the day
type DailyActive struct {
	UserID uuid.UUID
}

// DealCompleted is published when a listing is marked sold
type DealCompleted struct {
	SellerID uuid.UUID
	ItemID   uuid.UUID
}

type StudyGroupJoined struct {
	GroupID  uuid.UUID
	HostID   uuid.UUID
	JoinerID uuid.UUID
	Subject  string
}

type SkillSwapProposed struct {
	RequestID  uuid.UUID
	SenderID   uuid.UUID
	ReceiverID uuid.UUID
}

type SkillSwapAccepted struct {
	RequestID  uuid.UUID
	SenderID   uuid.UUID
	ReceiverID uuid.UUID
}

// Handler consumes one event. Handlers run on the bus dispatch goroutine and
// should hand off long work themselves.
type Handler func(Event)

// Bus dispatches published events to subscribers through a buffered channel,
// one dispatch loop per bus.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Topic][]Handler
	publish  chan Event
}

// NewBus creates a bus; call Run before publishing
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[Topic][]Handler),
		publish:  make(chan Event, 256),
	}
}

// Subscribe registers a handler for a topic. Wire subscriptions at startup;
// handlers cannot be removed.
func (b *Bus) Subscribe(topic Topic, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], h)
}

// Publish enqueues an event; drops it (with a log line) when the bus is saturated
func (b *Bus) Publish(topic Topic, payload interface{}) {
	select {
	case b.publish <- Event{Topic: topic, Payload: payload}:
	default:
		log.Printf("events: bus full, dropping %s", topic)
	}
}

// Run starts the dispatch loop
func (b *Bus) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-b.publish:
			b.mu.RLock()
			handlers := b.handlers[ev.Topic]
			b.mu.RUnlock()
			for _, h := range handlers {
				h(ev)
			}
		}
	}
}
