package events

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestBusDeliversToAllSubscribers(t *testing.T) {
	bus := NewBus()

	first := make(chan Event, 1)
	second := make(chan Event, 1)
	bus.Subscribe(TopicDealCompleted, func(ev Event) { first <- ev })
	bus.Subscribe(TopicDealCompleted, func(ev Event) { second <- ev })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go bus.Run(ctx)

	seller := uuid.New()
	bus.Publish(TopicDealCompleted, DealCompleted{SellerID: seller})

	for i, ch := range []chan Event{first, second} {
		select {
		case ev := <-ch:
			p, ok := ev.Payload.(DealCompleted)
			if !ok {
				t.Fatalf("subscriber %d: wrong payload type %T", i, ev.Payload)
			}
			if p.SellerID != seller {
				t.Fatalf("subscriber %d: wrong seller id", i)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("subscriber %d never received the event", i)
		}
	}
}

func TestBusTopicsAreIsolated(t *testing.T) {
	bus := NewBus()

	got := make(chan Event, 2)
	bus.Subscribe(TopicListingCreated, func(ev Event) { got <- ev })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go bus.Run(ctx)

	bus.Publish(TopicRatingSubmitted, RatingSubmitted{Stars: 5})
	bus.Publish(TopicListingCreated, ListingCreated{Kind: "product"})

	select {
	case ev := <-got:
		if ev.Topic != TopicListingCreated {
			t.Fatalf("received event for the wrong topic: %s", ev.Topic)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("subscribed topic never delivered")
	}

	select {
	case ev := <-got:
		t.Fatalf("unexpected extra event: %s", ev.Topic)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPublishWithoutSubscribersDoesNotBlock(t *testing.T) {
	bus := NewBus()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go bus.Run(ctx)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			bus.Publish(TopicDailyActive, DailyActive{UserID: uuid.New()})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("publishing with no subscribers blocked")
	}
}
