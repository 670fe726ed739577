package service

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/nextbenchapp/nextbench/internal/events"
	"github.com/nextbenchapp/nextbench/internal/model"
	"github.com/nextbenchapp/nextbench/internal/repository"
	"github.com/nextbenchapp/nextbench/pkg/push"
)

const notificationPageSize = 50

// NotificationService reads and writes in-app notifications. Rows are created
// by the event bus observers, not by request handlers.
type NotificationService struct {
	notifRepo *repository.NotificationRepository
}

func NewNotificationService(notifRepo *repository.NotificationRepository) *NotificationService {
	return &NotificationService{notifRepo: notifRepo}
}

// List returns the user's notifications, newest first
func (s *NotificationService) List(userID uuid.UUID) ([]model.Notification, error) {
	return s.notifRepo.ListForUser(userID, notificationPageSize)
}

// MarkRead marks one notification as read; already-read rows are untouched
func (s *NotificationService) MarkRead(notificationID, userID uuid.UUID) error {
	return s.notifRepo.MarkRead(notificationID, userID)
}

func (s *NotificationService) notify(userID uuid.UUID, title, content, link string) {
	err := s.notifRepo.Create(&model.Notification{
		UserID:  userID,
		Title:   title,
		Content: content,
		Link:    link,
	})
	if err != nil {
		log.Printf("notify: create notification for %s: %v", userID, err)
	}
}

// OnlineChecker reports whether a user has a live realtime connection.
// Satisfied by the websocket hub.
type OnlineChecker interface {
	IsUserOnline(userID uuid.UUID) bool
}

// WireObservers subscribes the gamification and notification side effects to
// the event bus. Called once at startup, before the bus starts dispatching.
func WireObservers(
	bus *events.Bus,
	game *GamificationService,
	notifier *NotificationService,
	pusher *push.Pusher,
	online OnlineChecker,
) {
	bus.Subscribe(events.TopicListingCreated, func(ev events.Event) {
		p, ok := ev.Payload.(events.ListingCreated)
		if !ok {
			return
		}
		game.Award(p.OwnerID, XPCreateListing)
	})

	bus.Subscribe(events.TopicRatingSubmitted, func(ev events.Event) {
		p, ok := ev.Payload.(events.RatingSubmitted)
		if !ok {
			return
		}
		game.RecordRating(p.OwnerID, p.Stars)
		notifier.notify(p.OwnerID, "New rating",
			fmt.Sprintf("Someone rated your listing %d stars", p.Stars), "")
	})

	bus.Subscribe(events.TopicStudyGroupJoined, func(ev events.Event) {
		p, ok := ev.Payload.(events.StudyGroupJoined)
		if !ok {
			return
		}
		notifier.notify(p.HostID, "New study group member",
			fmt.Sprintf("Someone joined your %s group", p.Subject),
			"/study-groups/"+p.GroupID.String())
	})

	bus.Subscribe(events.TopicSkillSwapProposed, func(ev events.Event) {
		p, ok := ev.Payload.(events.SkillSwapProposed)
		if !ok {
			return
		}
		notifier.notify(p.ReceiverID, "Skill swap proposal",
			"You received a new skill swap proposal", "/skill-swaps/requests")
	})

	bus.Subscribe(events.TopicSkillSwapAccepted, func(ev events.Event) {
		p, ok := ev.Payload.(events.SkillSwapAccepted)
		if !ok {
			return
		}
		// Both sides earn the swap-complete reward
		game.Award(p.SenderID, XPSkillSwapComplete)
		game.Award(p.ReceiverID, XPSkillSwapComplete)
		notifier.notify(p.SenderID, "Swap accepted",
			"Your skill swap proposal was accepted", "/skill-swaps/requests")
	})

	bus.Subscribe(events.TopicDealCompleted, func(ev events.Event) {
		p, ok := ev.Payload.(events.DealCompleted)
		if !ok {
			return
		}
		game.RecordTransaction(p.SellerID)
	})

	bus.Subscribe(events.TopicDailyActive, func(ev events.Event) {
		p, ok := ev.Payload.(events.DailyActive)
		if !ok {
			return
		}
		game.Award(p.UserID, XPDailyActivity)
	})

	bus.Subscribe(events.TopicMessageSent, func(ev events.Event) {
		p, ok := ev.Payload.(events.MessageSent)
		if !ok {
			return
		}
		if p.QuickReply {
			game.Award(p.SenderID, XPQuickReply)
		}
		// Push only to members without a live socket; online members get the
		// message over the room broadcast.
		for _, memberID := range p.MemberIDs {
			if memberID == p.SenderID {
				continue
			}
			if online != nil && online.IsUserOnline(memberID) {
				continue
			}
			go func(id uuid.UUID) {
				if err := pusher.SendMessageNotification(context.Background(), id, p.SenderName, p.Content, p.ConversationID); err != nil {
					log.Printf("push: notify %s: %v", id, err)
				}
			}(memberID)
		}
	})
}
