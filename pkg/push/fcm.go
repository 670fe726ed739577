// Package push delivers FCM push notifications to registered user devices.
package push

import (
	"context"
	"fmt"
	"log"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/google/uuid"
	"github.com/nextbenchapp/nextbench/internal/repository"
	"google.golang.org/api/option"
)

// Pusher sends FCM notifications. A nil Pusher is valid and does nothing, so
// the server runs fine without Firebase credentials.
type Pusher struct {
	client   *messaging.Client
	userRepo *repository.UserRepository
}

// NewPusher creates an FCM pusher from a service account credentials file
func NewPusher(credentialsFile string, userRepo *repository.UserRepository) (*Pusher, error) {
	if credentialsFile == "" {
		log.Println("⚠️ Firebase credentials not provided, push notifications disabled")
		return nil, nil
	}

	opt := option.WithCredentialsFile(credentialsFile)
	app, err := firebase.NewApp(context.Background(), nil, opt)
	if err != nil {
		log.Printf("⚠️ Failed to initialize Firebase app: %v (push notifications disabled)", err)
		return nil, nil
	}

	client, err := app.Messaging(context.Background())
	if err != nil {
		log.Printf("⚠️ Failed to get messaging client: %v", err)
		return nil, nil
	}

	log.Println("✅ Firebase FCM initialized")
	return &Pusher{
		client:   client,
		userRepo: userRepo,
	}, nil
}

// SendMessageNotification pushes a new-chat-message notification to every
// device the receiver has registered. Respects the user's notification toggle.
func (p *Pusher) SendMessageNotification(ctx context.Context, receiverID uuid.UUID, senderName, content string, conversationID uuid.UUID) error {
	if p == nil || p.client == nil {
		return nil
	}

	user, err := p.userRepo.FindByID(receiverID)
	if err != nil {
		return err
	}
	if !user.IsNotificationEnabled {
		return nil
	}

	devices, err := p.userRepo.GetUserDevices(receiverID)
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		return nil
	}

	if content == "" {
		content = "Sent an attachment"
	}

	tokens := make([]string, 0, len(devices))
	for _, d := range devices {
		tokens = append(tokens, d.FCMToken)
	}

	message := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: senderName,
			Body:  content,
		},
		Data: map[string]string{
			"type":            "new_message",
			"conversation_id": conversationID.String(),
			"sender_name":     senderName,
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
				},
			},
		},
	}

	br, err := p.client.SendMulticast(ctx, message)
	if err != nil {
		return fmt.Errorf("error sending multicast message: %w", err)
	}

	if br.FailureCount > 0 {
		for idx, resp := range br.Responses {
			if !resp.Success {
				log.Printf("⚠️ FCM failure for token %s: %v", tokens[idx], resp.Error)
			}
		}
	}
	return nil
}
