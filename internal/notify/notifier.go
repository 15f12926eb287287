package notify

import (
	"context"
	"log"

	"github.com/chamadopro/backend/internal/models"
	"github.com/chamadopro/backend/internal/realtime"
	"github.com/chamadopro/backend/internal/repositories"
	"github.com/chamadopro/backend/pkg/firebase"
)

// Pusher is the realtime surface the notifier needs from the hub
type Pusher interface {
	Broadcast(channel string, evt realtime.Event)
}

// Notifier fans a domain event out to the affected user: a notification row
// first, then a websocket push, then a best-effort FCM push when the user has
// a registered device. The row is the source of truth; pushes may be lost.
type Notifier struct {
	notificationRepo repositories.NotificationRepository
	userRepo         repositories.UserRepository
	hub              Pusher
	firebaseApp      *firebase.App
}

// NewNotifier creates a Notifier. firebaseApp may be nil (push disabled).
func NewNotifier(notifRepo repositories.NotificationRepository, userRepo repositories.UserRepository, hub Pusher, firebaseApp *firebase.App) *Notifier {
	return &Notifier{
		notificationRepo: notifRepo,
		userRepo:         userRepo,
		hub:              hub,
		firebaseApp:      firebaseApp,
	}
}

// Notify persists and delivers one notification. Persistence failure is the
// only failure reported; push failures are logged and dropped.
func (n *Notifier) Notify(ctx context.Context, notification *models.Notification) error {
	if err := n.notificationRepo.CreateNotification(notification); err != nil {
		return err
	}

	if n.hub != nil {
		n.hub.Broadcast(realtime.UserChannel(notification.RecipientID), realtime.Event{
			Type: realtime.EventNotification,
			Data: notification,
		})
	}

	if n.firebaseApp != nil {
		user, err := n.userRepo.GetUserByID(notification.RecipientID)
		if err == nil && user.DeviceToken != "" {
			if err := n.firebaseApp.SendPush(ctx, user.DeviceToken, notification.Title, notification.Message); err != nil {
				log.Printf("FCM push failed for user %d: %v", notification.RecipientID, err)
			}
		}
	}

	return nil
}
