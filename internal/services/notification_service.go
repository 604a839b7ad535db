// Package services – NotificationService
//
// This file implements the notification dispatcher: the single choke point
// through which every producer event (friend request, acceptance, message,
// call, comment, like) becomes a durable Notification row plus a best-effort
// real-time push to the recipient's connected sessions.
//
// Dispatch is deliberately non-transactional with respect to the triggering
// action: the producer's own write has already committed by the time Notify
// runs, and a failure to persist or push the notification is logged and
// swallowed. Nothing may rely on notifications for correctness.
package services

import (
	"context"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-social-backend/internal/domain"
	"github.com/tbourn/go-social-backend/internal/repo"
)

// Pusher is the outbound transport for live sessions. Implemented by
// realtime.Hub. Fire-and-forget: a user with no connected session is a
// silent no-op.
type Pusher interface {
	PushToUser(userID uint, event string, payload any)
}

// Notifier is the producer-facing dispatch contract. Every service that
// fans out events depends on this interface rather than on the concrete
// NotificationService, which keeps producers trivially testable.
type Notifier interface {
	Notify(ctx context.Context, recipientID, senderID uint, ntype string, referenceID *uint, message string)
}

// PushEventName is the WebSocket event under which notifications are pushed.
const PushEventName = "notification"

// NotificationService persists notifications and pushes them to live
// sessions. It also serves the recipient-facing read operations.
type NotificationService struct {
	DB   *gorm.DB
	Push Pusher
}

// Notify records a notification for recipientID and attempts a real-time
// push. Both the persistence and the push are best-effort from the caller's
// point of view: failures are logged here and never propagated, so the
// triggering operation's success is unaffected.
func (s *NotificationService) Notify(ctx context.Context, recipientID, senderID uint, ntype string, referenceID *uint, message string) {
	n, err := repo.CreateNotification(ctx, s.DB, recipientID, senderID, ntype, referenceID, message)
	if err != nil {
		log.Error().Err(err).
			Uint("recipient_id", recipientID).
			Str("type", ntype).
			Msg("notification persist failed")
		return
	}

	if s.Push != nil {
		s.Push.PushToUser(recipientID, PushEventName, n)
	}
}

// ListForUser returns all notifications addressed to userID, newest first.
func (s *NotificationService) ListForUser(ctx context.Context, userID uint) ([]domain.Notification, error) {
	return repo.ListNotificationsForUser(ctx, s.DB, userID)
}

// UnreadCount returns the number of unread notifications for userID.
func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return repo.CountUnreadNotifications(ctx, s.DB, userID)
}

// MarkRead marks notification id as read on behalf of actingUserID.
//
// Errors:
//   - ErrNotificationNotFound when no such notification exists.
//   - ErrNotRecipient when actingUserID is not the recipient.
func (s *NotificationService) MarkRead(ctx context.Context, actingUserID, id uint) error {
	n, err := repo.GetNotification(ctx, s.DB, id)
	if err != nil {
		return ErrNotificationNotFound
	}
	if n.RecipientID != actingUserID {
		return ErrNotRecipient
	}
	if err := repo.MarkNotificationRead(ctx, s.DB, id); err != nil {
		return ErrNotificationNotFound
	}
	return nil
}
