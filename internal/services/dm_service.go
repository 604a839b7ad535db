// Package services – DirectMessageService
//
// This file implements the message exchange log: directed messages between
// linked users, per-party soft deletion, and the purge of rows both parties
// have deleted. Sending is gated on the friendship graph via the Linker
// interface; a successful send fans out a notification to the receiver.
package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-social-backend/internal/domain"
	"github.com/tbourn/go-social-backend/internal/repo"
)

// Linker answers whether two users may exchange messages. Implemented by
// FriendshipService; any existing friendship record satisfies the gate.
type Linker interface {
	Linked(ctx context.Context, userA, userB uint) (bool, error)
}

// DirectMessageService coordinates message persistence, visibility views,
// and the soft-delete/purge lifecycle.
type DirectMessageService struct {
	DB       *gorm.DB
	Links    Linker
	Notifier Notifier

	// MaxContentRunes caps message length; 0 disables the check.
	MaxContentRunes int
}

// Send validates content and eligibility, appends the message, and notifies
// the receiver.
//
// Errors:
//   - ErrEmptyContent / ErrTooLong for content problems.
//   - ErrUserNotFound when the receiver does not exist.
//   - ErrNotLinked when no friendship record exists for the pair.
func (s *DirectMessageService) Send(ctx context.Context, senderID, receiverID uint, content string) (*domain.DirectMessage, error) {
	tr := otel.Tracer("services/DirectMessageService")
	ctx, span := tr.Start(ctx, "Send",
		trace.WithAttributes(
			attribute.Int64("sender.id", int64(senderID)),
			attribute.Int64("receiver.id", int64(receiverID)),
		),
	)
	defer span.End()

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	if s.MaxContentRunes > 0 && utf8.RuneCountInString(content) > s.MaxContentRunes {
		return nil, ErrTooLong
	}

	exists, err := repo.UserExists(ctx, s.DB, receiverID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	linked, err := s.Links.Linked(ctx, senderID, receiverID)
	if err != nil {
		return nil, err
	}
	if !linked {
		return nil, ErrNotLinked
	}

	m, err := repo.CreateDirectMessage(ctx, s.DB, senderID, receiverID, content)
	if err != nil {
		return nil, err
	}

	if s.Notifier != nil {
		ref := m.ID
		s.Notifier.Notify(ctx, receiverID, senderID,
			domain.NotificationMessage, &ref,
			fmt.Sprintf("new message from user %d", senderID))
	}
	return m, nil
}

// ListForUser returns every message userID can still see, in either
// direction, ordered by sent time ascending.
func (s *DirectMessageService) ListForUser(ctx context.Context, userID uint) ([]domain.DirectMessage, error) {
	return repo.ListMessagesForUser(ctx, s.DB, userID)
}

// ListConversation returns the exchange between viewerID and otherID as the
// viewer sees it: the viewer's own deletion flag filters their side, the
// other party's flag is ignored. Ordered by sent time ascending.
func (s *DirectMessageService) ListConversation(ctx context.Context, viewerID, otherID uint) ([]domain.DirectMessage, error) {
	return repo.ListConversation(ctx, s.DB, viewerID, otherID)
}

// Delete applies "delete for me" semantics on behalf of actingUserID: the
// actor's flag is set, the other party's view is untouched, and the row is
// purged once both flags are set.
//
// Concurrency & atomicity:
//   - The flag update and the purge decision run inside one transaction so
//     two concurrent deletes by the two parties converge on a purge.
//
// Errors:
//   - ErrMessageNotFound when the message does not exist.
//   - ErrNotParticipant when actingUserID is neither sender nor receiver.
func (s *DirectMessageService) Delete(ctx context.Context, actingUserID, messageID uint) error {
	tr := otel.Tracer("services/DirectMessageService")
	ctx, span := tr.Start(ctx, "Delete",
		trace.WithAttributes(
			attribute.Int64("message.id", int64(messageID)),
			attribute.Int64("user.id", int64(actingUserID)),
		),
	)
	defer span.End()

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := repo.GetDirectMessage(ctx, tx, messageID)
		if err != nil {
			return ErrMessageNotFound
		}

		switch actingUserID {
		case m.SenderID:
			if err := repo.SetMessageDeletedBySender(ctx, tx, messageID); err != nil {
				return err
			}
			m.DeletedBySender = true
		case m.ReceiverID:
			if err := repo.SetMessageDeletedByReceiver(ctx, tx, messageID); err != nil {
				return err
			}
			m.DeletedByReceiver = true
		default:
			return ErrNotParticipant
		}

		if m.DeletedBySender && m.DeletedByReceiver {
			return repo.PurgeDirectMessage(ctx, tx, messageID)
		}
		return nil
	})
}
