// Package services – FriendshipService
//
// This file implements the friendship lifecycle: a single record per
// unordered pair of users moving through pending → accepted|rejected, with
// both terminal states final. The service owns the precondition checks
// (user existence, pair uniqueness, participant authorization) and leaves
// the last word on uniqueness to the database's pair index, so two
// concurrent requests for the same pair cannot both succeed.
//
// It also exposes the messaging eligibility gate: Linked reports whether
// ANY friendship record exists for a pair, regardless of status. That
// mirrors the observed product behavior; tightening it to accepted-only is
// a one-line change in Linked.
package services

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-social-backend/internal/domain"
	"github.com/tbourn/go-social-backend/internal/repo"
)

// FriendshipService implements the relationship state machine and the
// messaging gate consumed by DirectMessageService.
type FriendshipService struct {
	DB       *gorm.DB
	Notifier Notifier
}

// SendRequest creates a pending friendship from initiatorID to recipientID
// and notifies the recipient.
//
// Errors:
//   - ErrSelfFriendship when both ids are equal.
//   - ErrUserNotFound when the recipient does not exist.
//   - ErrFriendshipExists when any record already exists for the pair; a
//     race between two concurrent requests is settled by the pair index and
//     the loser receives the same error.
func (s *FriendshipService) SendRequest(ctx context.Context, initiatorID, recipientID uint) (*domain.Friendship, error) {
	tr := otel.Tracer("services/FriendshipService")
	ctx, span := tr.Start(ctx, "SendRequest",
		trace.WithAttributes(
			attribute.Int64("initiator.id", int64(initiatorID)),
			attribute.Int64("recipient.id", int64(recipientID)),
		),
	)
	defer span.End()

	if initiatorID == recipientID {
		return nil, ErrSelfFriendship
	}

	exists, err := repo.UserExists(ctx, s.DB, recipientID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	// Fast pre-check for a friendly error; the unique index is the actual
	// arbiter under concurrency.
	if dup, err := repo.PairExists(ctx, s.DB, initiatorID, recipientID); err != nil {
		return nil, err
	} else if dup {
		return nil, ErrFriendshipExists
	}

	f, err := repo.CreateFriendship(ctx, s.DB, initiatorID, recipientID)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicatePair) {
			return nil, ErrFriendshipExists
		}
		return nil, err
	}

	if s.Notifier != nil {
		ref := f.ID
		s.Notifier.Notify(ctx, recipientID, initiatorID,
			domain.NotificationFriendRequest, &ref,
			fmt.Sprintf("user %d sent you a friend request", initiatorID))
	}
	return f, nil
}

// Respond applies an accept or reject decision to friendship id on behalf
// of actingUserID. On accept, the other party (the original initiator) is
// notified.
//
// Errors:
//   - ErrInvalidDecision for a decision other than accept/reject.
//   - ErrFriendshipNotFound when the friendship does not exist.
//   - ErrNotParticipant when actingUserID is neither party.
//   - ErrAlreadyDecided when the friendship has left the pending state;
//     accepted and rejected are terminal.
func (s *FriendshipService) Respond(ctx context.Context, actingUserID, friendshipID uint, decision string) (*domain.Friendship, error) {
	tr := otel.Tracer("services/FriendshipService")
	ctx, span := tr.Start(ctx, "Respond",
		trace.WithAttributes(
			attribute.Int64("friendship.id", int64(friendshipID)),
			attribute.Int64("user.id", int64(actingUserID)),
			attribute.String("decision", decision),
		),
	)
	defer span.End()

	var status string
	switch decision {
	case domain.DecisionAccept:
		status = domain.FriendshipAccepted
	case domain.DecisionReject:
		status = domain.FriendshipRejected
	default:
		return nil, ErrInvalidDecision
	}

	f, err := repo.GetFriendship(ctx, s.DB, friendshipID)
	if err != nil {
		return nil, ErrFriendshipNotFound
	}
	if !f.Involves(actingUserID) {
		return nil, ErrNotParticipant
	}
	if f.Status != domain.FriendshipPending {
		return nil, ErrAlreadyDecided
	}

	if err := repo.UpdateFriendshipStatus(ctx, s.DB, friendshipID, status); err != nil {
		return nil, err
	}
	f.Status = status

	if status == domain.FriendshipAccepted && s.Notifier != nil {
		ref := f.ID
		other := f.OtherParty(actingUserID)
		s.Notifier.Notify(ctx, other, actingUserID,
			domain.NotificationFriendAccepted, &ref,
			fmt.Sprintf("user %d accepted your friend request", actingUserID))
	}
	return f, nil
}

// StatusBetween returns the friendship status for the unordered pair
// {userA, userB}, or ErrFriendshipNotFound when no record exists. Argument
// order does not matter.
func (s *FriendshipService) StatusBetween(ctx context.Context, userA, userB uint) (string, error) {
	f, err := repo.GetFriendshipBetween(ctx, s.DB, userA, userB)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrFriendshipNotFound
		}
		return "", err
	}
	return f.Status, nil
}

// Linked reports whether a friendship record exists for the pair in ANY
// status. This is the messaging eligibility gate: a pending or even
// rejected friendship still permits messaging.
func (s *FriendshipService) Linked(ctx context.Context, userA, userB uint) (bool, error) {
	return repo.PairExists(ctx, s.DB, userA, userB)
}

// ListForUser returns every friendship involving userID, most recent first.
func (s *FriendshipService) ListForUser(ctx context.Context, userID uint) ([]domain.Friendship, error) {
	return repo.ListFriendshipsForUser(ctx, s.DB, userID)
}

// ListFriends returns the accepted friendships of userID, most recent first.
func (s *FriendshipService) ListFriends(ctx context.Context, userID uint) ([]domain.Friendship, error) {
	return repo.ListFriendshipsForUserByStatus(ctx, s.DB, userID, domain.FriendshipAccepted)
}
