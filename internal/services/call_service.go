// Package services – CallService
//
// This file implements the signaling-level call lifecycle. Media transport
// is out of scope; the service tracks who called whom, the status state
// machine, and the timing fields from which call duration is derived.
//
// State machine: initiated → {accepted, rejected, missed}; ended is
// reachable only from accepted; rejected and missed are terminal. A session
// stuck in initiated is not auto-expired here; inactivity handling belongs
// to the realtime layer.
package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-social-backend/internal/domain"
	"github.com/tbourn/go-social-backend/internal/repo"
)

// CallService owns call session creation, authorized status transitions,
// and duration computation.
type CallService struct {
	DB       *gorm.DB
	Notifier Notifier
}

// Initiate creates a session in the initiated state and notifies the
// receiver.
//
// Errors:
//   - ErrSelfCall when caller and receiver are the same user.
//   - ErrUserNotFound when the receiver does not exist.
func (s *CallService) Initiate(ctx context.Context, callerID, receiverID uint, callType string) (*domain.CallSession, error) {
	if callerID == receiverID {
		return nil, ErrSelfCall
	}

	exists, err := repo.UserExists(ctx, s.DB, receiverID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	sess, err := repo.CreateCallSession(ctx, s.DB, callerID, receiverID, callType)
	if err != nil {
		return nil, err
	}

	if s.Notifier != nil {
		ref := sess.ID
		s.Notifier.Notify(ctx, receiverID, callerID,
			domain.NotificationCall, &ref,
			fmt.Sprintf("incoming %s call from user %d", callType, callerID))
	}
	return sess, nil
}

// UpdateStatus applies an authorized status transition to session id.
//
// Timing semantics:
//   - On accepted, StartedAt is recorded when supplied.
//   - On ended, EndedAt is recorded when supplied, and DurationSeconds is
//     derived as whole seconds of EndedAt − StartedAt, but only when
//     StartedAt was previously recorded. An ended call that was never
//     accepted has no duration.
//
// Errors:
//   - ErrCallNotFound when the session does not exist.
//   - ErrNotParticipant when actingUserID is neither caller nor receiver.
//   - ErrInvalidCallStatus for an unknown target status.
//   - ErrInvalidTransition when the target status is not reachable from the
//     session's current status. Terminal states never transition.
func (s *CallService) UpdateStatus(ctx context.Context, actingUserID, sessionID uint, newStatus string, startedAt, endedAt *time.Time) (*domain.CallSession, error) {
	sess, err := repo.GetCallSession(ctx, s.DB, sessionID)
	if err != nil {
		return nil, ErrCallNotFound
	}
	if !sess.Involves(actingUserID) {
		return nil, ErrNotParticipant
	}
	if err := validateTransition(sess.Status, newStatus); err != nil {
		return nil, err
	}

	sess.Status = newStatus
	switch newStatus {
	case domain.CallAccepted:
		if startedAt != nil {
			t := startedAt.UTC()
			sess.StartedAt = &t
		}
	case domain.CallEnded:
		if endedAt != nil {
			t := endedAt.UTC()
			sess.EndedAt = &t
		}
		if sess.StartedAt != nil && sess.EndedAt != nil {
			d := int64(sess.EndedAt.Sub(*sess.StartedAt) / time.Second)
			sess.DurationSeconds = &d
		}
	}

	if err := repo.SaveCallSession(ctx, s.DB, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// ListForUser returns every session involving userID, most recent first.
func (s *CallService) ListForUser(ctx context.Context, userID uint) ([]domain.CallSession, error) {
	return repo.ListCallSessionsForUser(ctx, s.DB, userID)
}

// validateTransition enforces the status state machine.
func validateTransition(current, next string) error {
	switch next {
	case domain.CallAccepted, domain.CallRejected, domain.CallMissed:
		if current != domain.CallInitiated {
			return ErrInvalidTransition
		}
	case domain.CallEnded:
		if current != domain.CallAccepted {
			return ErrInvalidTransition
		}
	default:
		return ErrInvalidCallStatus
	}
	return nil
}
