// Package services defines the business logic for friendships, direct
// messages, notifications, calls, posts, and the auth flow. This file
// centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler/controller layer. They fall into four families:
// not-found (entity absent), forbidden (actor is not authorized for the
// target), conflict (uniqueness or precondition violated), and invalid-state
// (transition not permitted from the current status).
package services

import "errors"

// Friendship-related errors.
var (
	// ErrFriendshipNotFound indicates that no friendship exists for the
	// referenced id or pair of users.
	ErrFriendshipNotFound = errors.New("friendship not found")

	// ErrFriendshipExists is returned when a request is sent for a pair that
	// already has a friendship record, in any status.
	ErrFriendshipExists = errors.New("friendship already exists")

	// ErrSelfFriendship is returned when a user sends a friend request to
	// themselves.
	ErrSelfFriendship = errors.New("cannot befriend yourself")

	// ErrInvalidDecision is returned when a respond decision is neither
	// accept nor reject.
	ErrInvalidDecision = errors.New("decision must be accept or reject")

	// ErrAlreadyDecided is returned when responding to a friendship that has
	// already left the pending state.
	ErrAlreadyDecided = errors.New("friendship already decided")
)

// Messaging-related errors.
var (
	// ErrMessageNotFound indicates the requested message does not exist.
	ErrMessageNotFound = errors.New("message not found")

	// ErrNotLinked is returned when a user tries to message someone with
	// whom no friendship record exists.
	ErrNotLinked = errors.New("no friendship with receiver")

	// ErrEmptyContent is returned when a message or post body is empty after
	// trimming.
	ErrEmptyContent = errors.New("content is empty")

	// ErrTooLong is returned when content exceeds the configured length limit.
	ErrTooLong = errors.New("content too long")
)

// Errors shared across participant-guarded entities.
var (
	// ErrNotParticipant is returned when the acting user is neither party of
	// the target message, call session, or friendship.
	ErrNotParticipant = errors.New("user is not a participant")

	// ErrUserNotFound indicates the referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")
)

// Call-related errors.
var (
	// ErrCallNotFound indicates the requested call session does not exist.
	ErrCallNotFound = errors.New("call session not found")

	// ErrInvalidCallStatus is returned when an unknown status value is
	// supplied to a status update.
	ErrInvalidCallStatus = errors.New("unknown call status")

	// ErrInvalidTransition is returned when the requested status is not
	// reachable from the session's current status.
	ErrInvalidTransition = errors.New("transition not permitted from current status")

	// ErrSelfCall is returned when a user calls themselves.
	ErrSelfCall = errors.New("cannot call yourself")
)

// Notification-related errors.
var (
	// ErrNotificationNotFound indicates the requested notification does not
	// exist.
	ErrNotificationNotFound = errors.New("notification not found")

	// ErrNotRecipient is returned when a user tries to mark someone else's
	// notification as read.
	ErrNotRecipient = errors.New("user is not the recipient")
)

// Post-related errors.
var (
	// ErrPostNotFound indicates the requested post does not exist.
	ErrPostNotFound = errors.New("post not found")

	// ErrNotOwner is returned when a user tries to modify content they do
	// not own.
	ErrNotOwner = errors.New("user does not own this resource")

	// ErrAlreadyLiked is returned when a user likes a post twice.
	ErrAlreadyLiked = errors.New("post already liked")

	// ErrLikeNotFound is returned when removing a like that does not exist.
	ErrLikeNotFound = errors.New("like not found")
)

// Auth-related errors.
var (
	// ErrEmailTaken is returned when registering with an email that already
	// has an account.
	ErrEmailTaken = errors.New("email already registered")

	// ErrUsernameTaken is returned when registering with a username that is
	// already in use.
	ErrUsernameTaken = errors.New("username already taken")

	// ErrInvalidCredentials is returned on login when the email is unknown
	// or the password does not match. The two cases are deliberately
	// indistinguishable.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvalidCode is returned when a one-time code is missing, expired,
	// or does not match.
	ErrInvalidCode = errors.New("invalid or expired code")

	// ErrAlreadyConfirmed is returned when confirming an account that is
	// already confirmed.
	ErrAlreadyConfirmed = errors.New("account already confirmed")

	// ErrWeakPassword is returned when a password fails the minimal length
	// requirement.
	ErrWeakPassword = errors.New("password too short")
)
