// Package domain defines the persistence models for users, friendships,
// direct messages, notifications, call sessions, and the post/comment/like
// content graph. These types are mapped with GORM and form the core data
// layer of the social backend.
//
// Entities reference each other by integer id only; there are no embedded
// navigation objects, so cyclic relations (users own friendships which
// reference users) stay flat and lookups are always explicit.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Friendship status values. Accepted and Rejected are terminal: there is no
// transition out of them, and the pair uniqueness constraint blocks
// re-requesting after a rejection.
const (
	FriendshipPending  = "pending"
	FriendshipAccepted = "accepted"
	FriendshipRejected = "rejected"
)

// Friendship decision values accepted by the respond operation.
const (
	DecisionAccept = "accept"
	DecisionReject = "reject"
)

// Notification type values. The set is open: producers may introduce new
// kinds without schema changes.
const (
	NotificationFriendRequest  = "friend_request"
	NotificationFriendAccepted = "friend_request_accepted"
	NotificationMessage        = "message"
	NotificationCall           = "call"
	NotificationPost           = "post"
	NotificationComment        = "comment"
	NotificationLike           = "like"
)

// Call session status values. Ended is reachable only from Accepted;
// Rejected and Missed are terminal without an Ended step.
const (
	CallInitiated = "initiated"
	CallAccepted  = "accepted"
	CallRejected  = "rejected"
	CallMissed    = "missed"
	CallEnded     = "ended"
)

// User is an account holder. PasswordHash stores an argon2id encoded digest
// and is never serialized. Confirmed flips to true once the registration
// one-time code has been validated.
type User struct {
	ID           uint           `json:"id"           gorm:"primaryKey"`
	Username     string         `json:"username"     gorm:"type:varchar(64);not null;uniqueIndex"`
	Email        string         `json:"email"        gorm:"type:varchar(255);not null;uniqueIndex"`
	PasswordHash string         `json:"-"            gorm:"type:text;not null"`
	DisplayName  string         `json:"display_name" gorm:"type:varchar(128)"`
	Bio          string         `json:"bio"          gorm:"type:text"`
	Confirmed    bool           `json:"confirmed"    gorm:"not null;default:false"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-"            gorm:"index"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Friendship is the single record for an unordered pair of users.
//
// InitiatorID/RecipientID preserve who asked whom; PairLow/PairHigh hold the
// same two ids in ascending order and carry the unique index, so at most one
// row can exist per pair regardless of direction. Two concurrent requests
// for the same pair race on that index: the first insert wins and the loser
// surfaces a conflict.
type Friendship struct {
	ID          uint      `json:"id"           gorm:"primaryKey"`
	InitiatorID uint      `json:"initiator_id" gorm:"not null;index"`
	RecipientID uint      `json:"recipient_id" gorm:"not null;index"`
	PairLow     uint      `json:"-"            gorm:"not null;uniqueIndex:ux_friendship_pair,priority:1"`
	PairHigh    uint      `json:"-"            gorm:"not null;uniqueIndex:ux_friendship_pair,priority:2"`
	Status      string    `json:"status"       gorm:"type:varchar(16);not null;default:'pending';check:status IN ('pending','accepted','rejected')"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the database table name for Friendship.
func (Friendship) TableName() string { return "friendships" }

// Involves reports whether userID is either party of the friendship.
func (f *Friendship) Involves(userID uint) bool {
	return f.InitiatorID == userID || f.RecipientID == userID
}

// OtherParty returns the party opposite to userID. Callers must ensure
// Involves(userID) first.
func (f *Friendship) OtherParty(userID uint) uint {
	if f.InitiatorID == userID {
		return f.RecipientID
	}
	return f.InitiatorID
}

// NormalizePair returns the two ids in ascending order for pair-keyed
// storage and lookups.
func NormalizePair(a, b uint) (low, high uint) {
	if a < b {
		return a, b
	}
	return b, a
}

// DirectMessage is one directed entry in the message exchange log.
//
// Each party owns exactly one deletion flag; a row is visible to a party
// while their flag is false. Once both flags are true the row is purged,
// since it can never be needed again. Content is immutable after creation.
type DirectMessage struct {
	ID                uint      `json:"id"          gorm:"primaryKey"`
	SenderID          uint      `json:"sender_id"   gorm:"not null;index:idx_dm_sender"`
	ReceiverID        uint      `json:"receiver_id" gorm:"not null;index:idx_dm_receiver"`
	Content           string    `json:"content"     gorm:"type:text;not null"`
	SentAt            time.Time `json:"sent_at"     gorm:"not null;index"`
	DeletedBySender   bool      `json:"-"           gorm:"not null;default:false"`
	DeletedByReceiver bool      `json:"-"           gorm:"not null;default:false"`
}

// TableName returns the database table name for DirectMessage.
func (DirectMessage) TableName() string { return "direct_messages" }

// VisibleTo reports whether the message is still visible to userID.
func (m *DirectMessage) VisibleTo(userID uint) bool {
	switch userID {
	case m.SenderID:
		return !m.DeletedBySender
	case m.ReceiverID:
		return !m.DeletedByReceiver
	default:
		return false
	}
}

// Notification is the durable record produced by every fan-out event.
// ReferenceID optionally points at the triggering entity (friendship,
// message, call session, post) and is interpreted by Type.
type Notification struct {
	ID          uint      `json:"id"                     gorm:"primaryKey"`
	RecipientID uint      `json:"recipient_id"           gorm:"not null;index"`
	SenderID    uint      `json:"sender_id"              gorm:"not null"`
	Type        string    `json:"type"                   gorm:"type:varchar(32);not null;index"`
	ReferenceID *uint     `json:"reference_id,omitempty"`
	Message     string    `json:"message"                gorm:"type:text"`
	IsRead      bool      `json:"is_read"                gorm:"not null;default:false;index"`
	CreatedAt   time.Time `json:"created_at"             gorm:"index"`
}

// TableName returns the database table name for Notification.
func (Notification) TableName() string { return "notifications" }

// CallSession is the signaling-level record of a call. CallType is an opaque
// tag (voice, video, …) carried through unchanged. DurationSeconds is
// derived on Ended and only when the call was previously accepted.
type CallSession struct {
	ID              uint       `json:"id"           gorm:"primaryKey"`
	CallerID        uint       `json:"caller_id"    gorm:"not null;index"`
	ReceiverID      uint       `json:"receiver_id"  gorm:"not null;index"`
	CallType        string     `json:"call_type"    gorm:"type:varchar(16);not null"`
	Status          string     `json:"status"       gorm:"type:varchar(16);not null;default:'initiated'"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	DurationSeconds *int64     `json:"duration_seconds,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// TableName returns the database table name for CallSession.
func (CallSession) TableName() string { return "call_sessions" }

// Involves reports whether userID is caller or receiver of the session.
func (s *CallSession) Involves(userID uint) bool {
	return s.CallerID == userID || s.ReceiverID == userID
}

// Terminal reports whether no further status transition is defined.
func (s *CallSession) Terminal() bool {
	switch s.Status {
	case CallRejected, CallMissed, CallEnded:
		return true
	default:
		return false
	}
}

// Post is a user-authored piece of content.
type Post struct {
	ID        uint           `json:"id"         gorm:"primaryKey"`
	UserID    uint           `json:"user_id"    gorm:"not null;index:idx_user_posts"`
	Content   string         `json:"content"    gorm:"type:text;not null"`
	CreatedAt time.Time      `json:"created_at" gorm:"index"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for Post.
func (Post) TableName() string { return "posts" }

// Comment is a user remark on a post.
type Comment struct {
	ID        uint      `json:"id"         gorm:"primaryKey"`
	PostID    uint      `json:"post_id"    gorm:"not null;index:idx_post_comments,priority:1"`
	UserID    uint      `json:"user_id"    gorm:"not null;index"`
	Content   string    `json:"content"    gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"index:idx_post_comments,priority:2"`
}

// TableName returns the database table name for Comment.
func (Comment) TableName() string { return "comments" }

// Like records a user liking a post. A user can like a post at most once
// (enforced by unique index).
type Like struct {
	ID        uint      `json:"id"         gorm:"primaryKey"`
	PostID    uint      `json:"post_id"    gorm:"not null;index;uniqueIndex:ux_like_post_user,priority:1"`
	UserID    uint      `json:"user_id"    gorm:"not null;index;uniqueIndex:ux_like_post_user,priority:2"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for Like.
func (Like) TableName() string { return "likes" }
