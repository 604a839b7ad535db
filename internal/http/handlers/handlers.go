// Package handlers provides HTTP handler implementations for the public API.
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses. Business rules (friendship
// gating, call transitions, content limits) live in the services package.
package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-social-backend/internal/domain"
	"github.com/tbourn/go-social-backend/internal/http/middleware"
	"github.com/tbourn/go-social-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// AuthService defines sign-up and sign-in operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type AuthService interface {
	Register(ctx context.Context, username, email, password string) (*domain.User, error)
	ConfirmEmail(ctx context.Context, email, code string) error
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, code, newPassword string) error
}

// UserService defines profile operations.
type UserService interface {
	Get(ctx context.Context, id uint) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID uint, displayName, bio string) (*domain.User, error)
}

// FriendshipService defines the friendship lifecycle operations.
type FriendshipService interface {
	SendRequest(ctx context.Context, initiatorID, recipientID uint) (*domain.Friendship, error)
	Respond(ctx context.Context, actingUserID, friendshipID uint, decision string) (*domain.Friendship, error)
	StatusBetween(ctx context.Context, userA, userB uint) (string, error)
	ListForUser(ctx context.Context, userID uint) ([]domain.Friendship, error)
	ListFriends(ctx context.Context, userID uint) ([]domain.Friendship, error)
}

// DirectMessageService defines one-to-one messaging operations.
type DirectMessageService interface {
	Send(ctx context.Context, senderID, receiverID uint, content string) (*domain.DirectMessage, error)
	ListForUser(ctx context.Context, userID uint) ([]domain.DirectMessage, error)
	ListConversation(ctx context.Context, viewerID, otherID uint) ([]domain.DirectMessage, error)
	Delete(ctx context.Context, actingUserID, messageID uint) error
}

// CallService defines call session operations.
type CallService interface {
	Initiate(ctx context.Context, callerID, receiverID uint, callType string) (*domain.CallSession, error)
	UpdateStatus(ctx context.Context, actingUserID, sessionID uint, newStatus string, startedAt, endedAt *time.Time) (*domain.CallSession, error)
	ListForUser(ctx context.Context, userID uint) ([]domain.CallSession, error)
}

// NotificationService defines reading and acknowledging notifications.
type NotificationService interface {
	ListForUser(ctx context.Context, userID uint) ([]domain.Notification, error)
	UnreadCount(ctx context.Context, userID uint) (int64, error)
	MarkRead(ctx context.Context, actingUserID, id uint) error
}

// PostService defines wall post, comment, and like operations.
type PostService interface {
	Create(ctx context.Context, userID uint, content string) (*domain.Post, error)
	Get(ctx context.Context, id uint) (*domain.Post, error)
	ListByUser(ctx context.Context, userID uint) ([]domain.Post, error)
	Update(ctx context.Context, actingUserID, postID uint, content string) (*domain.Post, error)
	Delete(ctx context.Context, actingUserID, postID uint) error
	AddComment(ctx context.Context, actingUserID, postID uint, content string) (*domain.Comment, error)
	ListComments(ctx context.Context, postID uint) ([]domain.Comment, error)
	Like(ctx context.Context, actingUserID, postID uint) (*domain.Like, error)
	Unlike(ctx context.Context, actingUserID, postID uint) error
	LikeCount(ctx context.Context, postID uint) (int64, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for the public API. It depends on
// abstract service interfaces to keep transport concerns separate from
// business logic.
//
// DB and IdemTTL back the optional Idempotency-Key replay path on the
// creation endpoints; when DB is nil the header is accepted but not recorded.
type Handlers struct {
	authSvc   AuthService
	userSvc   UserService
	friendSvc FriendshipService
	msgSvc    DirectMessageService
	callSvc   CallService
	notifSvc  NotificationService
	postSvc   PostService

	DB      *gorm.DB
	IdemTTL time.Duration
}

// New constructs a Handlers instance bound to the given services.
func New(
	authSvc AuthService,
	userSvc UserService,
	friendSvc FriendshipService,
	msgSvc DirectMessageService,
	callSvc CallService,
	notifSvc NotificationService,
	postSvc PostService,
	db *gorm.DB,
	idemTTL time.Duration,
) *Handlers {
	if idemTTL <= 0 {
		idemTTL = 24 * time.Hour
	}
	return &Handlers{
		authSvc:   authSvc,
		userSvc:   userSvc,
		friendSvc: friendSvc,
		msgSvc:    msgSvc,
		callSvc:   callSvc,
		notifSvc:  notifSvc,
		postSvc:   postSvc,
		DB:        db,
		IdemTTL:   idemTTL,
	}
}

// currentUser returns the authenticated user's ID set by the auth middleware.
// Handlers behind RequireAuth can rely on a non-zero result; a zero value
// means the route was wired without authentication by mistake.
func currentUser(c *gin.Context) uint {
	id, _ := middleware.CurrentUserID(c)
	return id
}

// idParam parses a numeric path parameter. The second return value is false
// when the segment is absent or not a positive integer.
func idParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

// clampLimit reads an optional "limit" query parameter and caps list sizes.
func clampLimit(c *gin.Context, def, max int) int {
	n := utils.AtoiDefault(c.Query("limit"), def)
	if n < 1 {
		n = 1
	}
	if n > max {
		n = max
	}
	return n
}

func badID(c *gin.Context, what string) {
	fail(c, http.StatusBadRequest, ErrCodeBadRequest, what+" must be a positive integer")
}
