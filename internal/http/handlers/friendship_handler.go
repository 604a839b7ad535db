// Friendship HTTP handlers.
//
// This file exposes REST endpoints for the friendship lifecycle:
//   - POST /friendships               (send a friend request)
//   - PUT  /friendships/{id}          (accept or reject a pending request)
//   - GET  /friendships               (list all friendship records for me)
//   - GET  /friends                   (list accepted friendships only)
//   - GET  /friends/status/{userID}   (status between me and another user)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-social-backend/internal/domain"
	"github.com/tbourn/go-social-backend/internal/services"
)

//
// DTOs
//

// SendFriendRequestRequest is the JSON payload for sending a friend request.
type SendFriendRequestRequest struct {
	// RecipientID is the user the request is addressed to.
	RecipientID uint `json:"recipient_id" binding:"required" example:"42"`
}

// RespondFriendRequestRequest carries the accept/reject decision.
type RespondFriendRequestRequest struct {
	// Decision must be "accept" or "reject".
	Decision string `json:"decision" binding:"required,oneof=accept reject" example:"accept"`
}

// FriendshipResponse wraps a single friendship record.
type FriendshipResponse struct {
	Friendship *domain.Friendship `json:"friendship"`
}

// ListFriendshipsResponse contains the caller's friendship records.
type ListFriendshipsResponse struct {
	Friendships []domain.Friendship `json:"friendships"`
}

// FriendshipStatusResponse reports the relation between two users.
// Status is empty when no record exists.
type FriendshipStatusResponse struct {
	Status string `json:"status" example:"accepted"`
}

//
// Handlers
//

// SendFriendRequest godoc
// @ID          sendFriendRequest
// @Summary     Send a friend request
// @Description Creates a pending friendship toward another user. At most one
// @Description friendship record exists per user pair, in either direction.
// @Tags        Friendships
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body  handlers.SendFriendRequestRequest  true  "Recipient"
// @Success     201  {object}  handlers.FriendshipResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request or self request"
// @Failure     404  {object}  handlers.ErrorResponse  "Recipient not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Record already exists for the pair"
// @Router      /friendships [post]
func (h *Handlers) SendFriendRequest(c *gin.Context) {
	var req SendFriendRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "recipient_id required")
		return
	}

	f, err := h.friendSvc.SendRequest(c.Request.Context(), currentUser(c), req.RecipientID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSelfFriendship):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "cannot send a friend request to yourself")
		case errors.Is(err, services.ErrUserNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "recipient not found")
		case errors.Is(err, services.ErrFriendshipExists):
			fail(c, http.StatusConflict, ErrCodeConflict, "a friendship record already exists for this pair")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}

	ok(c, http.StatusCreated, FriendshipResponse{Friendship: f})
}

// RespondFriendRequest godoc
// @ID          respondFriendRequest
// @Summary     Accept or reject a friend request
// @Description Applies an accept/reject decision to a pending request. Only a
// @Description participant may respond, and only while the request is pending.
// @Tags        Friendships
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path  int                                   true  "Friendship ID"
// @Param       body  body  handlers.RespondFriendRequestRequest  true  "Decision"
// @Success     200  {object}  handlers.FriendshipResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request or unknown decision"
// @Failure     403  {object}  handlers.ErrorResponse  "Caller is not a participant"
// @Failure     404  {object}  handlers.ErrorResponse  "Friendship not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Request already decided"
// @Router      /friendships/{id} [put]
func (h *Handlers) RespondFriendRequest(c *gin.Context) {
	id, okID := idParam(c, "id")
	if !okID {
		badID(c, "friendship id")
		return
	}

	var req RespondFriendRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "decision must be accept or reject")
		return
	}

	f, err := h.friendSvc.Respond(c.Request.Context(), currentUser(c), id, req.Decision)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidDecision):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "decision must be accept or reject")
		case errors.Is(err, services.ErrFriendshipNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "friendship not found")
		case errors.Is(err, services.ErrNotParticipant):
			fail(c, http.StatusForbidden, ErrCodeForbidden, "you are not a participant of this friendship")
		case errors.Is(err, services.ErrAlreadyDecided):
			fail(c, http.StatusConflict, ErrCodeInvalidState, "friend request already decided")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}

	ok(c, http.StatusOK, FriendshipResponse{Friendship: f})
}

// ListFriendships godoc
// @ID          listFriendships
// @Summary     List my friendship records
// @Description Returns every friendship record involving the caller,
// @Description regardless of status.
// @Tags        Friendships
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  handlers.ListFriendshipsResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /friendships [get]
func (h *Handlers) ListFriendships(c *gin.Context) {
	items, err := h.friendSvc.ListForUser(c.Request.Context(), currentUser(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, ListFriendshipsResponse{Friendships: items})
}

// ListFriends godoc
// @ID          listFriends
// @Summary     List accepted friendships
// @Description Returns only the caller's accepted friendships.
// @Tags        Friendships
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  handlers.ListFriendshipsResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /friends [get]
func (h *Handlers) ListFriends(c *gin.Context) {
	items, err := h.friendSvc.ListFriends(c.Request.Context(), currentUser(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, ListFriendshipsResponse{Friendships: items})
}

// FriendshipStatus godoc
// @ID          friendshipStatus
// @Summary     Friendship status with another user
// @Description Returns the status of the friendship record between the caller
// @Description and another user. Status is empty when no record exists.
// @Tags        Friendships
// @Produce     json
// @Security    BearerAuth
// @Param       userID  path  int  true  "Other user ID"
// @Success     200  {object}  handlers.FriendshipStatusResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Router      /friends/status/{userID} [get]
func (h *Handlers) FriendshipStatus(c *gin.Context) {
	other, okID := idParam(c, "userID")
	if !okID {
		badID(c, "user id")
		return
	}

	status, err := h.friendSvc.StatusBetween(c.Request.Context(), currentUser(c), other)
	if err != nil && !errors.Is(err, services.ErrFriendshipNotFound) {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, FriendshipStatusResponse{Status: status})
}
