// Direct message HTTP handlers.
//
// This file exposes REST endpoints for one-to-one messaging:
//   - POST   /messages                  (send a message to a friend)
//   - GET    /messages                  (list my visible messages)
//   - GET    /conversations/{userID}    (conversation with one user)
//   - DELETE /messages/{id}             (hide a message for my side)
//
// Sending requires a friendship record between the two users. Deleting only
// hides the message for the calling side; when both sides have deleted it,
// the row is purged.
//
// Idempotency:
// If the client supplies an Idempotency-Key header and a previous successful
// send exists for (user, route, key), the handler returns the recorded
// message and sets `Idempotency-Replayed: true`.
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-social-backend/internal/domain"
	"github.com/tbourn/go-social-backend/internal/http/middleware"
	"github.com/tbourn/go-social-backend/internal/repo"
	"github.com/tbourn/go-social-backend/internal/services"
)

//
// DTOs
//

// SendMessageRequest is the JSON payload for sending a direct message.
type SendMessageRequest struct {
	// ReceiverID is the message recipient.
	ReceiverID uint `json:"receiver_id" binding:"required" example:"42"`
	// Content is the message body. It must be non-empty after trimming.
	Content string `json:"content" binding:"required,min=1" example:"see you at 8?"`
}

// MessageResponse wraps a single direct message.
type MessageResponse struct {
	Message *domain.DirectMessage `json:"message"`
}

// ListMessagesResponse contains messages visible to the caller.
type ListMessagesResponse struct {
	Messages []domain.DirectMessage `json:"messages"`
}

//
// Handlers
//

// SendMessage godoc
// @ID          sendMessage
// @Summary     Send a direct message
// @Description Sends a message to another user. A friendship record between
// @Description the two users must exist. Supports safe retries via the
// @Description Idempotency-Key header (same key → same result).
// @Tags        Messages
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       Idempotency-Key  header  string  false  "Idempotency key for safe retries"
// @Param       body             body    handlers.SendMessageRequest  true  "Message payload"
// @Success     201  {object}  handlers.MessageResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request or content too long"
// @Failure     403  {object}  handlers.ErrorResponse  "No friendship record with receiver"
// @Failure     404  {object}  handlers.ErrorResponse  "Receiver not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /messages [post]
func (h *Handlers) SendMessage(c *gin.Context) {
	ctx := c.Request.Context()

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "receiver_id and content required")
		return
	}

	sender := currentUser(c)

	// Idempotency (replay path) – read validated key if present.
	idemKey, _ := middleware.GetIdempotencyKey(c)
	scope := middleware.IdempotencyScope(c)
	if idemKey != "" && h.DB != nil {
		if rec, err := repo.GetIdempotency(ctx, h.DB, sender, scope, idemKey, time.Now().UTC()); err == nil && rec != nil {
			if prev, err2 := repo.GetDirectMessage(ctx, h.DB, rec.ResultID); err2 == nil {
				c.Header("Idempotency-Replayed", "true")
				ok(c, http.StatusCreated, MessageResponse{Message: prev})
				return
			}
		}
	}

	m, err := h.msgSvc.Send(ctx, sender, req.ReceiverID, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyContent):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		case errors.Is(err, services.ErrTooLong):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, fmt.Sprintf("content too long: %v", err))
		case errors.Is(err, services.ErrUserNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "receiver not found")
		case errors.Is(err, services.ErrNotLinked):
			fail(c, http.StatusForbidden, ErrCodeNotFriends, "no friendship record with receiver")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}

	// Idempotency (store path) – best effort.
	if idemKey != "" && h.DB != nil {
		_, _ = repo.CreateIdempotency(ctx, h.DB, sender, scope, idemKey, m.ID, http.StatusCreated, h.IdemTTL)
	}

	ok(c, http.StatusCreated, MessageResponse{Message: m})
}

// ListMessages godoc
// @ID          listMessages
// @Summary     List my messages
// @Description Returns every message the caller sent or received that the
// @Description caller has not deleted, oldest first.
// @Tags        Messages
// @Produce     json
// @Security    BearerAuth
// @Param       limit  query  int  false  "Max items"  minimum(1) maximum(500) default(100)
// @Success     200  {object}  handlers.ListMessagesResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /messages [get]
func (h *Handlers) ListMessages(c *gin.Context) {
	items, err := h.msgSvc.ListForUser(c.Request.Context(), currentUser(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	if limit := clampLimit(c, 100, 500); len(items) > limit {
		items = items[len(items)-limit:]
	}
	ok(c, http.StatusOK, ListMessagesResponse{Messages: items})
}

// GetConversation godoc
// @ID          getConversation
// @Summary     Conversation with one user
// @Description Returns the caller's visible messages exchanged with another
// @Description user, oldest first.
// @Tags        Messages
// @Produce     json
// @Security    BearerAuth
// @Param       userID  path   int  true   "Other user ID"
// @Param       limit   query  int  false  "Max items"  minimum(1) maximum(500) default(100)
// @Success     200  {object}  handlers.ListMessagesResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Router      /conversations/{userID} [get]
func (h *Handlers) GetConversation(c *gin.Context) {
	other, okID := idParam(c, "userID")
	if !okID {
		badID(c, "user id")
		return
	}

	items, err := h.msgSvc.ListConversation(c.Request.Context(), currentUser(c), other)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	if limit := clampLimit(c, 100, 500); len(items) > limit {
		items = items[len(items)-limit:]
	}
	ok(c, http.StatusOK, ListMessagesResponse{Messages: items})
}

// DeleteMessage godoc
// @ID          deleteMessage
// @Summary     Delete a message for my side
// @Description Hides the message for the calling side only. The other party
// @Description keeps seeing it; once both sides delete, the row is purged.
// @Tags        Messages
// @Security    BearerAuth
// @Param       id  path  int  true  "Message ID"
// @Success     204  "Deleted for the calling side"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "Caller is not a participant"
// @Failure     404  {object}  handlers.ErrorResponse  "Message not found"
// @Router      /messages/{id} [delete]
func (h *Handlers) DeleteMessage(c *gin.Context) {
	id, okID := idParam(c, "id")
	if !okID {
		badID(c, "message id")
		return
	}

	err := h.msgSvc.Delete(c.Request.Context(), currentUser(c), id)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMessageNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "message not found")
		case errors.Is(err, services.ErrNotParticipant):
			fail(c, http.StatusForbidden, ErrCodeForbidden, "you are not a participant of this message")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	noContent(c)
}
