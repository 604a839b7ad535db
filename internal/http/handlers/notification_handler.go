// Notification HTTP handlers.
//
// This file exposes REST endpoints for the notification inbox:
//   - GET /notifications              (list my notifications, newest first)
//   - GET /notifications/unread_count
//   - PUT /notifications/read/{id}    (acknowledge one notification)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-social-backend/internal/domain"
	"github.com/tbourn/go-social-backend/internal/services"
)

// ListNotificationsResponse contains the caller's notifications.
type ListNotificationsResponse struct {
	Notifications []domain.Notification `json:"notifications"`
}

// UnreadCountResponse reports the number of unread notifications.
type UnreadCountResponse struct {
	Unread int64 `json:"unread" example:"3"`
}

// ListNotifications godoc
// @ID          listNotifications
// @Summary     List my notifications
// @Description Returns the caller's notifications, newest first.
// @Tags        Notifications
// @Produce     json
// @Security    BearerAuth
// @Param       limit  query  int  false  "Max items"  minimum(1) maximum(500) default(100)
// @Success     200  {object}  handlers.ListNotificationsResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /notifications [get]
func (h *Handlers) ListNotifications(c *gin.Context) {
	items, err := h.notifSvc.ListForUser(c.Request.Context(), currentUser(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	if limit := clampLimit(c, 100, 500); len(items) > limit {
		items = items[:limit]
	}
	ok(c, http.StatusOK, ListNotificationsResponse{Notifications: items})
}

// UnreadCount godoc
// @ID          unreadCount
// @Summary     Count unread notifications
// @Tags        Notifications
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  handlers.UnreadCountResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /notifications/unread_count [get]
func (h *Handlers) UnreadCount(c *gin.Context) {
	n, err := h.notifSvc.UnreadCount(c.Request.Context(), currentUser(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, UnreadCountResponse{Unread: n})
}

// MarkNotificationRead godoc
// @ID          markNotificationRead
// @Summary     Mark a notification read
// @Description Acknowledges one of the caller's notifications. Marking an
// @Description already-read notification succeeds without effect.
// @Tags        Notifications
// @Security    BearerAuth
// @Param       id  path  int  true  "Notification ID"
// @Success     204  "Marked read"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "Not the recipient"
// @Failure     404  {object}  handlers.ErrorResponse  "Notification not found"
// @Router      /notifications/read/{id} [put]
func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	id, okID := idParam(c, "id")
	if !okID {
		badID(c, "notification id")
		return
	}

	err := h.notifSvc.MarkRead(c.Request.Context(), currentUser(c), id)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotificationNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "notification not found")
		case errors.Is(err, services.ErrNotRecipient):
			fail(c, http.StatusForbidden, ErrCodeForbidden, "you are not the recipient of this notification")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	noContent(c)
}
