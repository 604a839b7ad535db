// Call session HTTP handlers.
//
// This file exposes REST endpoints for audio/video call bookkeeping:
//   - POST /calls              (record an initiated call)
//   - PUT  /calls/{id}/status  (advance the call state machine)
//   - GET  /calls              (list my call history)
//
// The server does not carry media; it only tracks session state. Allowed
// transitions are initiated→accepted/rejected/missed and accepted→ended.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-social-backend/internal/domain"
	"github.com/tbourn/go-social-backend/internal/services"
)

//
// DTOs
//

// InitiateCallRequest is the JSON payload for recording a new call.
type InitiateCallRequest struct {
	// ReceiverID is the user being called.
	ReceiverID uint `json:"receiver_id" binding:"required" example:"42"`
	// CallType is a free-form label such as "audio" or "video".
	CallType string `json:"call_type" binding:"required,oneof=audio video" example:"video"`
}

// UpdateCallStatusRequest advances a call session's state.
//
// StartedAt is honored when the new status is "accepted"; EndedAt when the
// new status is "ended". Duration is derived only when both ends are known.
type UpdateCallStatusRequest struct {
	Status    string     `json:"status" binding:"required,oneof=accepted rejected missed ended" example:"accepted"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// CallResponse wraps a single call session.
type CallResponse struct {
	Call *domain.CallSession `json:"call"`
}

// ListCallsResponse contains the caller's call history.
type ListCallsResponse struct {
	Calls []domain.CallSession `json:"calls"`
}

//
// Handlers
//

// InitiateCall godoc
// @ID          initiateCall
// @Summary     Record an initiated call
// @Description Creates a call session in the "initiated" state and notifies
// @Description the receiver.
// @Tags        Calls
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body  handlers.InitiateCallRequest  true  "Call details"
// @Success     201  {object}  handlers.CallResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request or self call"
// @Failure     404  {object}  handlers.ErrorResponse  "Receiver not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /calls [post]
func (h *Handlers) InitiateCall(c *gin.Context) {
	var req InitiateCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "receiver_id and call_type required")
		return
	}

	session, err := h.callSvc.Initiate(c.Request.Context(), currentUser(c), req.ReceiverID, req.CallType)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSelfCall):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "cannot call yourself")
		case errors.Is(err, services.ErrUserNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "receiver not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}

	ok(c, http.StatusCreated, CallResponse{Call: session})
}

// UpdateCallStatus godoc
// @ID          updateCallStatus
// @Summary     Advance a call session
// @Description Applies a state transition to a call session. Only accepted
// @Description calls may be ended; terminal states cannot change again.
// @Tags        Calls
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path  int                               true  "Call session ID"
// @Param       body  body  handlers.UpdateCallStatusRequest  true  "New status"
// @Success     200  {object}  handlers.CallResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request or unknown status"
// @Failure     403  {object}  handlers.ErrorResponse  "Caller is not a participant"
// @Failure     404  {object}  handlers.ErrorResponse  "Call session not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Transition not allowed"
// @Router      /calls/{id}/status [put]
func (h *Handlers) UpdateCallStatus(c *gin.Context) {
	id, okID := idParam(c, "id")
	if !okID {
		badID(c, "call id")
		return
	}

	var req UpdateCallStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "status must be accepted, rejected, missed or ended")
		return
	}

	session, err := h.callSvc.UpdateStatus(c.Request.Context(), currentUser(c), id, req.Status, req.StartedAt, req.EndedAt)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCallStatus):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unknown call status")
		case errors.Is(err, services.ErrCallNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "call session not found")
		case errors.Is(err, services.ErrNotParticipant):
			fail(c, http.StatusForbidden, ErrCodeForbidden, "you are not a participant of this call")
		case errors.Is(err, services.ErrInvalidTransition):
			fail(c, http.StatusConflict, ErrCodeInvalidState, "transition not allowed from the current status")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}

	ok(c, http.StatusOK, CallResponse{Call: session})
}

// ListCalls godoc
// @ID          listCalls
// @Summary     List my call history
// @Description Returns call sessions involving the caller, newest first.
// @Tags        Calls
// @Produce     json
// @Security    BearerAuth
// @Param       limit  query  int  false  "Max items"  minimum(1) maximum(500) default(100)
// @Success     200  {object}  handlers.ListCallsResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /calls [get]
func (h *Handlers) ListCalls(c *gin.Context) {
	items, err := h.callSvc.ListForUser(c.Request.Context(), currentUser(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	if limit := clampLimit(c, 100, 500); len(items) > limit {
		items = items[:limit]
	}
	ok(c, http.StatusOK, ListCallsResponse{Calls: items})
}
