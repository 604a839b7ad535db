// User profile HTTP handlers.
//
// This file exposes REST endpoints for reading and editing profiles:
//   - GET /users/{id}  (public profile view)
//   - GET /me          (own profile)
//   - PUT /me          (update display name and bio)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-social-backend/internal/domain"
	"github.com/tbourn/go-social-backend/internal/services"
)

// UpdateProfileRequest carries editable profile fields.
type UpdateProfileRequest struct {
	DisplayName string `json:"display_name" binding:"max=64" example:"Alice Example"`
	Bio         string `json:"bio" binding:"max=500" example:"coffee and bouldering"`
}

// UserResponse wraps a single user profile.
type UserResponse struct {
	User *domain.User `json:"user"`
}

// GetUser godoc
// @ID          getUser
// @Summary     Fetch a user profile
// @Tags        Users
// @Produce     json
// @Security    BearerAuth
// @Param       id  path  int  true  "User ID"
// @Success     200  {object}  handlers.UserResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Router      /users/{id} [get]
func (h *Handlers) GetUser(c *gin.Context) {
	id, okID := idParam(c, "id")
	if !okID {
		badID(c, "user id")
		return
	}

	u, err := h.userSvc.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, UserResponse{User: u})
}

// GetMe godoc
// @ID          getMe
// @Summary     Fetch my profile
// @Tags        Users
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  handlers.UserResponse
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Router      /me [get]
func (h *Handlers) GetMe(c *gin.Context) {
	u, err := h.userSvc.Get(c.Request.Context(), currentUser(c))
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, UserResponse{User: u})
}

// UpdateMe godoc
// @ID          updateMe
// @Summary     Update my profile
// @Description Updates display name and bio. The display name is title-cased
// @Description according to the configured locale.
// @Tags        Users
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body  handlers.UpdateProfileRequest  true  "Profile fields"
// @Success     200  {object}  handlers.UserResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Router      /me [put]
func (h *Handlers) UpdateMe(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid profile payload")
		return
	}

	u, err := h.userSvc.UpdateProfile(c.Request.Context(), currentUser(c), req.DisplayName, req.Bio)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, UserResponse{User: u})
}
