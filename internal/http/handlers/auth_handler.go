// Auth HTTP handlers.
//
// This file exposes the sign-up and sign-in endpoints:
//   - POST /auth/register        (create an account, mails a confirmation code)
//   - POST /auth/confirm         (confirm the account with the emailed code)
//   - POST /auth/login           (exchange credentials for a bearer token)
//   - POST /auth/password/forgot (mail a reset code)
//   - POST /auth/password/reset  (set a new password with the code)
//
// These routes are unauthenticated by design. Credential failures are
// reported uniformly so the API does not reveal which accounts exist.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-social-backend/internal/services"
)

//
// DTOs
//

// RegisterRequest is the JSON payload for creating an account.
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=32" example:"alice"`
	Email    string `json:"email" binding:"required,email" example:"alice@example.com"`
	Password string `json:"password" binding:"required,min=8" example:"correct horse battery"`
}

// RegisterResponse returns the newly created (unconfirmed) account.
type RegisterResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// ConfirmRequest carries the emailed confirmation code.
type ConfirmRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,min=4,max=32"`
}

// LoginRequest is the JSON payload for signing in.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the bearer token and basic account info.
type LoginResponse struct {
	Token    string `json:"token"`
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
}

// ForgotPasswordRequest asks for a password reset code to be mailed.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest sets a new password using the mailed code.
type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Code        string `json:"code" binding:"required,min=4,max=32"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

//
// Handlers
//

// Register godoc
// @ID          register
// @Summary     Create a new account
// @Description Registers an account and emails a confirmation code. The account
// @Description cannot sign in until it is confirmed.
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.RegisterRequest  true  "Account details"
// @Success     201  {object}  handlers.RegisterResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     409  {object}  handlers.ErrorResponse  "Email or username taken"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/register [post]
func (h *Handlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "username, email and password required")
		return
	}

	u, err := h.authSvc.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmailTaken):
			fail(c, http.StatusConflict, ErrCodeConflict, "email already registered")
		case errors.Is(err, services.ErrUsernameTaken):
			fail(c, http.StatusConflict, ErrCodeConflict, "username already taken")
		case errors.Is(err, services.ErrWeakPassword):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "password too short")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}

	ok(c, http.StatusCreated, RegisterResponse{ID: u.ID, Username: u.Username, Email: u.Email})
}

// ConfirmEmail godoc
// @ID          confirmEmail
// @Summary     Confirm an account
// @Description Confirms a freshly registered account using the emailed code.
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.ConfirmRequest  true  "Email and code"
// @Success     204  "Confirmed"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request or invalid code"
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown account"
// @Failure     409  {object}  handlers.ErrorResponse  "Already confirmed"
// @Router      /auth/confirm [post]
func (h *Handlers) ConfirmEmail(c *gin.Context) {
	var req ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "email and code required")
		return
	}

	err := h.authSvc.ConfirmEmail(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "account not found")
		case errors.Is(err, services.ErrAlreadyConfirmed):
			fail(c, http.StatusConflict, ErrCodeConflict, "account already confirmed")
		case errors.Is(err, services.ErrInvalidCode):
			fail(c, http.StatusBadRequest, ErrCodeInvalidCode, "invalid or expired code")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	noContent(c)
}

// Login godoc
// @ID          login
// @Summary     Sign in
// @Description Exchanges email and password for a bearer token.
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.LoginRequest  true  "Credentials"
// @Success     200  {object}  handlers.LoginResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Invalid credentials"
// @Router      /auth/login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "email and password required")
		return
	}

	token, u, err := h.authSvc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid credentials")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	ok(c, http.StatusOK, LoginResponse{Token: token, UserID: u.ID, Username: u.Username})
}

// ForgotPassword godoc
// @ID          forgotPassword
// @Summary     Request a password reset code
// @Description Mails a one-time reset code. Always returns 204 so callers
// @Description cannot probe which addresses are registered.
// @Tags        Auth
// @Accept      json
// @Param       body  body  handlers.ForgotPasswordRequest  true  "Account email"
// @Success     204  "Code sent if the account exists"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Router      /auth/password/forgot [post]
func (h *Handlers) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "email required")
		return
	}

	// Unknown accounts still get a 204.
	_ = h.authSvc.RequestPasswordReset(c.Request.Context(), req.Email)
	noContent(c)
}

// ResetPassword godoc
// @ID          resetPassword
// @Summary     Reset a password
// @Description Sets a new password using the mailed one-time code.
// @Tags        Auth
// @Accept      json
// @Param       body  body  handlers.ResetPasswordRequest  true  "Email, code, new password"
// @Success     204  "Password changed"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request or invalid code"
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown account"
// @Router      /auth/password/reset [post]
func (h *Handlers) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "email, code and new_password required")
		return
	}

	err := h.authSvc.ResetPassword(c.Request.Context(), req.Email, req.Code, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "account not found")
		case errors.Is(err, services.ErrInvalidCode):
			fail(c, http.StatusBadRequest, ErrCodeInvalidCode, "invalid or expired code")
		case errors.Is(err, services.ErrWeakPassword):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "password too short")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	noContent(c)
}
