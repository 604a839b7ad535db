// Package services – AuthService
//
// This file implements the account flows that sit on top of the one-time
// credential cache: registration with email confirmation, login, and
// password reset. Password digests use argon2id; bearer tokens are signed
// JWTs; one-time codes live in the otp.Store and are invalidated on first
// successful use. Issuing a new code always replaces the previous one, so a
// user has at most one live code at any moment.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-social-backend/internal/domain"
	"github.com/tbourn/go-social-backend/internal/otp"
	"github.com/tbourn/go-social-backend/internal/repo"
	"github.com/tbourn/go-social-backend/internal/security"
)

// Mailer delivers one-time codes out of band. Delivery failure surfaces as
// an error to the caller of the registration/reset operation; the code stays
// issued so a retry can re-send it.
type Mailer interface {
	SendCode(ctx context.Context, email, code string) error
}

// LogMailer is the default Mailer: it logs the code instead of sending it.
// Useful for development and tests; production wires a real sender.
type LogMailer struct{}

// SendCode logs the code at info level.
func (LogMailer) SendCode(_ context.Context, email, code string) error {
	log.Info().Str("email", email).Str("code", code).Msg("one-time code issued")
	return nil
}

// minPasswordRunes is the minimal accepted password length. Strength policy
// beyond length is out of scope.
const minPasswordRunes = 8

// AuthService orchestrates registration confirmation and password reset
// using the one-time-credential store plus the hashing/token collaborators.
type AuthService struct {
	DB     *gorm.DB
	Codes  otp.Store
	Tokens *security.TokenManager
	Mail   Mailer

	CodeTTL    time.Duration
	CodeLength int
}

// Register creates an unconfirmed account, issues a confirmation code, and
// mails it.
//
// Errors:
//   - ErrEmptyContent when username or email is blank.
//   - ErrWeakPassword when the password is shorter than eight runes.
//   - ErrUsernameTaken / ErrEmailTaken on uniqueness violations.
//   - The mailer's error when code delivery fails; the account and code are
//     already in place, so the client may simply retry the send.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" || email == "" {
		return nil, ErrEmptyContent
	}
	if len([]rune(password)) < minPasswordRunes {
		return nil, ErrWeakPassword
	}

	if _, err := repo.GetUserByUsername(ctx, s.DB, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if _, err := repo.GetUserByEmail(ctx, s.DB, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	digest, err := security.HashPassword(password)
	if err != nil {
		return nil, err
	}

	u, err := repo.CreateUser(ctx, s.DB, username, email, digest)
	if err != nil {
		return nil, err
	}

	if err := s.issueAndMail(ctx, u.ID, email); err != nil {
		return nil, err
	}
	return u, nil
}

// ConfirmEmail validates the registration code for the account registered
// under email and marks it confirmed. The code is invalidated only after
// the confirmation has been applied.
//
// Errors:
//   - ErrUserNotFound when the email is unknown.
//   - ErrAlreadyConfirmed when the account is already confirmed.
//   - ErrInvalidCode when the code is absent, expired, or wrong.
func (s *AuthService) ConfirmEmail(ctx context.Context, email, code string) error {
	u, err := repo.GetUserByEmail(ctx, s.DB, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return ErrUserNotFound
	}
	if u.Confirmed {
		return ErrAlreadyConfirmed
	}
	if !s.Codes.Validate(ctx, u.ID, code) {
		return ErrInvalidCode
	}
	if err := repo.MarkUserConfirmed(ctx, s.DB, u.ID); err != nil {
		return err
	}
	s.Codes.Invalidate(ctx, u.ID)
	return nil
}

// Login verifies credentials and mints a bearer token naming the user.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	u, err := repo.GetUserByEmail(ctx, s.DB, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return "", nil, ErrInvalidCredentials
	}
	ok, err := security.VerifyPassword(password, u.PasswordHash)
	if err != nil || !ok {
		return "", nil, ErrInvalidCredentials
	}
	token, err := s.Tokens.Issue(u.ID)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

// RequestPasswordReset issues a fresh reset code for the account registered
// under email and mails it. Any previously issued code for the user is
// replaced.
//
// Errors:
//   - ErrUserNotFound when the email is unknown.
//   - The mailer's error when delivery fails.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	u, err := repo.GetUserByEmail(ctx, s.DB, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return ErrUserNotFound
	}
	return s.issueAndMail(ctx, u.ID, u.Email)
}

// ResetPassword validates the reset code for the account registered under
// email and replaces the stored password digest. The code is invalidated
// after the new digest is in place.
//
// Errors:
//   - ErrUserNotFound when the email is unknown.
//   - ErrInvalidCode when the code is absent, expired, or wrong.
//   - ErrWeakPassword when the replacement is shorter than eight runes.
func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	u, err := repo.GetUserByEmail(ctx, s.DB, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return ErrUserNotFound
	}
	if len([]rune(newPassword)) < minPasswordRunes {
		return ErrWeakPassword
	}
	if !s.Codes.Validate(ctx, u.ID, code) {
		return ErrInvalidCode
	}

	digest, err := security.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := repo.UpdateUserPassword(ctx, s.DB, u.ID, digest); err != nil {
		return err
	}
	s.Codes.Invalidate(ctx, u.ID)
	return nil
}

// issueAndMail generates a code, stores it (replacing any live one), and
// hands it to the mailer.
func (s *AuthService) issueAndMail(ctx context.Context, userID uint, email string) error {
	code, err := security.GenerateCode(s.CodeLength)
	if err != nil {
		return err
	}
	ttl := s.CodeTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	s.Codes.Issue(ctx, userID, code, ttl)

	mail := s.Mail
	if mail == nil {
		mail = LogMailer{}
	}
	return mail.SendCode(ctx, email, code)
}
