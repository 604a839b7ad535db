// Package services – UserService
//
// Profile reads and updates. Display names are normalized with a
// locale-aware title caser before storage.
package services

import (
	"context"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/tbourn/go-social-backend/internal/domain"
	"github.com/tbourn/go-social-backend/internal/repo"
)

// UserService implements profile use-cases.
type UserService struct {
	DB *gorm.DB

	// NameLocale selects the casing rules for display-name normalization.
	// language.Und falls back to English.
	NameLocale language.Tag
}

// Get fetches a user by id, or ErrUserNotFound.
func (s *UserService) Get(ctx context.Context, id uint) (*domain.User, error) {
	u, err := repo.GetUser(ctx, s.DB, id)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// UpdateProfile replaces the mutable profile fields of userID. The display
// name is whitespace-collapsed and title-cased; bio is stored verbatim
// after trimming.
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, displayName, bio string) (*domain.User, error) {
	displayName = s.normalizeName(displayName)
	bio = strings.TrimSpace(bio)

	if err := repo.UpdateUserProfile(ctx, s.DB, userID, displayName, bio); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return s.Get(ctx, userID)
}

// normalizeName collapses internal whitespace and title-cases each word.
func (s *UserService) normalizeName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	tag := s.NameLocale
	if tag == language.Und {
		tag = language.English
	}
	caser := cases.Title(tag)
	for i, f := range fields {
		fields[i] = caser.String(f)
	}
	return strings.Join(fields, " ")
}
