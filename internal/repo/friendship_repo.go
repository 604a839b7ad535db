// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Friendship
// model.
//
// A friendship is stored once per unordered pair of users: the normalized
// (pair_low, pair_high) columns carry a unique index, so lookups and the
// uniqueness guarantee are independent of argument order. Concurrent inserts
// for the same pair are resolved by that index, not by application locking.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-social-backend/internal/domain"
)

// ErrDuplicatePair indicates that a friendship row already exists for the
// unordered pair, in any status.
var ErrDuplicatePair = errors.New("friendship already exists for pair")

// CreateFriendship inserts a new pending Friendship initiated by initiatorID
// toward recipientID. It returns ErrDuplicatePair when the pair uniqueness
// index rejects the insert.
func CreateFriendship(ctx context.Context, db *gorm.DB, initiatorID, recipientID uint) (*domain.Friendship, error) {
	low, high := domain.NormalizePair(initiatorID, recipientID)
	f := &domain.Friendship{
		InitiatorID: initiatorID,
		RecipientID: recipientID,
		PairLow:     low,
		PairHigh:    high,
		Status:      domain.FriendshipPending,
		CreatedAt:   time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(f).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicatePair
		}
		return nil, err
	}
	return f, nil
}

// GetFriendship fetches a friendship by id, or ErrNotFound if missing.
func GetFriendship(ctx context.Context, db *gorm.DB, id uint) (*domain.Friendship, error) {
	var f domain.Friendship
	if err := db.WithContext(ctx).First(&f, id).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

// GetFriendshipBetween fetches the single friendship for the unordered pair
// {a, b}, or ErrNotFound if none exists. Argument order is irrelevant.
func GetFriendshipBetween(ctx context.Context, db *gorm.DB, a, b uint) (*domain.Friendship, error) {
	low, high := domain.NormalizePair(a, b)
	var f domain.Friendship
	err := db.WithContext(ctx).
		Where("pair_low = ? AND pair_high = ?", low, high).
		First(&f).Error
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// UpdateFriendshipStatus sets the status of friendship id. Returns
// ErrNotFound when no row was updated.
func UpdateFriendshipStatus(ctx context.Context, db *gorm.DB, id uint, status string) error {
	res := db.WithContext(ctx).
		Model(&domain.Friendship{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListFriendshipsForUser returns every friendship involving userID, most
// recent first.
func ListFriendshipsForUser(ctx context.Context, db *gorm.DB, userID uint) ([]domain.Friendship, error) {
	var out []domain.Friendship
	err := db.WithContext(ctx).
		Where("initiator_id = ? OR recipient_id = ?", userID, userID).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

// ListFriendshipsForUserByStatus returns friendships involving userID in the
// given status, most recent first.
func ListFriendshipsForUserByStatus(ctx context.Context, db *gorm.DB, userID uint, status string) ([]domain.Friendship, error) {
	var out []domain.Friendship
	err := db.WithContext(ctx).
		Where("(initiator_id = ? OR recipient_id = ?) AND status = ?", userID, userID, status).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

// PairExists reports whether any friendship row exists for the unordered
// pair, regardless of status.
func PairExists(ctx context.Context, db *gorm.DB, a, b uint) (bool, error) {
	low, high := domain.NormalizePair(a, b)
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Friendship{}).
		Where("pair_low = ? AND pair_high = ?", low, high).
		Count(&n).Error
	return n > 0, err
}

// isUniqueViolation detects unique-constraint violations across drivers that
// may not map to gorm.ErrDuplicatedKey.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// SQLite typically: "UNIQUE constraint failed"
	// Postgres typically: "duplicate key value violates unique constraint"
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "constraint failed: unique")
}
