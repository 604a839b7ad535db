// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// Notification model.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-social-backend/internal/domain"
)

// CreateNotification inserts a new unread notification row.
func CreateNotification(ctx context.Context, db *gorm.DB, recipientID, senderID uint, ntype string, referenceID *uint, message string) (*domain.Notification, error) {
	n := &domain.Notification{
		RecipientID: recipientID,
		SenderID:    senderID,
		Type:        ntype,
		ReferenceID: referenceID,
		Message:     message,
		CreatedAt:   time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(n).Error; err != nil {
		return nil, err
	}
	return n, nil
}

// GetNotification fetches a notification by id, or ErrNotFound if missing.
func GetNotification(ctx context.Context, db *gorm.DB, id uint) (*domain.Notification, error) {
	var n domain.Notification
	if err := db.WithContext(ctx).First(&n, id).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

// ListNotificationsForUser returns all notifications addressed to userID,
// newest first.
func ListNotificationsForUser(ctx context.Context, db *gorm.DB, userID uint) ([]domain.Notification, error) {
	var out []domain.Notification
	err := db.WithContext(ctx).
		Where("recipient_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

// CountUnreadNotifications returns the number of unread notifications for
// userID.
func CountUnreadNotifications(ctx context.Context, db *gorm.DB, userID uint) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("recipient_id = ? AND is_read = ?", userID, false).
		Count(&total).Error
	return total, err
}

// MarkNotificationRead sets is_read for notification id. Returns ErrNotFound
// when no row was updated.
func MarkNotificationRead(ctx context.Context, db *gorm.DB, id uint) error {
	res := db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("id = ?", id).
		Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
