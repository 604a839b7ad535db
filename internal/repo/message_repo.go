// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// DirectMessage model.
//
// Visibility filtering (each party's own deletion flag) is expressed in SQL
// so list queries never materialize rows the viewer has deleted. Ordering is
// deterministic: sent_at ASC with id ASC as tiebreaker.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-social-backend/internal/domain"
)

// CreateDirectMessage appends a message from senderID to receiverID with
// both deletion flags clear and SentAt set to the current UTC time.
func CreateDirectMessage(ctx context.Context, db *gorm.DB, senderID, receiverID uint, content string) (*domain.DirectMessage, error) {
	m := &domain.DirectMessage{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		SentAt:     time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

// GetDirectMessage fetches a message by id, or ErrNotFound if missing.
func GetDirectMessage(ctx context.Context, db *gorm.DB, id uint) (*domain.DirectMessage, error) {
	var m domain.DirectMessage
	if err := db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// ListMessagesForUser returns every message userID can still see, in either
// direction, ordered by sent time ascending.
func ListMessagesForUser(ctx context.Context, db *gorm.DB, userID uint) ([]domain.DirectMessage, error) {
	var out []domain.DirectMessage
	err := db.WithContext(ctx).
		Where("(sender_id = ? AND deleted_by_sender = ?) OR (receiver_id = ? AND deleted_by_receiver = ?)",
			userID, false, userID, false).
		Order("sent_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

// ListConversation returns the messages exchanged strictly between viewerID
// and otherID that are still visible to the viewer, ordered by sent time
// ascending. The other party's deletion flag is irrelevant to this view.
func ListConversation(ctx context.Context, db *gorm.DB, viewerID, otherID uint) ([]domain.DirectMessage, error) {
	var out []domain.DirectMessage
	err := db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ? AND deleted_by_sender = ?) OR (sender_id = ? AND receiver_id = ? AND deleted_by_receiver = ?)",
			viewerID, otherID, false, otherID, viewerID, false).
		Order("sent_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

// SetMessageDeletedBySender flips the sender-side deletion flag for id.
func SetMessageDeletedBySender(ctx context.Context, db *gorm.DB, id uint) error {
	return setMessageFlag(ctx, db, id, "deleted_by_sender")
}

// SetMessageDeletedByReceiver flips the receiver-side deletion flag for id.
func SetMessageDeletedByReceiver(ctx context.Context, db *gorm.DB, id uint) error {
	return setMessageFlag(ctx, db, id, "deleted_by_receiver")
}

func setMessageFlag(ctx context.Context, db *gorm.DB, id uint, column string) error {
	res := db.WithContext(ctx).
		Model(&domain.DirectMessage{}).
		Where("id = ?", id).
		Update(column, true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// PurgeDirectMessage physically removes a message row. Called once both
// parties have deleted their copy; the record is irrecoverable afterwards.
func PurgeDirectMessage(ctx context.Context, db *gorm.DB, id uint) error {
	return db.WithContext(ctx).Delete(&domain.DirectMessage{}, id).Error
}
