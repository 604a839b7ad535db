// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// CallSession model.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-social-backend/internal/domain"
)

// CreateCallSession inserts a new session in the initiated state with both
// timestamps unset.
func CreateCallSession(ctx context.Context, db *gorm.DB, callerID, receiverID uint, callType string) (*domain.CallSession, error) {
	s := &domain.CallSession{
		CallerID:   callerID,
		ReceiverID: receiverID,
		CallType:   callType,
		Status:     domain.CallInitiated,
		CreatedAt:  time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(s).Error; err != nil {
		return nil, err
	}
	return s, nil
}

// GetCallSession fetches a session by id, or ErrNotFound if missing.
func GetCallSession(ctx context.Context, db *gorm.DB, id uint) (*domain.CallSession, error) {
	var s domain.CallSession
	if err := db.WithContext(ctx).First(&s, id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// SaveCallSession persists the full current state of a session. Used by the
// service after an authorized status transition has been applied in memory.
func SaveCallSession(ctx context.Context, db *gorm.DB, s *domain.CallSession) error {
	return db.WithContext(ctx).Save(s).Error
}

// ListCallSessionsForUser returns every session in which userID is caller or
// receiver, most recent first.
func ListCallSessionsForUser(ctx context.Context, db *gorm.DB, userID uint) ([]domain.CallSession, error) {
	var out []domain.CallSession
	err := db.WithContext(ctx).
		Where("caller_id = ? OR receiver_id = ?", userID, userID).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}
