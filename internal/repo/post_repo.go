// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Post,
// Comment, and Like models.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-social-backend/internal/domain"
)

// CreatePost inserts a new Post row owned by userID.
func CreatePost(ctx context.Context, db *gorm.DB, userID uint, content string) (*domain.Post, error) {
	p := &domain.Post{
		UserID:    userID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// GetPost fetches a post by id, or ErrNotFound if missing.
func GetPost(ctx context.Context, db *gorm.DB, id uint) (*domain.Post, error) {
	var p domain.Post
	if err := db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPostsByUser returns all posts authored by userID, newest first.
func ListPostsByUser(ctx context.Context, db *gorm.DB, userID uint) ([]domain.Post, error) {
	var out []domain.Post
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

// UpdatePostContent replaces the content of a post owned by userID. Returns
// ErrNotFound when the post does not exist or is not owned by userID.
func UpdatePostContent(ctx context.Context, db *gorm.DB, id, userID uint, content string) error {
	res := db.WithContext(ctx).
		Model(&domain.Post{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("content", content)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeletePost soft-deletes a post by id.
func DeletePost(ctx context.Context, db *gorm.DB, id uint) error {
	return db.WithContext(ctx).Delete(&domain.Post{}, id).Error
}

// CreateComment inserts a new Comment row on postID authored by userID.
func CreateComment(ctx context.Context, db *gorm.DB, postID, userID uint, content string) (*domain.Comment, error) {
	c := &domain.Comment{
		PostID:    postID,
		UserID:    userID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// ListComments returns all comments on postID, oldest first.
func ListComments(ctx context.Context, db *gorm.DB, postID uint) ([]domain.Comment, error) {
	var out []domain.Comment
	err := db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

// CreateLike inserts a Like for (postID, userID). The unique index rejects a
// second like by the same user; callers detect that with isUniqueViolation.
func CreateLike(ctx context.Context, db *gorm.DB, postID, userID uint) (*domain.Like, error) {
	l := &domain.Like{
		PostID:    postID,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(l).Error; err != nil {
		return nil, err
	}
	return l, nil
}

// DeleteLike removes the like by userID on postID. Returns ErrNotFound when
// no row was deleted.
func DeleteLike(ctx context.Context, db *gorm.DB, postID, userID uint) error {
	res := db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Delete(&domain.Like{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountLikes returns the number of likes on postID.
func CountLikes(ctx context.Context, db *gorm.DB, postID uint) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Like{}).
		Where("post_id = ?", postID).
		Count(&total).Error
	return total, err
}
