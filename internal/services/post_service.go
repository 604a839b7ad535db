// Package services – PostService
//
// Posts, comments, and likes are plain CRUD guarded by owner checks; their
// one interesting obligation is feeding the notification fan-out: comments
// and likes notify the post owner. Like uniqueness rides on the DB's
// (post, user) index the same way friendship pair uniqueness does.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/tbourn/go-social-backend/internal/domain"
	"github.com/tbourn/go-social-backend/internal/repo"
)

// PostService implements the content CRUD and its fan-out side effects.
type PostService struct {
	DB       *gorm.DB
	Notifier Notifier

	// MaxContentRunes caps post and comment length; 0 disables the check.
	MaxContentRunes int
}

func (s *PostService) checkContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", ErrEmptyContent
	}
	if s.MaxContentRunes > 0 && utf8.RuneCountInString(content) > s.MaxContentRunes {
		return "", ErrTooLong
	}
	return content, nil
}

// Create inserts a post authored by userID.
func (s *PostService) Create(ctx context.Context, userID uint, content string) (*domain.Post, error) {
	content, err := s.checkContent(content)
	if err != nil {
		return nil, err
	}
	return repo.CreatePost(ctx, s.DB, userID, content)
}

// Get fetches a post by id, or ErrPostNotFound.
func (s *PostService) Get(ctx context.Context, id uint) (*domain.Post, error) {
	p, err := repo.GetPost(ctx, s.DB, id)
	if err != nil {
		return nil, ErrPostNotFound
	}
	return p, nil
}

// ListByUser returns all posts authored by userID, newest first.
func (s *PostService) ListByUser(ctx context.Context, userID uint) ([]domain.Post, error) {
	return repo.ListPostsByUser(ctx, s.DB, userID)
}

// Update replaces the content of a post owned by actingUserID.
//
// Errors:
//   - ErrPostNotFound when the post does not exist.
//   - ErrNotOwner when actingUserID is not the author.
func (s *PostService) Update(ctx context.Context, actingUserID, postID uint, content string) (*domain.Post, error) {
	content, err := s.checkContent(content)
	if err != nil {
		return nil, err
	}

	p, err := repo.GetPost(ctx, s.DB, postID)
	if err != nil {
		return nil, ErrPostNotFound
	}
	if p.UserID != actingUserID {
		return nil, ErrNotOwner
	}
	if err := repo.UpdatePostContent(ctx, s.DB, postID, actingUserID, content); err != nil {
		return nil, err
	}
	p.Content = content
	return p, nil
}

// Delete removes a post owned by actingUserID.
func (s *PostService) Delete(ctx context.Context, actingUserID, postID uint) error {
	p, err := repo.GetPost(ctx, s.DB, postID)
	if err != nil {
		return ErrPostNotFound
	}
	if p.UserID != actingUserID {
		return ErrNotOwner
	}
	return repo.DeletePost(ctx, s.DB, postID)
}

// AddComment appends a comment to postID and notifies the post owner
// (unless they commented on their own post).
func (s *PostService) AddComment(ctx context.Context, actingUserID, postID uint, content string) (*domain.Comment, error) {
	content, err := s.checkContent(content)
	if err != nil {
		return nil, err
	}

	p, err := repo.GetPost(ctx, s.DB, postID)
	if err != nil {
		return nil, ErrPostNotFound
	}

	c, err := repo.CreateComment(ctx, s.DB, postID, actingUserID, content)
	if err != nil {
		return nil, err
	}

	if s.Notifier != nil && p.UserID != actingUserID {
		ref := p.ID
		s.Notifier.Notify(ctx, p.UserID, actingUserID,
			domain.NotificationComment, &ref,
			fmt.Sprintf("user %d commented on your post", actingUserID))
	}
	return c, nil
}

// ListComments returns all comments on postID, oldest first.
func (s *PostService) ListComments(ctx context.Context, postID uint) ([]domain.Comment, error) {
	if _, err := repo.GetPost(ctx, s.DB, postID); err != nil {
		return nil, ErrPostNotFound
	}
	return repo.ListComments(ctx, s.DB, postID)
}

// Like records a like by actingUserID on postID and notifies the post owner
// (unless they liked their own post).
//
// Errors:
//   - ErrPostNotFound when the post does not exist.
//   - ErrAlreadyLiked when the user has already liked the post; concurrent
//     duplicate likes are settled by the unique index.
func (s *PostService) Like(ctx context.Context, actingUserID, postID uint) (*domain.Like, error) {
	p, err := repo.GetPost(ctx, s.DB, postID)
	if err != nil {
		return nil, ErrPostNotFound
	}

	l, err := repo.CreateLike(ctx, s.DB, postID, actingUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || isDuplicate(err) {
			return nil, ErrAlreadyLiked
		}
		return nil, err
	}

	if s.Notifier != nil && p.UserID != actingUserID {
		ref := p.ID
		s.Notifier.Notify(ctx, p.UserID, actingUserID,
			domain.NotificationLike, &ref,
			fmt.Sprintf("user %d liked your post", actingUserID))
	}
	return l, nil
}

// Unlike removes actingUserID's like from postID.
//
// Errors:
//   - ErrPostNotFound when the post does not exist.
//   - ErrLikeNotFound when the user had not liked the post.
func (s *PostService) Unlike(ctx context.Context, actingUserID, postID uint) error {
	if _, err := repo.GetPost(ctx, s.DB, postID); err != nil {
		return ErrPostNotFound
	}
	if err := repo.DeleteLike(ctx, s.DB, postID, actingUserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLikeNotFound
		}
		return err
	}
	return nil
}

// LikeCount returns the number of likes on postID.
func (s *PostService) LikeCount(ctx context.Context, postID uint) (int64, error) {
	return repo.CountLikes(ctx, s.DB, postID)
}

// isDuplicate attempts to detect unique-constraint violations across drivers
// that may not map to gorm.ErrDuplicatedKey.
func isDuplicate(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key")
}
