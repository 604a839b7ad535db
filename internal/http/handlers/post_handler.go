// Post, comment, and like HTTP handlers.
//
// This file exposes REST endpoints for the wall:
//   - POST   /posts                   (create a post, idempotency supported)
//   - GET    /posts/{id}              (fetch one post)
//   - GET    /users/{id}/posts        (a user's posts, newest first)
//   - PUT    /posts/{id}              (edit own post)
//   - DELETE /posts/{id}              (remove own post)
//   - POST   /posts/{id}/comments     (comment on a post)
//   - GET    /posts/{id}/comments     (list comments, oldest first)
//   - POST   /posts/{id}/like         (like a post, once per user)
//   - DELETE /posts/{id}/like         (remove my like)
//   - GET    /posts/{id}/likes        (like count)
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-social-backend/internal/domain"
	"github.com/tbourn/go-social-backend/internal/http/middleware"
	"github.com/tbourn/go-social-backend/internal/repo"
	"github.com/tbourn/go-social-backend/internal/services"
)

//
// DTOs
//

// PostContentRequest carries post or comment content.
type PostContentRequest struct {
	Content string `json:"content" binding:"required,min=1" example:"hello world"`
}

// PostResponse wraps a single post.
type PostResponse struct {
	Post *domain.Post `json:"post"`
}

// ListPostsResponse contains a user's posts.
type ListPostsResponse struct {
	Posts []domain.Post `json:"posts"`
}

// CommentResponse wraps a single comment.
type CommentResponse struct {
	Comment *domain.Comment `json:"comment"`
}

// ListCommentsResponse contains a post's comments.
type ListCommentsResponse struct {
	Comments []domain.Comment `json:"comments"`
}

// LikeCountResponse reports a post's like total.
type LikeCountResponse struct {
	Likes int64 `json:"likes" example:"7"`
}

//
// Handlers
//

// CreatePost godoc
// @ID          createPost
// @Summary     Create a post
// @Description Publishes a post on the caller's wall. Supports safe retries
// @Description via the Idempotency-Key header.
// @Tags        Posts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       Idempotency-Key  header  string  false  "Idempotency key for safe retries"
// @Param       body             body    handlers.PostContentRequest  true  "Post content"
// @Success     201  {object}  handlers.PostResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request or content too long"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /posts [post]
func (h *Handlers) CreatePost(c *gin.Context) {
	ctx := c.Request.Context()

	var req PostContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		return
	}

	author := currentUser(c)

	idemKey, _ := middleware.GetIdempotencyKey(c)
	scope := middleware.IdempotencyScope(c)
	if idemKey != "" && h.DB != nil {
		if rec, err := repo.GetIdempotency(ctx, h.DB, author, scope, idemKey, time.Now().UTC()); err == nil && rec != nil {
			if prev, err2 := repo.GetPost(ctx, h.DB, rec.ResultID); err2 == nil {
				c.Header("Idempotency-Replayed", "true")
				ok(c, http.StatusCreated, PostResponse{Post: prev})
				return
			}
		}
	}

	p, err := h.postSvc.Create(ctx, author, req.Content)
	if err != nil {
		failPostContent(c, err)
		return
	}

	if idemKey != "" && h.DB != nil {
		_, _ = repo.CreateIdempotency(ctx, h.DB, author, scope, idemKey, p.ID, http.StatusCreated, h.IdemTTL)
	}

	ok(c, http.StatusCreated, PostResponse{Post: p})
}

// GetPost godoc
// @ID          getPost
// @Summary     Fetch one post
// @Tags        Posts
// @Produce     json
// @Security    BearerAuth
// @Param       id  path  int  true  "Post ID"
// @Success     200  {object}  handlers.PostResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Post not found"
// @Router      /posts/{id} [get]
func (h *Handlers) GetPost(c *gin.Context) {
	id, okID := idParam(c, "id")
	if !okID {
		badID(c, "post id")
		return
	}

	p, err := h.postSvc.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrPostNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "post not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, PostResponse{Post: p})
}

// ListUserPosts godoc
// @ID          listUserPosts
// @Summary     List a user's posts
// @Description Returns the given user's posts, newest first.
// @Tags        Posts
// @Produce     json
// @Security    BearerAuth
// @Param       id     path   int  true   "Author user ID"
// @Param       limit  query  int  false  "Max items"  minimum(1) maximum(500) default(100)
// @Success     200  {object}  handlers.ListPostsResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Router      /users/{id}/posts [get]
func (h *Handlers) ListUserPosts(c *gin.Context) {
	author, okID := idParam(c, "id")
	if !okID {
		badID(c, "user id")
		return
	}

	items, err := h.postSvc.ListByUser(c.Request.Context(), author)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	if limit := clampLimit(c, 100, 500); len(items) > limit {
		items = items[:limit]
	}
	ok(c, http.StatusOK, ListPostsResponse{Posts: items})
}

// UpdatePost godoc
// @ID          updatePost
// @Summary     Edit my post
// @Tags        Posts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path  int                          true  "Post ID"
// @Param       body  body  handlers.PostContentRequest  true  "New content"
// @Success     200  {object}  handlers.PostResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "Not the author"
// @Failure     404  {object}  handlers.ErrorResponse  "Post not found"
// @Router      /posts/{id} [put]
func (h *Handlers) UpdatePost(c *gin.Context) {
	id, okID := idParam(c, "id")
	if !okID {
		badID(c, "post id")
		return
	}

	var req PostContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		return
	}

	p, err := h.postSvc.Update(c.Request.Context(), currentUser(c), id, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPostNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "post not found")
		case errors.Is(err, services.ErrNotOwner):
			fail(c, http.StatusForbidden, ErrCodeForbidden, "you are not the author of this post")
		default:
			failPostContent(c, err)
		}
		return
	}
	ok(c, http.StatusOK, PostResponse{Post: p})
}

// DeletePost godoc
// @ID          deletePost
// @Summary     Delete my post
// @Tags        Posts
// @Security    BearerAuth
// @Param       id  path  int  true  "Post ID"
// @Success     204  "Deleted"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "Not the author"
// @Failure     404  {object}  handlers.ErrorResponse  "Post not found"
// @Router      /posts/{id} [delete]
func (h *Handlers) DeletePost(c *gin.Context) {
	id, okID := idParam(c, "id")
	if !okID {
		badID(c, "post id")
		return
	}

	err := h.postSvc.Delete(c.Request.Context(), currentUser(c), id)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPostNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "post not found")
		case errors.Is(err, services.ErrNotOwner):
			fail(c, http.StatusForbidden, ErrCodeForbidden, "you are not the author of this post")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	noContent(c)
}

// AddComment godoc
// @ID          addComment
// @Summary     Comment on a post
// @Tags        Posts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path  int                          true  "Post ID"
// @Param       body  body  handlers.PostContentRequest  true  "Comment content"
// @Success     201  {object}  handlers.CommentResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Post not found"
// @Router      /posts/{id}/comments [post]
func (h *Handlers) AddComment(c *gin.Context) {
	id, okID := idParam(c, "id")
	if !okID {
		badID(c, "post id")
		return
	}

	var req PostContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		return
	}

	cm, err := h.postSvc.AddComment(c.Request.Context(), currentUser(c), id, req.Content)
	if err != nil {
		if errors.Is(err, services.ErrPostNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "post not found")
			return
		}
		failPostContent(c, err)
		return
	}
	ok(c, http.StatusCreated, CommentResponse{Comment: cm})
}

// ListPostComments godoc
// @ID          listPostComments
// @Summary     List a post's comments
// @Tags        Posts
// @Produce     json
// @Security    BearerAuth
// @Param       id     path   int  true   "Post ID"
// @Param       limit  query  int  false  "Max items"  minimum(1) maximum(500) default(100)
// @Success     200  {object}  handlers.ListCommentsResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Router      /posts/{id}/comments [get]
func (h *Handlers) ListPostComments(c *gin.Context) {
	id, okID := idParam(c, "id")
	if !okID {
		badID(c, "post id")
		return
	}

	items, err := h.postSvc.ListComments(c.Request.Context(), id)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	if limit := clampLimit(c, 100, 500); len(items) > limit {
		items = items[:limit]
	}
	ok(c, http.StatusOK, ListCommentsResponse{Comments: items})
}

// LikePost godoc
// @ID          likePost
// @Summary     Like a post
// @Description Likes a post. Each user can like a given post at most once.
// @Tags        Posts
// @Security    BearerAuth
// @Param       id  path  int  true  "Post ID"
// @Success     204  "Liked"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Post not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Already liked"
// @Router      /posts/{id}/like [post]
func (h *Handlers) LikePost(c *gin.Context) {
	id, okID := idParam(c, "id")
	if !okID {
		badID(c, "post id")
		return
	}

	_, err := h.postSvc.Like(c.Request.Context(), currentUser(c), id)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPostNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "post not found")
		case errors.Is(err, services.ErrAlreadyLiked):
			fail(c, http.StatusConflict, ErrCodeConflict, "post already liked")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	noContent(c)
}

// UnlikePost godoc
// @ID          unlikePost
// @Summary     Remove my like
// @Tags        Posts
// @Security    BearerAuth
// @Param       id  path  int  true  "Post ID"
// @Success     204  "Like removed"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Like not found"
// @Router      /posts/{id}/like [delete]
func (h *Handlers) UnlikePost(c *gin.Context) {
	id, okID := idParam(c, "id")
	if !okID {
		badID(c, "post id")
		return
	}

	err := h.postSvc.Unlike(c.Request.Context(), currentUser(c), id)
	if err != nil {
		if errors.Is(err, services.ErrLikeNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "like not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	noContent(c)
}

// PostLikeCount godoc
// @ID          postLikeCount
// @Summary     Count a post's likes
// @Tags        Posts
// @Produce     json
// @Security    BearerAuth
// @Param       id  path  int  true  "Post ID"
// @Success     200  {object}  handlers.LikeCountResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Router      /posts/{id}/likes [get]
func (h *Handlers) PostLikeCount(c *gin.Context) {
	id, okID := idParam(c, "id")
	if !okID {
		badID(c, "post id")
		return
	}

	n, err := h.postSvc.LikeCount(c.Request.Context(), id)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, LikeCountResponse{Likes: n})
}

// failPostContent maps content validation failures from the post service.
func failPostContent(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrEmptyContent):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
	case errors.Is(err, services.ErrTooLong):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, fmt.Sprintf("content too long: %v", err))
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}
