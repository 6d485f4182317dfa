package service

import (
	"context"
	"strings"

	"inkwell/internal/authz"
	"inkwell/internal/identity"
	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/repository"
)

const maxCommentLen = 5000

type CommentService struct {
	comments repository.CommentRepository
	posts    repository.PostRepository
}

func NewCommentService(comments repository.CommentRepository, posts repository.PostRepository) *CommentService {
	return &CommentService{comments: comments, posts: posts}
}

// List returns the visible comments of a published post. An unpublished
// post yields not-found, same as a missing one.
func (s *CommentService) List(ctx context.Context, postID uint) ([]*models.Comment, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if post == nil || post.Status != models.PostStatusPublished {
		return nil, models.NewNotFoundError("Post", postID)
	}
	comments, err := s.comments.ListVisibleByPost(ctx, postID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

// Create attaches a comment to a published post. Users always may; a bot
// needs the comment permission. The unpublished case reads as not-found so
// commenting cannot probe for drafts.
func (s *CommentService) Create(ctx context.Context, p identity.Principal, postID uint, body string) (*models.Comment, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if post == nil {
		return nil, models.NewNotFoundError("Post", postID)
	}

	if d := authz.CanComment(p, post); !d.Allowed {
		observability.AuthzDenials.WithLabelValues(string(authz.ActionComment)).Inc()
		if d.Hidden {
			return nil, models.NewNotFoundError("Post", postID)
		}
		return nil, denyError(p, d)
	}

	if strings.TrimSpace(body) == "" {
		return nil, models.NewValidationError("Comment body is required")
	}
	if len(body) > maxCommentLen {
		return nil, models.NewValidationError("Comment too long (max 5000 characters)")
	}

	comment := &models.Comment{
		Body:   body,
		Status: models.CommentStatusVisible,
		PostID: post.ID,
	}
	switch p.Kind {
	case identity.KindUser:
		uid := p.UserID
		comment.AuthorType = models.AuthorTypeUser
		comment.UserAuthorID = &uid
	case identity.KindBot:
		bid := p.Bot.ID
		comment.AuthorType = models.AuthorTypeBot
		comment.BotAuthorID = &bid
	}

	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, models.NewInternalError(err)
	}
	return comment, nil
}
