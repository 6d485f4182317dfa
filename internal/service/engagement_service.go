package service

import (
	"context"

	"inkwell/internal/models"
	"inkwell/internal/repository"
)

// EngagementService handles reactions and bookmarks. Both are session-user
// features against published posts; bots do not react or bookmark.
type EngagementService struct {
	reactions repository.ReactionRepository
	bookmarks repository.BookmarkRepository
	posts     repository.PostRepository
}

func NewEngagementService(
	reactions repository.ReactionRepository,
	bookmarks repository.BookmarkRepository,
	posts repository.PostRepository,
) *EngagementService {
	return &EngagementService{reactions: reactions, bookmarks: bookmarks, posts: posts}
}

// ReactionSummary is per-post reaction counts plus the caller's own types.
type ReactionSummary struct {
	Counts map[models.ReactionType]int64 `json:"counts"`
	Mine   []models.ReactionType         `json:"mine,omitempty"`
}

func (s *EngagementService) React(ctx context.Context, userID, postID uint, t models.ReactionType) error {
	if !models.ValidReactionType(t) {
		return models.NewValidationError("Invalid reaction type")
	}
	if err := s.publishedPost(ctx, postID); err != nil {
		return err
	}

	exists, err := s.reactions.Exists(ctx, userID, postID, t)
	if err != nil {
		return models.NewInternalError(err)
	}
	if exists {
		return models.NewConflictError("Reaction already exists")
	}

	reaction := &models.Reaction{UserID: userID, PostID: postID, Type: t}
	if err := s.reactions.Create(ctx, reaction); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (s *EngagementService) Unreact(ctx context.Context, userID, postID uint, t models.ReactionType) error {
	if !models.ValidReactionType(t) {
		return models.NewValidationError("Invalid reaction type")
	}
	removed, err := s.reactions.Delete(ctx, userID, postID, t)
	if err != nil {
		return models.NewInternalError(err)
	}
	if !removed {
		return models.NewNotFoundError("Reaction", postID)
	}
	return nil
}

// Reactions summarizes a published post's reactions. userID of 0 means an
// unauthenticated caller; they still see the counts.
func (s *EngagementService) Reactions(ctx context.Context, userID, postID uint) (*ReactionSummary, error) {
	if err := s.publishedPost(ctx, postID); err != nil {
		return nil, err
	}

	counts, err := s.reactions.CountsByPost(ctx, postID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	summary := &ReactionSummary{Counts: counts}
	if userID != 0 {
		mine, err := s.reactions.UserTypes(ctx, userID, postID)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		summary.Mine = mine
	}
	return summary, nil
}

func (s *EngagementService) Bookmark(ctx context.Context, userID, postID uint) error {
	if err := s.publishedPost(ctx, postID); err != nil {
		return err
	}

	exists, err := s.bookmarks.Exists(ctx, userID, postID)
	if err != nil {
		return models.NewInternalError(err)
	}
	if exists {
		return models.NewConflictError("Post already bookmarked")
	}

	bookmark := &models.Bookmark{UserID: userID, PostID: postID}
	if err := s.bookmarks.Create(ctx, bookmark); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (s *EngagementService) Unbookmark(ctx context.Context, userID, postID uint) error {
	removed, err := s.bookmarks.Delete(ctx, userID, postID)
	if err != nil {
		return models.NewInternalError(err)
	}
	if !removed {
		return models.NewNotFoundError("Bookmark", postID)
	}
	return nil
}

func (s *EngagementService) ListBookmarks(ctx context.Context, userID uint, limit, offset int) ([]*models.Bookmark, error) {
	bookmarks, err := s.bookmarks.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return bookmarks, nil
}

func (s *EngagementService) publishedPost(ctx context.Context, postID uint) error {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return models.NewInternalError(err)
	}
	if post == nil || post.Status != models.PostStatusPublished {
		return models.NewNotFoundError("Post", postID)
	}
	return nil
}
