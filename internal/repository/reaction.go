package repository

import (
	"context"

	"inkwell/internal/models"

	"gorm.io/gorm"
)

// ReactionRepository defines the interface for reaction data operations
type ReactionRepository interface {
	Exists(ctx context.Context, userID, postID uint, t models.ReactionType) (bool, error)
	Create(ctx context.Context, reaction *models.Reaction) error
	Delete(ctx context.Context, userID, postID uint, t models.ReactionType) (bool, error)
	CountsByPost(ctx context.Context, postID uint) (map[models.ReactionType]int64, error)
	UserTypes(ctx context.Context, userID, postID uint) ([]models.ReactionType, error)
}

type reactionRepository struct {
	db *gorm.DB
}

// NewReactionRepository creates a new reaction repository
func NewReactionRepository(db *gorm.DB) ReactionRepository {
	return &reactionRepository{db: db}
}

func (r *reactionRepository) Exists(ctx context.Context, userID, postID uint, t models.ReactionType) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Reaction{}).
		Where("user_id = ? AND post_id = ? AND type = ?", userID, postID, t).
		Count(&count).Error
	return count > 0, err
}

func (r *reactionRepository) Create(ctx context.Context, reaction *models.Reaction) error {
	return r.db.WithContext(ctx).Create(reaction).Error
}

func (r *reactionRepository) Delete(ctx context.Context, userID, postID uint, t models.ReactionType) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ? AND type = ?", userID, postID, t).
		Delete(&models.Reaction{})
	return res.RowsAffected > 0, res.Error
}

func (r *reactionRepository) CountsByPost(ctx context.Context, postID uint) (map[models.ReactionType]int64, error) {
	var rows []struct {
		Type  models.ReactionType
		Count int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Reaction{}).
		Select("type, COUNT(*) AS count").
		Where("post_id = ?", postID).
		Group("type").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[models.ReactionType]int64, len(rows))
	for _, row := range rows {
		counts[row.Type] = row.Count
	}
	return counts, nil
}

func (r *reactionRepository) UserTypes(ctx context.Context, userID, postID uint) ([]models.ReactionType, error) {
	var types []models.ReactionType
	err := r.db.WithContext(ctx).
		Model(&models.Reaction{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Pluck("type", &types).Error
	return types, err
}
