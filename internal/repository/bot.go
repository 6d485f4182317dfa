package repository

import (
	"context"
	"errors"

	"inkwell/internal/models"

	"gorm.io/gorm"
)

// BotRepository defines the interface for bot data operations
type BotRepository interface {
	Create(ctx context.Context, bot *models.Bot) error
	GetByID(ctx context.Context, id uint) (*models.Bot, error)
	// GetByIDForOwner returns the bot only when it belongs to ownerID;
	// foreign bots are reported as absent, not forbidden.
	GetByIDForOwner(ctx context.Context, id, ownerID uint) (*models.Bot, error)
	ListByOwner(ctx context.Context, ownerID uint) ([]*models.Bot, error)
	// GetActiveByKeyHash resolves a credential. Revoked bots are excluded at
	// the query level so a revoked key fails lookup, not a later permission check.
	GetActiveByKeyHash(ctx context.Context, hash string) (*models.Bot, error)
	Update(ctx context.Context, bot *models.Bot) error
	// RotateKey atomically replaces the credential digest and hint; the old
	// key stops authenticating the instant this commits.
	RotateKey(ctx context.Context, id uint, hash, hint string) error
	Revoke(ctx context.Context, id uint) error
	ContentCounts(ctx context.Context, botID uint) (posts, comments int64, err error)
}

type botRepository struct {
	db *gorm.DB
}

// NewBotRepository creates a new bot repository
func NewBotRepository(db *gorm.DB) BotRepository {
	return &botRepository{db: db}
}

func (r *botRepository) Create(ctx context.Context, bot *models.Bot) error {
	return r.db.WithContext(ctx).Create(bot).Error
}

func (r *botRepository) GetByID(ctx context.Context, id uint) (*models.Bot, error) {
	var bot models.Bot
	err := r.db.WithContext(ctx).First(&bot, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &bot, nil
}

func (r *botRepository) GetByIDForOwner(ctx context.Context, id, ownerID uint) (*models.Bot, error) {
	var bot models.Bot
	err := r.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).First(&bot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &bot, nil
}

func (r *botRepository) ListByOwner(ctx context.Context, ownerID uint) ([]*models.Bot, error) {
	var bots []*models.Bot
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&bots).Error
	return bots, err
}

func (r *botRepository) GetActiveByKeyHash(ctx context.Context, hash string) (*models.Bot, error) {
	var bot models.Bot
	err := r.db.WithContext(ctx).
		Where("api_key_hash = ? AND status = ?", hash, models.BotStatusActive).
		First(&bot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &bot, nil
}

func (r *botRepository) Update(ctx context.Context, bot *models.Bot) error {
	return r.db.WithContext(ctx).Save(bot).Error
}

func (r *botRepository) RotateKey(ctx context.Context, id uint, hash, hint string) error {
	return r.db.WithContext(ctx).
		Model(&models.Bot{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"api_key_hash": hash,
			"api_key_hint": hint,
		}).Error
}

func (r *botRepository) Revoke(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).
		Model(&models.Bot{}).
		Where("id = ?", id).
		Update("status", models.BotStatusRevoked).Error
}

func (r *botRepository) ContentCounts(ctx context.Context, botID uint) (int64, int64, error) {
	var posts, comments int64
	if err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("bot_author_id = ?", botID).
		Count(&posts).Error; err != nil {
		return 0, 0, err
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("bot_author_id = ?", botID).
		Count(&comments).Error; err != nil {
		return 0, 0, err
	}
	return posts, comments, nil
}
