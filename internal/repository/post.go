package repository

import (
	"context"
	"errors"
	"time"

	"inkwell/internal/models"

	"gorm.io/gorm"
)

// PostFilter narrows List queries. Zero values mean "no constraint".
type PostFilter struct {
	Format     models.PostFormat
	AuthorType models.AuthorType
	Statuses   []models.PostStatus
	Query      string
	TagSlug    string
	// OwnerID limits results to one owner's posts (review queue).
	OwnerID uint
	// BotAuthorID limits results to posts authored by one bot.
	BotAuthorID uint
	// VisibleToBotID widens a published-only listing to also include the
	// given bot's own unpublished posts.
	VisibleToBotID uint
	DateFrom       *time.Time
	DateTo         *time.Time
	SortBy         string
	SortOrder      string
	Limit          int
	Offset         int
}

// PostRepository defines the interface for post data operations.
// Transition is the only way status reaches the database.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	GetBySlug(ctx context.Context, slug string) (*models.Post, error)
	List(ctx context.Context, f PostFilter) ([]*models.Post, int64, error)
	Update(ctx context.Context, post *models.Post) error
	ReplaceTags(ctx context.Context, post *models.Post, tags []models.Tag) error
	// Transition performs the guarded status write as a single conditional
	// update: it only applies when the current status is one of `from`, so
	// two concurrent approvals cannot both win. The published timestamp is
	// set only when still unset, keeping re-publication idempotent.
	Transition(ctx context.Context, id uint, from []models.PostStatus, to models.PostStatus, setPublishedAt bool) (bool, error)
	IncrementViewCount(ctx context.Context, id uint) (int64, error)
	SetPinned(ctx context.Context, id uint, pinnedAt *time.Time) error
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Preload("UserAuthor").
		Preload("BotAuthor").
		Preload("Owner").
		Preload("Tags").
		First(&post, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Preload("UserAuthor").
		Preload("BotAuthor").
		Preload("Owner").
		Preload("Tags").
		Where("slug = ?", slug).
		First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, f PostFilter) ([]*models.Post, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Post{})

	if f.Format != "" {
		q = q.Where("format = ?", f.Format)
	}
	if f.AuthorType != "" {
		q = q.Where("author_type = ?", f.AuthorType)
	}
	if f.OwnerID != 0 {
		q = q.Where("owner_id = ?", f.OwnerID)
	}
	if f.BotAuthorID != 0 {
		q = q.Where("bot_author_id = ?", f.BotAuthorID)
	}
	if len(f.Statuses) > 0 {
		if f.VisibleToBotID != 0 {
			q = q.Where("status IN ? OR bot_author_id = ?", f.Statuses, f.VisibleToBotID)
		} else {
			q = q.Where("status IN ?", f.Statuses)
		}
	}
	if f.Query != "" {
		like := "%" + f.Query + "%"
		q = q.Where("LOWER(title) LIKE LOWER(?) OR LOWER(body) LIKE LOWER(?)", like, like)
	}
	if f.TagSlug != "" {
		q = q.Joins("JOIN post_tags ON post_tags.post_id = posts.id").
			Joins("JOIN tags ON tags.id = post_tags.tag_id").
			Where("tags.slug = ?", f.TagSlug)
	}
	if f.DateFrom != nil {
		q = q.Where("posts.created_at >= ?", *f.DateFrom)
	}
	if f.DateTo != nil {
		q = q.Where("posts.created_at <= ?", *f.DateTo)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "posts.created_at DESC"
	switch f.SortBy {
	case "created_at", "updated_at", "published_at", "title", "view_count":
		dir := "DESC"
		if f.SortOrder == "asc" {
			dir = "ASC"
		}
		order = "posts." + f.SortBy + " " + dir
	}

	var posts []*models.Post
	err := q.
		Preload("UserAuthor").
		Preload("BotAuthor").
		Preload("Owner").
		Preload("Tags").
		Order(order).
		Limit(f.Limit).
		Offset(f.Offset).
		Find(&posts).Error
	return posts, total, err
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Save(post).Error
}

func (r *postRepository) ReplaceTags(ctx context.Context, post *models.Post, tags []models.Tag) error {
	return r.db.WithContext(ctx).Model(post).Association("Tags").Replace(tags)
}

func (r *postRepository) Transition(ctx context.Context, id uint, from []models.PostStatus, to models.PostStatus, setPublishedAt bool) (bool, error) {
	updates := map[string]interface{}{"status": to}
	if setPublishedAt {
		updates["published_at"] = gorm.Expr("COALESCE(published_at, ?)", time.Now().UTC())
	}
	res := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	return res.RowsAffected > 0, res.Error
}

func (r *postRepository) IncrementViewCount(ctx context.Context, id uint) (int64, error) {
	// Relaxed increment: lost updates under contention are acceptable for
	// view counts, full serialization is not worth it.
	if err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", id).
		Update("view_count", gorm.Expr("view_count + 1")).Error; err != nil {
		return 0, err
	}
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", id).
		Pluck("view_count", &count).Error
	return count, err
}

func (r *postRepository) SetPinned(ctx context.Context, id uint, pinnedAt *time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", id).
		Update("pinned_at", pinnedAt).Error
}
