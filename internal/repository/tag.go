package repository

import (
	"context"
	"errors"
	"strings"

	"inkwell/internal/models"

	"gorm.io/gorm"
)

// TagWithCount pairs a tag with the number of posts carrying it.
type TagWithCount struct {
	models.Tag
	PostCount int64 `json:"post_count"`
}

// TagRepository defines the interface for tag data operations
type TagRepository interface {
	// UpsertBySlug finds or creates a tag by its slugified name.
	UpsertBySlug(ctx context.Context, name string) (*models.Tag, error)
	List(ctx context.Context) ([]TagWithCount, error)
}

type tagRepository struct {
	db *gorm.DB
}

// NewTagRepository creates a new tag repository
func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) UpsertBySlug(ctx context.Context, name string) (*models.Tag, error) {
	slug := strings.ToLower(strings.TrimSpace(name))
	if slug == "" {
		return nil, errors.New("tag name is empty")
	}

	var tag models.Tag
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&tag).Error
	if err == nil {
		return &tag, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	tag = models.Tag{Name: strings.TrimSpace(name), Slug: slug}
	if err := r.db.WithContext(ctx).Create(&tag).Error; err != nil {
		// Concurrent create may have won; re-read by the unique slug.
		var existing models.Tag
		if lookupErr := r.db.WithContext(ctx).Where("slug = ?", slug).First(&existing).Error; lookupErr == nil {
			return &existing, nil
		}
		return nil, err
	}
	return &tag, nil
}

func (r *tagRepository) List(ctx context.Context) ([]TagWithCount, error) {
	var tags []TagWithCount
	err := r.db.WithContext(ctx).
		Model(&models.Tag{}).
		Select("tags.*, COUNT(post_tags.post_id) AS post_count").
		Joins("LEFT JOIN post_tags ON post_tags.tag_id = tags.id").
		Group("tags.id").
		Order("tags.name ASC").
		Find(&tags).Error
	return tags, err
}
