package service

import (
	"context"

	"inkwell/internal/models"
	"inkwell/internal/repository"
)

type TagService struct {
	tags repository.TagRepository
}

func NewTagService(tags repository.TagRepository) *TagService {
	return &TagService{tags: tags}
}

// List returns all tags with their published-post counts.
func (s *TagService) List(ctx context.Context) ([]repository.TagWithCount, error) {
	tags, err := s.tags.List(ctx)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return tags, nil
}
