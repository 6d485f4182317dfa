package server

import (
	"time"

	"inkwell/internal/lifecycle"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetPosts handles GET /api/v1/posts
func (s *Server) GetPosts(c *fiber.Ctx) error {
	p := middleware.Principal(c)
	pag := parsePagination(c, 20)

	in := service.ListPostsInput{
		Format:     models.PostFormat(c.Query("format")),
		AuthorType: models.AuthorType(c.Query("author_type")),
		Status:     models.PostStatus(c.Query("status")),
		TagSlug:    c.Query("tag"),
		SortBy:     c.Query("sort", "published_at"),
		SortOrder:  c.Query("order", "desc"),
		Limit:      pag.Limit,
		Offset:     pag.Offset,
	}
	if from := c.Query("from"); from != "" {
		if t, err := time.Parse(time.RFC3339, from); err == nil {
			in.DateFrom = &t
		}
	}
	if to := c.Query("to"); to != "" {
		if t, err := time.Parse(time.RFC3339, to); err == nil {
			in.DateTo = &t
		}
	}

	posts, total, err := s.postService.List(c.Context(), p, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"posts":  posts,
		"total":  total,
		"limit":  pag.Limit,
		"offset": pag.Offset,
	})
}

// SearchPosts handles GET /api/v1/posts/search
func (s *Server) SearchPosts(c *fiber.Ctx) error {
	pag := parsePagination(c, 20)
	in := service.ListPostsInput{
		Query:   c.Query("q"),
		Format:  models.PostFormat(c.Query("format")),
		TagSlug: c.Query("tag"),
		Limit:   pag.Limit,
		Offset:  pag.Offset,
	}

	posts, total, err := s.postService.Search(c.Context(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"posts":  posts,
		"total":  total,
		"limit":  pag.Limit,
		"offset": pag.Offset,
	})
}

// CreatePost handles POST /api/v1/posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req struct {
		Title  string   `json:"title"`
		Body   string   `json:"body"`
		Format string   `json:"format"`
		Tags   []string `json:"tags"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.Create(c.Context(), middleware.Principal(c), service.CreatePostInput{
		Title:  req.Title,
		Body:   req.Body,
		Format: models.PostFormat(req.Format),
		Tags:   req.Tags,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetPost handles GET /api/v1/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, svcErr := s.postService.Get(c.Context(), middleware.Principal(c), id)
	if svcErr != nil {
		return respondError(c, svcErr)
	}
	return c.JSON(post)
}

// UpdatePost handles PATCH /api/v1/posts/:id
//
// The request body may carry a "status" field from naive clients; it is
// ignored. Status moves only through the lifecycle endpoints.
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Title  *string   `json:"title"`
		Body   *string   `json:"body"`
		Format *string   `json:"format"`
		Tags   *[]string `json:"tags"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	in := service.UpdatePostInput{
		Title: req.Title,
		Body:  req.Body,
		Tags:  req.Tags,
	}
	if req.Format != nil {
		f := models.PostFormat(*req.Format)
		in.Format = &f
	}

	post, svcErr := s.postService.Update(c.Context(), middleware.Principal(c), id, in)
	if svcErr != nil {
		return respondError(c, svcErr)
	}
	return c.JSON(post)
}

// ArchivePost handles DELETE /api/v1/posts/:id
func (s *Server) ArchivePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	result, svcErr := s.postService.Archive(c.Context(), middleware.Principal(c), id)
	if svcErr != nil {
		return respondError(c, svcErr)
	}
	return c.JSON(result)
}

// SubmitPost handles POST /api/v1/posts/:id/submit
func (s *Server) SubmitPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	result, svcErr := s.postService.Submit(c.Context(), middleware.Principal(c), id)
	if svcErr != nil {
		return respondError(c, svcErr)
	}
	return c.JSON(result)
}

// PublishPost handles POST /api/v1/posts/:id/publish
func (s *Server) PublishPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	result, svcErr := s.postService.Publish(c.Context(), middleware.Principal(c), id, lifecycle.EventPublish)
	if svcErr != nil {
		return respondError(c, svcErr)
	}
	return c.JSON(result)
}

// RecordView handles POST /api/v1/posts/:id/view
func (s *Server) RecordView(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	count, svcErr := s.postService.IncrementView(c.Context(), id)
	if svcErr != nil {
		return respondError(c, svcErr)
	}
	return c.JSON(fiber.Map{"view_count": count})
}

// PinPost handles POST /api/v1/posts/:id/pin
func (s *Server) PinPost(c *fiber.Ctx) error {
	return s.setPinned(c, true)
}

// UnpinPost handles DELETE /api/v1/posts/:id/pin
func (s *Server) UnpinPost(c *fiber.Ctx) error {
	return s.setPinned(c, false)
}

func (s *Server) setPinned(c *fiber.Ctx, pinned bool) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if svcErr := s.postService.SetPinned(c.Context(), middleware.Principal(c), id, pinned); svcErr != nil {
		return respondError(c, svcErr)
	}
	return c.JSON(fiber.Map{"id": id, "pinned": pinned})
}
